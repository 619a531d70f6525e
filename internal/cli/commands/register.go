package commands

import (
	"os"

	"github.com/spf13/cobra"

	clierrors "github.com/datacendia/datacendia-go/internal/cli/errors"
	"github.com/datacendia/datacendia-go/internal/cli/output"
	"github.com/datacendia/datacendia-go/pkg/authapi"
)

func registerCommand() *cobra.Command {
	var flags commonFlags
	var flagEmail string
	var flagPassword string
	var flagName string
	var flagOrgName string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and start a session",
		Long: `Create a Datacendia account. When --org is given a new organization is
provisioned with the registrant as its owner. On success the session is
persisted locally, exactly as after login.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, flags, flagEmail, flagPassword, flagName, flagOrgName)
		},
	}

	addCommonFlags(cmd, &flags)
	cmd.Flags().StringVar(&flagEmail, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&flagPassword, "password", "", "Account password (prefer DCAUTH_PASSWORD or the prompt)")
	cmd.Flags().StringVar(&flagName, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&flagOrgName, "org", "", "Name for the new organization")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runRegister(cmd *cobra.Command, flags commonFlags, email, password, name, orgName string) error {
	if password == "" {
		var err error
		password, err = readSecret("DCAUTH_PASSWORD", "Password: ")
		if err != nil {
			return clierrors.NewValidationError("password is required", "Pass --password, set DCAUTH_PASSWORD, or enter it at the prompt.")
		}
	}

	rt, err := newRuntime(flags)
	if err != nil {
		return err
	}
	defer rt.close()

	req := authapi.RegisterRequest{
		Email:            email,
		Password:         password,
		Name:             name,
		OrganizationName: orgName,
	}
	if !rt.controller.Register(cmd.Context(), req) {
		state := rt.controller.State()
		return clierrors.NewAuthenticationError(state.Err)
	}

	state := rt.controller.State()
	if rt.cfg.OutputFormat == "json" {
		return output.NewJSONFormatter(os.Stdout).Write(output.Result{
			Success: true,
			Command: "register",
			Data:    state.User,
		})
	}
	return output.PrintKV(os.Stdout, [][2]string{
		{"Registered as", state.User.Email},
		{"Name", state.User.Name},
		{"Role", string(state.User.Role)},
		{"Organization", state.User.OrganizationID},
	})
}
