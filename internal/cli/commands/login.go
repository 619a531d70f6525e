package commands

import (
	"os"

	"github.com/spf13/cobra"

	clierrors "github.com/datacendia/datacendia-go/internal/cli/errors"
	"github.com/datacendia/datacendia-go/internal/cli/output"
)

func loginCommand() *cobra.Command {
	var flags commonFlags
	var flagEmail string
	var flagPassword string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and start a session",
		Long: `Authenticate against the Datacendia platform and persist the session
locally. The password can be passed with --password, the DCAUTH_PASSWORD
environment variable, or interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, flags, flagEmail, flagPassword)
		},
	}

	addCommonFlags(cmd, &flags)
	cmd.Flags().StringVar(&flagEmail, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&flagPassword, "password", "", "Account password (prefer DCAUTH_PASSWORD or the prompt)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runLogin(cmd *cobra.Command, flags commonFlags, email, password string) error {
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

	if !rt.controller.Login(cmd.Context(), email, password) {
		state := rt.controller.State()
		return clierrors.NewAuthenticationError(state.Err)
	}

	state := rt.controller.State()
	if rt.cfg.OutputFormat == "json" {
		return output.NewJSONFormatter(os.Stdout).Write(output.Result{
			Success: true,
			Command: "login",
			Data:    state.User,
		})
	}
	return output.PrintKV(os.Stdout, [][2]string{
		{"Logged in as", state.User.Email},
		{"Name", state.User.Name},
		{"Role", string(state.User.Role)},
		{"Organization", state.User.OrganizationID},
	})
}
