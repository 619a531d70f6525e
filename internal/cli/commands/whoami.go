package commands

import (
	"os"

	"github.com/spf13/cobra"

	clierrors "github.com/datacendia/datacendia-go/internal/cli/errors"
	"github.com/datacendia/datacendia-go/internal/cli/output"
)

func whoamiCommand() *cobra.Command {
	var flags commonFlags
	var flagRefresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd, flags, flagRefresh)
		},
	}

	addCommonFlags(cmd, &flags)
	cmd.Flags().BoolVar(&flagRefresh, "refresh", false, "Re-fetch the user from the service")

	return cmd
}

func runWhoami(cmd *cobra.Command, flags commonFlags, refresh bool) error {
	rt, err := newRuntime(flags)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.controller.Bootstrap(cmd.Context())
	if refresh {
		rt.controller.RefreshUser(cmd.Context())
	}

	state := rt.controller.State()
	if !state.Authenticated {
		return clierrors.NewAuthenticationError("not logged in")
	}

	if rt.cfg.OutputFormat == "json" {
		return output.NewJSONFormatter(os.Stdout).Write(output.Result{
			Success: true,
			Command: "whoami",
			Data:    state.User,
		})
	}
	return output.PrintKV(os.Stdout, [][2]string{
		{"Email", state.User.Email},
		{"Name", state.User.Name},
		{"Role", string(state.User.Role)},
		{"Organization", state.User.OrganizationID},
		{"Status", state.User.Status},
	})
}
