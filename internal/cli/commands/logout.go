package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datacendia/datacendia-go/internal/cli/output"
)

func logoutCommand() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Long: `Revoke the session server-side (best effort) and clear the local tokens.
Logout always succeeds locally, even when the service is unreachable, and
takes effect in every process sharing this session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, flags)
		},
	}

	addCommonFlags(cmd, &flags)
	return cmd
}

func runLogout(cmd *cobra.Command, flags commonFlags) error {
	rt, err := newRuntime(flags)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.controller.Logout(cmd.Context())

	if rt.cfg.OutputFormat == "json" {
		return output.NewJSONFormatter(os.Stdout).Write(output.Result{
			Success: true,
			Command: "logout",
			Data:    map[string]bool{"loggedOut": true},
		})
	}
	fmt.Fprintln(os.Stdout, "Logged out.")
	return nil
}
