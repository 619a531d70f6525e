package commands

import (
	"github.com/spf13/cobra"
)

// Root creates the dcauth root command with all subcommands registered.
func Root(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dcauth",
		Short: "Datacendia authentication CLI",
		Long: `dcauth manages the local Datacendia session: login, registration,
logout, session status, and role/permission checks. The session is shared
with every other process on this machine (or, with the redis backend,
across machines), so logging out here logs out everywhere.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(loginCommand())
	cmd.AddCommand(registerCommand())
	cmd.AddCommand(logoutCommand())
	cmd.AddCommand(statusCommand())
	cmd.AddCommand(whoamiCommand())
	cmd.AddCommand(canCommand())

	return cmd
}

// addCommonFlags registers the overrides shared by every subcommand.
func addCommonFlags(cmd *cobra.Command, flags *commonFlags) {
	cmd.Flags().StringVar(&flags.endpoint, "endpoint", "", "Authentication service endpoint (overrides config)")
	cmd.Flags().StringVar(&flags.format, "format", "", "Output format: table, json (overrides config)")
}
