package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/datacendia/datacendia-go/internal/cli/output"
)

func statusCommand() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session state",
		Long: `Resolve the stored session and report whether it is authenticated.
An invalid or expired stored session is cleared as a side effect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, flags)
		},
	}

	addCommonFlags(cmd, &flags)
	return cmd
}

type statusData struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
	Backend       string `json:"backend"`
	Endpoint      string `json:"endpoint"`
}

func runStatus(cmd *cobra.Command, flags commonFlags) error {
	rt, err := newRuntime(flags)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.controller.Bootstrap(cmd.Context())
	state := rt.controller.State()

	data := statusData{
		Authenticated: state.Authenticated,
		Backend:       rt.cfg.SessionBackend,
		Endpoint:      rt.cfg.APIEndpoint,
	}
	if state.User != nil {
		data.Email = state.User.Email
		data.Role = string(state.User.Role)
	}

	if rt.cfg.OutputFormat == "json" {
		return output.NewJSONFormatter(os.Stdout).Write(output.Result{
			Success: true,
			Command: "status",
			Data:    data,
		})
	}

	pairs := [][2]string{
		{"Authenticated", boolWord(data.Authenticated)},
		{"Backend", data.Backend},
		{"Endpoint", data.Endpoint},
	}
	if data.Email != "" {
		pairs = append(pairs,
			[2]string{"Email", data.Email},
			[2]string{"Role", data.Role})
	}
	return output.PrintKV(os.Stdout, pairs)
}

func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
