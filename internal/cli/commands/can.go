package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	clierrors "github.com/datacendia/datacendia-go/internal/cli/errors"
	"github.com/datacendia/datacendia-go/internal/cli/output"
	"github.com/datacendia/datacendia-go/pkg/identity"
)

func canCommand() *cobra.Command {
	var flags commonFlags
	var flagRoles []string

	cmd := &cobra.Command{
		Use:   "can <permission>",
		Short: "Check a permission against the current session",
		Long: `Evaluate whether the authenticated user's role grants a permission, for
example "write" or "council". With --role the check becomes a role
membership test instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCan(cmd, flags, args, flagRoles)
		},
	}

	addCommonFlags(cmd, &flags)
	cmd.Flags().StringSliceVar(&flagRoles, "role", nil, "Check membership in these roles instead of a permission")

	return cmd
}

type canData struct {
	Allowed    bool     `json:"allowed"`
	Permission string   `json:"permission,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	Role       string   `json:"role,omitempty"`
}

func runCan(cmd *cobra.Command, flags commonFlags, args []string, roleNames []string) error {
	if len(args) == 0 && len(roleNames) == 0 {
		return clierrors.NewValidationError("a permission argument or --role is required", "Example: dcauth can write, or dcauth can --role ADMIN,OWNER")
	}

	rt, err := newRuntime(flags)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.controller.Bootstrap(cmd.Context())
	state := rt.controller.State()
	if !state.Authenticated {
		return clierrors.NewAuthenticationError("not logged in")
	}

	data := canData{Role: string(state.User.Role)}
	if len(roleNames) > 0 {
		roles := make([]identity.Role, 0, len(roleNames))
		for _, name := range roleNames {
			role := identity.Role(strings.ToUpper(name))
			if !role.Valid() {
				return clierrors.NewValidationError(
					fmt.Sprintf("unknown role %q", name),
					"Valid roles: VIEWER, ANALYST, ADMIN, SUPER_ADMIN, OWNER",
				)
			}
			roles = append(roles, role)
		}
		data.Roles = roleNames
		data.Allowed = rt.controller.HasRole(roles...)
	} else {
		data.Permission = args[0]
		data.Allowed = rt.controller.HasPermission(args[0])
	}

	if rt.cfg.OutputFormat == "json" {
		return output.NewJSONFormatter(os.Stdout).Write(output.Result{
			Success: true,
			Command: "can",
			Data:    data,
		})
	}

	pairs := [][2]string{
		{"Role", data.Role},
		{"Allowed", boolWord(data.Allowed)},
	}
	if data.Permission != "" {
		pairs = append([][2]string{{"Permission", data.Permission}}, pairs...)
	}
	return output.PrintKV(os.Stdout, pairs)
}
