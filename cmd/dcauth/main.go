// Command dcauth is the Datacendia authentication CLI.
//
// Purpose:
//
//	Manage the local platform session from the terminal: login, registration,
//	logout, session status, identity lookup, and role/permission checks.
//	Sessions are persisted in ~/.datacendia (or Redis) and shared with every
//	other process using the same backend.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/datacendia/datacendia-go/internal/cli/commands"
	clierrors "github.com/datacendia/datacendia-go/internal/cli/errors"
)

var version = "dev"

func main() {
	if err := commands.Root(version).Execute(); err != nil {
		var cliErr *clierrors.CLIError
		if errors.As(err, &cliErr) {
			fmt.Fprintf(os.Stderr, "%v\n", cliErr)
			os.Exit(cliErr.ExitCode)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
