// Command lattice is the CLI dispatcher for the local git-native knowledge
// graph (spec §6.1): it wires internal/cliapp's command context to a cobra
// command tree and maps typed errors to stable exit codes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lattice-run/lattice/internal/cliapp"
	"github.com/lattice-run/lattice/internal/latticeerr"
)

var (
	app *cliapp.App

	jsonOutput bool
	noStartup  bool
	verboseN   int
)

var rootCmd = &cobra.Command{
	Use:           "lattice",
	Short:         "lattice - a git-native markdown knowledge and task graph",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipBootstrap(cmd.Name()) {
			return nil
		}
		a, err := cliapp.New(jsonOutput, verboseN)
		if err != nil {
			return err
		}
		app = a
		if !noStartup {
			if _, err := app.Reconcile(cmd.Context()); err != nil {
				return err
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil {
			return nil
		}
		return app.Close()
	},
}

func skipBootstrap(name string) bool {
	switch name {
	case "help", "completion", "lattice":
		return true
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&noStartup, "no-startup", false, "skip reconciliation and cleanup on startup")
	rootCmd.PersistentFlags().CountVarP(&verboseN, "verbose", "v", "increase log verbosity (-v, -vv)")

	rootCmd.AddCommand(
		showCmd, createCmd, updateCmd, closeCmd, listCmd, readyCmd, searchCmd,
		staleCmd, blockedCmd, changesCmd, statsCmd, treeCmd, claimCmd, releaseCmd,
		trackCmd, generateIDsCmd, depCmd, pruneCmd, overviewCmd,
	)
	rootCmd.AddCommand(reservedCommands()...)
}

func main() {
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(err)
		os.Exit(cliapp.ExitCode(err))
	}
}

// errorEnvelope is the JSON-mode error shape spec §6.1 requires.
type errorEnvelope struct {
	ErrorCode string `json:"error_code"`
	Category  string `json:"category"`
	Message   string `json:"message"`
}

func reportError(err error) {
	if jsonOutput {
		category := string(latticeerr.CodeInternal)
		var coder latticeerr.Coder
		if errors.As(err, &coder) {
			category = string(coder.Code())
		}
		env := errorEnvelope{ErrorCode: category, Category: category, Message: err.Error()}
		data, _ := json.Marshal(env)
		fmt.Fprintln(os.Stderr, string(data))
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
