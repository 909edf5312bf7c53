package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lattice-run/lattice/internal/latticeerr"
)

// reservedCommands returns the command surface spec §9 names but this
// implementation does not yet carry real semantics for, plus doctor, which
// gets a minimal real implementation: reconcile once, then report overview.
func reservedCommands() []*cobra.Command {
	names := []string{
		"reopen", "roots", "children", "label", "links-from", "links-to",
		"path", "orphans", "impact", "prime", "split", "mv", "edit", "fmt",
		"check", "setup", "completion", "chaos-monkey",
	}

	cmds := make([]*cobra.Command, 0, len(names)+1)
	for _, name := range names {
		name := name
		cmds = append(cmds, &cobra.Command{
			Use:    name,
			Short:  fmt.Sprintf("(reserved, not yet implemented: %s)", name),
			Hidden: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return latticeerr.ErrNotImplemented
			},
		})
	}

	cmds = append(cmds, &cobra.Command{
		Use:   "doctor",
		Short: "Reconcile, then run an invariants pass and report the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			overview, err := app.Doctor(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(overview)
			}
			if overview.Violation != nil {
				fmt.Println("invariant violation:", overview.Violation.Description)
				return nil
			}
			fmt.Println("no invariant violations found")
			return nil
		},
	})

	return cmds
}
