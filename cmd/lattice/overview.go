package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show repository stats plus one invariant-check pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		overview, err := app.Overview(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(overview)
		}
		fmt.Printf("open tasks:    %d\n", overview.Stats.OpenTasks)
		fmt.Printf("closed tasks:  %d\n", overview.Stats.ClosedTasks)
		fmt.Printf("total docs:    %d\n", overview.Stats.TotalDocs)
		fmt.Printf("ready:         %d\n", overview.Stats.ReadyCount)
		fmt.Printf("blocked:       %d\n", overview.Stats.BlockedCount)
		fmt.Printf("stale claims:  %d\n", overview.Stats.StaleClaims)
		if overview.Violation != nil {
			fmt.Println("invariant violation:", overview.Violation.Description)
		} else {
			fmt.Println("invariants: clean")
		}
		return nil
	},
}
