package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show repository-wide counts: open/closed tasks, ready, blocked, stale claims",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := app.Stats(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(stats)
		}
		fmt.Printf("open tasks:    %d\n", stats.OpenTasks)
		fmt.Printf("closed tasks:  %d\n", stats.ClosedTasks)
		fmt.Printf("total docs:    %d\n", stats.TotalDocs)
		fmt.Printf("ready:         %d\n", stats.ReadyCount)
		fmt.Printf("blocked:       %d\n", stats.BlockedCount)
		fmt.Printf("stale claims:  %d\n", stats.StaleClaims)
		return nil
	},
}
