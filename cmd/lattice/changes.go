package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Force a full reconciliation pass and report what changed",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := app.Reconcile(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("tier=%v reindexed=%d removed=%d\n", result.Tier, result.Reindexed, result.Removed)
		return nil
	},
}
