package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove closed task documents that are no longer inline-referenced",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		force, _ := cmd.Flags().GetBool("force")
		result, err := app.Prune(cmd.Context(), all, force)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}
		for _, id := range result.Removed {
			fmt.Println(id, "removed")
		}
		for _, id := range result.Skipped {
			fmt.Println(id, "skipped (still referenced, use --force)")
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().Bool("all", false, "consider every closed task, not just the oldest")
	pruneCmd.Flags().Bool("force", false, "strip inline references and prune anyway")
}
