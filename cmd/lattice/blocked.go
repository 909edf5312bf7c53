package main

import (
	"github.com/spf13/cobra"
)

var blockedCmd = &cobra.Command{
	Use:   "blocked",
	Short: "List open tasks that have at least one open blocker",
	RunE: func(cmd *cobra.Command, args []string) error {
		run := func() error {
			rows, err := app.Blocked(cmd.Context())
			if err != nil {
				return err
			}
			return printDocumentRows(rows)
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			return watchAndRerun(cmd, run)
		}
		return run()
	},
}

func init() {
	blockedCmd.Flags().Bool("watch", false, "re-run the query whenever a markdown file changes")
}
