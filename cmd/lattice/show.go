package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a document's indexed fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := app.Show(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(row)
		}
		fmt.Printf("%s  %s\n", row.ID, row.Name)
		fmt.Printf("  path:        %s\n", row.Path)
		fmt.Printf("  description: %s\n", row.Description)
		if row.TaskType != "" {
			fmt.Printf("  task_type:   %s\n", row.TaskType)
		}
		fmt.Printf("  closed:      %t\n", row.IsClosed)
		return nil
	},
}
