package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over document titles and bodies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		results, err := app.Search(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(results)
		}
		for _, r := range results {
			fmt.Printf("%-14s %s\n", r.DocumentID, r.Snippet)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 20, "maximum number of results")
}
