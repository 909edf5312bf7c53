package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lattice-run/lattice/internal/index"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents matching a filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := listFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		run := func() error {
			rows, err := app.List(cmd.Context(), filter)
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

func listFilterFromFlags(cmd *cobra.Command) (index.DocumentFilter, error) {
	pathPrefix, _ := cmd.Flags().GetString("path")
	taskType, _ := cmd.Flags().GetString("type")
	includeClosed, _ := cmd.Flags().GetBool("all")
	limit, _ := cmd.Flags().GetInt("limit")
	labelsAll, _ := cmd.Flags().GetStringSlice("labels-all")
	labelsAny, _ := cmd.Flags().GetStringSlice("labels-any")

	state := index.StateOpen
	if includeClosed {
		state = index.StateAny
	}

	return index.DocumentFilter{
		State:         state,
		IncludeClosed: includeClosed,
		PathPrefix:    pathPrefix,
		TaskType:   taskType,
		LabelsAll:  labelsAll,
		LabelsAny:  labelsAny,
		Limit:      limit,
		SortBy:     index.SortByUpdatedAt,
		SortOrder:  index.Descending,
	}, nil
}

func printDocumentRows(rows []index.DocumentRow) error {
	if jsonOutput {
		return printJSON(rows)
	}
	for _, row := range rows {
		status := "open"
		if row.IsClosed {
			status = "closed"
		}
		fmt.Printf("%-14s %-7s %s\n", row.ID, status, row.Name)
	}
	return nil
}

func init() {
	listCmd.Flags().String("path", "", "restrict to documents under this repo-relative path prefix")
	listCmd.Flags().String("type", "", "restrict to a task type")
	listCmd.Flags().Bool("all", false, "include closed documents")
	listCmd.Flags().Int("limit", 0, "limit result count (0 = unlimited)")
	listCmd.Flags().StringSlice("labels-all", nil, "restrict to documents carrying every listed label")
	listCmd.Flags().StringSlice("labels-any", nil, "restrict to documents carrying at least one listed label")
	listCmd.Flags().Bool("watch", false, "re-run the query whenever a markdown file changes")
}
