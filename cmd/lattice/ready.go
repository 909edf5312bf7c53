package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lattice-run/lattice/internal/ready"
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List actionable tasks: open, task-typed, with no open blocker",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readyOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		run := func() error {
			rows, err := app.Ready(cmd.Context(), opts)
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

func readyOptionsFromFlags(cmd *cobra.Command) (ready.Options, error) {
	includeClaimed, _ := cmd.Flags().GetBool("include-claimed")
	includeBacklog, _ := cmd.Flags().GetBool("include-backlog")
	sortPolicy, _ := cmd.Flags().GetString("sort")
	limit, _ := cmd.Flags().GetInt("limit")
	pathPrefix, _ := cmd.Flags().GetString("path")

	policy := ready.Hybrid
	switch sortPolicy {
	case "priority":
		policy = ready.Priority
	case "oldest":
		policy = ready.Oldest
	case "", "hybrid":
		policy = ready.Hybrid
	default:
		return ready.Options{}, fmt.Errorf("unknown sort policy %q", sortPolicy)
	}

	return ready.Options{
		IncludeClaimed: includeClaimed,
		IncludeBacklog: includeBacklog,
		SortPolicy:     policy,
		Limit:          limit,
		PathPrefix:     pathPrefix,
	}, nil
}

func init() {
	readyCmd.Flags().Bool("include-claimed", false, "include tasks already claimed by someone")
	readyCmd.Flags().Bool("include-backlog", false, "include priority-4 (backlog) tasks")
	readyCmd.Flags().String("sort", "hybrid", "ordering: hybrid, priority, or oldest")
	readyCmd.Flags().Int("limit", 0, "limit result count (0 = unlimited)")
	readyCmd.Flags().String("path", "", "restrict to documents under this repo-relative path prefix")
	readyCmd.Flags().Bool("watch", false, "re-run the query whenever a markdown file changes")
}
