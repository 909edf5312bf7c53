package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lattice-run/lattice/internal/depgraph"
)

var treeCmd = &cobra.Command{
	Use:   "tree <id>",
	Short: "Render a task's dependency tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		downstream, _ := cmd.Flags().GetBool("downstream")
		maxDepth, _ := cmd.Flags().GetInt("depth")

		direction := depgraph.Upstream
		if downstream {
			direction = depgraph.Downstream
		}

		out, err := app.Orchestrator.DepTree(cmd.Context(), args[0], direction, maxDepth)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]string{"tree": out})
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	treeCmd.Flags().Bool("downstream", false, "walk blocks edges instead of blocked_by edges")
	treeCmd.Flags().Int("depth", 0, "maximum depth to walk (0 = unlimited)")
}
