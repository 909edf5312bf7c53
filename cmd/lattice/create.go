package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lattice-run/lattice/internal/cliapp"
	"github.com/lattice-run/lattice/internal/document"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new document",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		taskType, _ := cmd.Flags().GetString("type")
		parentID, _ := cmd.Flags().GetString("parent")
		skill, _ := cmd.Flags().GetString("skill")
		labels, _ := cmd.Flags().GetStringSlice("label")
		var priority *int
		if cmd.Flags().Changed("priority") {
			p, _ := cmd.Flags().GetInt("priority")
			priority = &p
		}

		row, err := app.Create(cmd.Context(), cliapp.CreateInput{
			Dir:         dir,
			Name:        name,
			Description: description,
			TaskType:    document.TaskType(taskType),
			Priority:    priority,
			ParentID:    parentID,
			Skill:       skill,
			Labels:      labels,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(row)
		}
		fmt.Println(row.ID)
		return nil
	},
}

func init() {
	createCmd.Flags().String("dir", "", "directory to create the document under, relative to the repo root")
	createCmd.Flags().String("name", "", "document name (used for both front-matter and filename)")
	createCmd.Flags().String("description", "", "document description")
	createCmd.Flags().String("type", "", "task type: bug, feature, task, or chore (empty for non-task documents)")
	createCmd.Flags().Int("priority", 2, "priority 0-4 (0 highest, 4 backlog)")
	createCmd.Flags().String("parent", "", "parent document id")
	createCmd.Flags().String("skill", "", "skill tag")
	createCmd.Flags().StringSlice("label", nil, "labels to attach (repeatable or comma-separated)")
	_ = createCmd.MarkFlagRequired("name")
}
