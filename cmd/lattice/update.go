package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lattice-run/lattice/internal/cliapp"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a document's mutable front-matter fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in cliapp.UpdateInput
		if cmd.Flags().Changed("name") {
			v, _ := cmd.Flags().GetString("name")
			in.Name = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			in.Description = &v
		}
		if cmd.Flags().Changed("priority") {
			v, _ := cmd.Flags().GetInt("priority")
			p := &v
			in.Priority = &p
		}
		if cmd.Flags().Changed("skill") {
			v, _ := cmd.Flags().GetString("skill")
			in.Skill = &v
		}
		if cmd.Flags().Changed("label") {
			v, _ := cmd.Flags().GetStringSlice("label")
			in.Labels = &v
		}

		row, err := app.Update(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(row)
		}
		fmt.Println(row.ID, "updated")
		return nil
	},
}

func init() {
	updateCmd.Flags().String("name", "", "new name")
	updateCmd.Flags().String("description", "", "new description")
	updateCmd.Flags().Int("priority", 0, "new priority 0-4")
	updateCmd.Flags().String("skill", "", "new skill tag")
	updateCmd.Flags().StringSlice("label", nil, "replace the label set (repeatable or comma-separated)")
}
