package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var generateIDsCmd = &cobra.Command{
	Use:   "generate-ids",
	Short: "Mint fresh Lattice IDs without creating any documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("count")
		ids, err := app.GenerateIDs(cmd.Context(), n)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(ids)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	generateIDsCmd.Flags().Int("count", 1, "number of IDs to mint")
}
