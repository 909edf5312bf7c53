package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var staleCmd = &cobra.Command{
	Use:   "stale",
	Short: "List claims that have aged past the stale threshold or point at dead state",
	RunE: func(cmd *cobra.Command, args []string) error {
		stale, err := app.Stale(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(stale)
		}
		for _, s := range stale {
			fmt.Printf("%-14s %-20s %s\n", s.Claim.TaskID, s.Claim.ClaimedBy, s.Age)
		}
		return nil
	},
}
