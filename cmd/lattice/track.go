package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track <child-id> <parent-id>",
	Short: "Record that child was discovered while working on parent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Track(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s recorded as discovered from %s\n", args[0], args[1])
		return nil
	},
}
