package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var claimCmd = &cobra.Command{
	Use:   "claim <id>",
	Short: "Claim a task for exclusive work in this worktree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claimedBy, _ := cmd.Flags().GetString("by")
		worktree, _ := cmd.Flags().GetString("worktree")
		if claimedBy == "" {
			claimedBy = os.Getenv("USER")
		}
		if worktree == "" {
			worktree = app.Root
		}
		claim, err := app.Claim(args[0], claimedBy, worktree)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(claim)
		}
		fmt.Printf("claimed %s for %s\n", claim.TaskID, claim.ClaimedBy)
		return nil
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release <id>",
	Short: "Release a claim on a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Release(args[0]); err != nil {
			return err
		}
		fmt.Println(args[0], "released")
		return nil
	},
}

func init() {
	claimCmd.Flags().String("by", "", "claimant identity (defaults to $USER)")
	claimCmd.Flags().String("worktree", "", "worktree path backing this claim (defaults to repo root)")
}
