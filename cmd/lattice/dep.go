package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage blocked_by/blocking edges between tasks",
}

var depAddCmd = &cobra.Command{
	Use:   "add <source> <target>",
	Short: "Record that source is blocked by target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := app.Orchestrator.DepAdd(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}
		if result.AlreadyExisted {
			fmt.Println("edge already existed")
			return nil
		}
		if result.Warning != "" {
			fmt.Println("warning:", result.Warning)
		}
		fmt.Printf("%s is now blocked by %s\n", args[0], args[1])
		return nil
	},
}

var depRemoveCmd = &cobra.Command{
	Use:   "remove <source> <target>",
	Short: "Remove a blocked_by/blocking edge between two tasks",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Orchestrator.DepRemove(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("removed edge %s -> %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	depCmd.AddCommand(depAddCmd, depRemoveCmd)
}
