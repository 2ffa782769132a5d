package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm [path]",
	Short: "Delete a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := author()
		if err != nil {
			return err
		}
		svc, err := openService(false)
		if err != nil {
			return err
		}
		if err := svc.Delete(cmd.Context(), args[0], a, changeMessage(verso.OpDelete, args[0])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s deleted.\n", args[0])
		return nil
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv [from] [to]",
	Short: "Rename a resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := author()
		if err != nil {
			return err
		}
		svc, err := openService(false)
		if err != nil {
			return err
		}
		from, to := args[0], args[1]
		if err := svc.Rename(cmd.Context(), from, to, a, changeMessage(verso.OpRename, from, to)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s renamed to %s.\n", from, to)
		return nil
	},
}

func init() {
	addChangeFlags(rmCmd)
	addChangeFlags(mvCmd)
	rootCmd.AddCommand(rmCmd, mvCmd)
}
