package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List a directory of the current snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		}
		svc, err := openService(false)
		if err != nil {
			return err
		}
		entries, err := svc.ListDirectory(cmd.Context(), dir)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), entries, func(w io.Writer) error {
			for _, e := range entries {
				if e.IsDirectory {
					fmt.Fprintf(w, "%s/\n", e.Name)
					continue
				}
				fmt.Fprintln(w, e.Name)
			}
			return nil
		})
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "List every resource of the current snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(false)
		if err != nil {
			return err
		}
		paths, err := svc.ListIndex(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), paths, func(w io.Writer) error {
			for _, p := range paths {
				fmt.Fprintln(w, p)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(lsCmd, indexCmd)
}
