package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var readRevision string

var catCmd = &cobra.Command{
	Use:   "cat [path]",
	Short: "Print a resource",
	Long:  `Print a resource from the current snapshot, or from --revision.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(false)
		if err != nil {
			return err
		}
		data, err := svc.Retrieve(cmd.Context(), args[0], readRevision)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest [path]",
	Short: "Print the latest revision id of a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(false)
		if err != nil {
			return err
		}
		id, err := svc.LatestRevisionID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show [revision]",
	Short: "Describe a revision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(false)
		if err != nil {
			return err
		}
		rev, err := svc.GetRevision(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), rev, func(w io.Writer) error {
			writeRevision(w, rev)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(catCmd, latestCmd, showCmd)
	catCmd.Flags().StringVarP(&readRevision, "revision", "r", "", "Revision to read (default: current snapshot)")
}
