package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/verso"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of verso",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "verso version %s\n", strings.TrimSpace(verso.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
