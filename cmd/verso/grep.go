package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/verso"
)

var (
	grepWords      bool
	grepAll        bool
	grepIgnoreCase bool
)

var grepCmd = &cobra.Command{
	Use:   "grep [pattern...]",
	Short: "Search the current snapshot for literal patterns",
	Long: `Print the lines matching any pattern, or with --all only the lines of
resources that match every pattern.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(false)
		if err != nil {
			return err
		}
		matches, err := svc.Search(cmd.Context(), verso.SearchQuery{
			Patterns:   args,
			WholeWords: grepWords,
			MatchAll:   grepAll,
			IgnoreCase: grepIgnoreCase,
		})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), matches, func(w io.Writer) error {
			for _, m := range matches {
				fmt.Fprintf(w, "%s:%d:%s\n", m.Resource, m.Line, m.Content)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(grepCmd)
	grepCmd.Flags().BoolVarP(&grepWords, "word", "w", false, "Match whole words only")
	grepCmd.Flags().BoolVar(&grepAll, "all", false, "Require every pattern to match within a resource")
	grepCmd.Flags().BoolVarP(&grepIgnoreCase, "ignore-case", "i", false, "Ignore case")
}
