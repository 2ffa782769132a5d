package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/verso"
)

var (
	logSince   string
	logUntil   string
	logLimit   int
	logOneline bool
)

var logCmd = &cobra.Command{
	Use:   "log [path...]",
	Short: "Show revisions, most recent first",
	Long: `Show the revisions touching the given paths, or every revision when none is
given. Bounds take RFC 3339 timestamps or YYYY-MM-DD dates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var tr verso.TimeRange
		var err error
		if tr.Since, err = parseTime("since", logSince); err != nil {
			return err
		}
		if tr.Until, err = parseTime("until", logUntil); err != nil {
			return err
		}

		svc, err := openService(false)
		if err != nil {
			return err
		}
		revs, err := svc.History(cmd.Context(), args, tr, logLimit)
		if err != nil {
			return err
		}

		return render(cmd.OutOrStdout(), revs, func(w io.Writer) error {
			for i, rev := range revs {
				if logOneline {
					fmt.Fprintf(w, "%s %s\n", shortID(rev.ID), firstLine(rev.Description))
					continue
				}
				if i > 0 {
					fmt.Fprintln(w)
				}
				writeRevision(w, rev)
			}
			return nil
		})
	},
}

func parseTime(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s %q: want RFC 3339 or YYYY-MM-DD", name, value)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().StringVar(&logSince, "since", "", "Only revisions at or after this time")
	logCmd.Flags().StringVar(&logUntil, "until", "", "Only revisions at or before this time")
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 0, "Maximum number of revisions (0: no limit)")
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "One line per revision")
}
