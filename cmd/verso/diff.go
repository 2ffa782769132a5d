package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/verso/pkg/merge"
)

var diffUnified bool

var diffCmd = &cobra.Command{
	Use:   "diff [path] [old] [new]",
	Short: "Show the line diff of a resource between two revisions",
	Long: `Compare two revisions of a resource. An omitted or empty old revision is an
empty document; an omitted or empty new revision is the current snapshot.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		var oldID, newID string
		if len(args) > 1 {
			oldID = args[1]
		}
		if len(args) > 2 {
			newID = args[2]
		}

		svc, err := openService(false)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if diffUnified {
			var oldText []byte
			if oldID != "" {
				if oldText, err = svc.Retrieve(ctx, path, oldID); err != nil {
					return err
				}
			}
			newText, err := svc.Retrieve(ctx, path, newID)
			if err != nil {
				return err
			}
			out, err := merge.Unified(string(oldText), string(newText), label(path, oldID), label(path, newID))
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		}

		chunks, err := svc.Diff(ctx, path, oldID, newID)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), chunks, func(w io.Writer) error {
			_, err := io.WriteString(w, merge.Format(chunks))
			return err
		})
	},
}

func label(path, id string) string {
	if id == "" {
		return path
	}
	return path + "@" + shortID(id)
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().BoolVarP(&diffUnified, "unified", "u", false, "Print a unified diff")
}
