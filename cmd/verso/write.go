package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/verso"
)

var (
	writeContent string
	writeFile    string
	changeReason string
	changeType   string
	changeScope  string
	expectID     string
)

// saveCmd represents the save command
var saveCmd = &cobra.Command{
	Use:   "save [path]",
	Short: "Save a resource (last writer wins)",
	Long: `Write a resource and commit it. Content comes from --content, --file,
or standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return write(cmd, args[0], verso.OpUpdate, func(ctx context.Context, svc *verso.Service, a verso.Author, msg string, data []byte) (bool, error) {
			return true, svc.Save(ctx, args[0], a, msg, data)
		})
	},
}

var createCmd = &cobra.Command{
	Use:   "create [path]",
	Short: "Create a resource that must not exist yet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return write(cmd, args[0], verso.OpCreate, func(ctx context.Context, svc *verso.Service, a verso.Author, msg string, data []byte) (bool, error) {
			return true, svc.Create(ctx, args[0], a, msg, data)
		})
	},
}

var modifyCmd = &cobra.Command{
	Use:   "modify [path]",
	Short: "Save a resource if it has not changed since --expect",
	Long: `Commit the new content only if --expect is still the latest revision of the
resource. Otherwise nothing is committed: the content is merged with the latest
version and printed, and the command fails. Resolve the conflicts and run
modify again with the reported latest revision.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var info *verso.MergeInfo
		err := write(cmd, args[0], verso.OpUpdate, func(ctx context.Context, svc *verso.Service, a verso.Author, msg string, data []byte) (bool, error) {
			var err error
			info, err = svc.Modify(ctx, args[0], expectID, a, msg, data)
			return info == nil, err
		})
		if err != nil || info == nil {
			return err
		}

		if err := render(cmd.OutOrStdout(), info, func(w io.Writer) error {
			_, err := io.WriteString(w, info.MergedText)
			return err
		}); err != nil {
			return err
		}
		if info.HasConflicts {
			return fmt.Errorf("%s changed since %s: merged with %s, resolve the conflicts and retry with --expect %s",
				args[0], shortID(expectID), shortID(info.Revision.ID), info.Revision.ID)
		}
		return fmt.Errorf("%s changed since %s: merged cleanly with %s, retry with --expect %s",
			args[0], shortID(expectID), shortID(info.Revision.ID), info.Revision.ID)
	},
}

// writeFunc performs the write and reports whether it committed.
type writeFunc func(ctx context.Context, svc *verso.Service, a verso.Author, msg string, data []byte) (bool, error)

// write gathers content, author and description, then runs fn.
func write(cmd *cobra.Command, path string, op verso.Operation, fn writeFunc) error {
	a, err := author()
	if err != nil {
		return err
	}
	data, err := readContent(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	committed, err := fn(ctx, svc, a, changeMessage(op, path), data)
	if errors.Is(err, verso.ErrUnchanged) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s unchanged, nothing to commit.\n", path)
		return nil
	}
	if err != nil || !committed {
		return err
	}

	id, err := svc.LatestRevisionID(ctx, path)
	if err != nil {
		return err
	}
	logger.Debug("resource saved", "path", path, "revision", id)
	fmt.Fprintf(cmd.OutOrStdout(), "%s saved at %s\n", path, shortID(id))
	return nil
}

func readContent(cmd *cobra.Command) ([]byte, error) {
	switch {
	case cmd.Flags().Changed("content"):
		return []byte(writeContent), nil
	case writeFile != "":
		data, err := os.ReadFile(writeFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", writeFile, err)
		}
		return data, nil
	default:
		return io.ReadAll(cmd.InOrStdin())
	}
}

// changeMessage builds the revision description from -m, --type and --scope.
// A bare -m is kept as written; otherwise the operation picks the type.
func changeMessage(op verso.Operation, paths ...string) string {
	if changeType == "" && changeScope == "" && changeReason != "" {
		return verso.AppendFooter(changeReason)
	}
	return verso.DescribeChange(op, changeType, changeScope, changeReason, paths...)
}

func addChangeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&changeReason, "message", "m", "", "Change description")
	cmd.Flags().StringVarP(&changeType, "type", "t", "", "Change type (feat, fix, docs, ...)")
	cmd.Flags().StringVarP(&changeScope, "scope", "s", "", "Change scope")
}

func addContentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&writeContent, "content", "", "Resource content")
	cmd.Flags().StringVarP(&writeFile, "file", "f", "", "Read content from this file")
	cmd.MarkFlagsMutuallyExclusive("content", "file")
}

func init() {
	for _, cmd := range []*cobra.Command{saveCmd, createCmd, modifyCmd} {
		addChangeFlags(cmd)
		addContentFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
	modifyCmd.Flags().StringVar(&expectID, "expect", "", "Revision the new content was based on (empty: an empty document)")
}
