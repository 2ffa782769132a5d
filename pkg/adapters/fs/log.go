package fs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/verso/pkg/core"
)

const (
	recordSeparator = '\x01'
	fieldSeparator  = "\x00"

	// logFormat renders one record per commit: hash, committer epoch,
	// author name, author email, raw body. The --raw -z diff entries of the
	// commit follow the body, NUL separated.
	logFormat = "--pretty=format:%x01%H%x00%ct%x00%an%x00%ae%x00%B%x00"

	// historyTimeLayout is the date form passed to --since/--until.
	historyTimeLayout = "2006-01-02 15:04:05 +0000"

	maxRecordSize = 64 << 20
)

// logArgs builds the git log invocation shared by GetRevision, History and
// Watch. Renames are reported as a deletion plus an addition.
func logArgs(extra ...string) []string {
	args := []string{"log", "--raw", "-z", "--no-renames", "--no-color", "--root", logFormat}
	return append(args, extra...)
}

// historyArgs adds the time range, limit and path filter to logArgs.
// --full-diff keeps every change of a matching commit, not only the filtered paths.
func historyArgs(paths []string, tr core.TimeRange, limit int) []string {
	var extra []string
	if len(paths) > 0 {
		extra = append(extra, "--full-diff")
	}
	if tr.Since != nil {
		extra = append(extra, "--since="+sinceBound(*tr.Since).Format(historyTimeLayout))
	}
	if tr.Until != nil {
		extra = append(extra, "--until="+tr.Until.UTC().Format(historyTimeLayout))
	}
	if limit > 0 {
		extra = append(extra, "--max-count="+strconv.Itoa(limit))
	}
	extra = append(extra, "HEAD", "--")
	extra = append(extra, paths...)
	return logArgs(extra...)
}

// sinceBound rounds a lower bound up to whole seconds, the resolution of
// commit timestamps, so a commit earlier in the same second is not admitted.
func sinceBound(t time.Time) time.Time {
	t = t.UTC()
	if truncated := t.Truncate(time.Second); !truncated.Equal(t) {
		return truncated.Add(time.Second)
	}
	return t
}

// splitRecords is a bufio.SplitFunc yielding the text between \x01 markers.
func splitRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, recordSeparator); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// statusWarner is told about change entries whose status letter is not
// recognized. They are recorded as modifications.
type statusWarner func(status byte, path string)

// parseLog reads git log output produced with logFormat, most recent first.
func parseLog(r io.Reader, warn statusWarner) ([]core.Revision, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	scanner.Split(splitRecords)

	var revisions []core.Revision
	for scanner.Scan() {
		record := scanner.Text()
		if strings.Trim(record, "\n"+fieldSeparator) == "" {
			continue
		}
		rev, err := parseRecord(record, warn)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log output: %w", err)
	}
	return revisions, nil
}

func parseRecord(record string, warn statusWarner) (core.Revision, error) {
	fields := strings.Split(record, fieldSeparator)
	if len(fields) < 5 {
		return core.Revision{}, fmt.Errorf("log record has %d fields, want at least 5", len(fields))
	}

	hash := strings.TrimSpace(fields[0])
	if hash == "" {
		return core.Revision{}, fmt.Errorf("log record without a commit hash")
	}
	seconds, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return core.Revision{}, fmt.Errorf("commit %s: invalid timestamp %q", hash, fields[1])
	}

	rev := core.Revision{
		ID:          hash,
		Timestamp:   time.Unix(seconds, 0).UTC(),
		Author:      core.Author{Name: fields[2], Email: fields[3]},
		Description: strings.TrimSpace(fields[4]),
		Changes:     []core.Change{},
	}

	rest := fields[5:]
	for i := 0; i < len(rest); i++ {
		entry := strings.Trim(rest[i], "\n"+fieldSeparator)
		if entry == "" {
			continue
		}
		if !strings.HasPrefix(entry, ":") {
			return core.Revision{}, fmt.Errorf("commit %s: unexpected field %q", hash, entry)
		}
		if i+1 >= len(rest) || rest[i+1] == "" {
			return core.Revision{}, fmt.Errorf("commit %s: change %q without a path", hash, entry)
		}
		i++
		changePath := rest[i]

		status := entry[len(entry)-1]
		var kind core.ChangeKind
		switch status {
		case 'A':
			kind = core.Added
		case 'M':
			kind = core.Modified
		case 'D':
			kind = core.Deleted
		default:
			kind = core.Modified
			if warn != nil {
				warn(status, changePath)
			}
		}
		rev.Changes = append(rev.Changes, core.Change{Kind: kind, Path: changePath})
	}
	return rev, nil
}
