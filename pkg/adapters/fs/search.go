package fs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/verso/pkg/core"
)

// searchArgs builds a git grep invocation over the tracked files of the
// working tree. Patterns are literal strings, never regular expressions.
func searchArgs(q core.SearchQuery) []string {
	args := []string{"grep", "-I", "-n", "--null", "--no-color", "--fixed-strings"}
	if q.IgnoreCase {
		args = append(args, "--ignore-case")
	}
	if q.WholeWords {
		args = append(args, "--word-regexp")
	}
	if q.MatchAll {
		args = append(args, "--all-match")
	}
	for _, p := range q.Patterns {
		args = append(args, "-e", p)
	}
	return args
}

// parseSearch reads `path NUL lineno SEP content` lines, where SEP is ':' or
// NUL depending on the git version, and returns them sorted by resource then
// line.
func parseSearch(out string) ([]core.SearchMatch, error) {
	matches := []core.SearchMatch{}
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		resource, rest, ok := strings.Cut(line, fieldSeparator)
		if !ok {
			return nil, fmt.Errorf("search line without a path separator: %q", line)
		}

		digits := 0
		for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
			digits++
		}
		if digits == 0 {
			return nil, fmt.Errorf("search line for %s: non-numeric line number in %q", resource, rest)
		}
		lineNo, err := strconv.Atoi(rest[:digits])
		if err != nil {
			return nil, fmt.Errorf("search line for %s: %w", resource, err)
		}

		content := ""
		if digits < len(rest) {
			if sep := rest[digits]; sep != ':' && sep != '\x00' {
				return nil, fmt.Errorf("search line for %s: unexpected separator %q", resource, sep)
			}
			content = rest[digits+1:]
		}
		matches = append(matches, core.SearchMatch{Resource: resource, Line: lineNo, Content: content})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Resource != matches[j].Resource {
			return matches[i].Resource < matches[j].Resource
		}
		return matches[i].Line < matches[j].Line
	})
	return matches, nil
}
