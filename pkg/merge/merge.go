// Package merge implements a deterministic line-level three-way merge and the
// line diff it is built on. It knows nothing about any storage backend.
package merge

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Conflict block delimiters.
const (
	MarkerStart     = "<<<<<<< "
	MarkerSeparator = "======="
	MarkerEnd       = ">>>>>>> "
)

// Version is one revision of a text: its id and full contents.
type Version struct {
	ID   string
	Text string
}

// Result is the outcome of a three-way merge.
type Result struct {
	HasConflicts bool
	Text         string
}

// Merge combines two edits of base: content (labelled label) and latest.
// Edits to disjoint regions are applied together; overlapping edits that
// disagree produce a conflict block closed with latest.ID.
func Merge(label string, content string, base, latest Version) Result {
	o := SplitLines(base.Text)
	a := SplitLines(content)
	b := SplitLines(latest.Text)

	ma := matches(o, a)
	mb := matches(o, b)

	var out strings.Builder
	conflicts := false
	i, j, k := 0, 0, 0

	for {
		for i < len(o) && ma[i] == j && mb[i] == k {
			out.WriteString(o[i])
			i, j, k = i+1, j+1, k+1
		}

		if i == len(o) && j == len(a) && k == len(b) {
			break
		}

		// Next base line present in both sides ends the unstable chunk.
		next := i
		for next < len(o) && (ma[next] < 0 || mb[next] < 0) {
			next++
		}
		ea, eb := len(a), len(b)
		if next < len(o) {
			ea, eb = ma[next], mb[next]
		}

		if resolve(&out, o[i:next], a[j:ea], b[k:eb], label, latest.ID) {
			conflicts = true
		}

		if next == len(o) {
			break
		}
		i, j, k = next, ea, eb
	}

	return Result{HasConflicts: conflicts, Text: out.String()}
}

// resolve writes the merged form of one unstable chunk and reports whether
// it had to emit a conflict block.
func resolve(out *strings.Builder, o, a, b []string, label, latestID string) bool {
	switch {
	case equal(a, o):
		writeLines(out, b)
	case equal(b, o), equal(a, b):
		writeLines(out, a)
	default:
		out.WriteString(MarkerStart + label + "\n")
		writeBlock(out, a)
		out.WriteString(MarkerSeparator + "\n")
		writeBlock(out, b)
		out.WriteString(MarkerEnd + latestID + "\n")
		return true
	}
	return false
}

func writeLines(out *strings.Builder, lines []string) {
	for _, l := range lines {
		out.WriteString(l)
	}
}

// writeBlock keeps the following marker at the start of a line.
func writeBlock(out *strings.Builder, lines []string) {
	writeLines(out, lines)
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		out.WriteString("\n")
	}
}

func equal(x, y []string) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// matches maps every line of base to the index of its matching line in
// other, or -1 when it has none.
func matches(base, other []string) []int {
	m := make([]int, len(base))
	for i := range m {
		m[i] = -1
	}
	for _, blk := range newMatcher(base, other).GetMatchingBlocks() {
		for n := 0; n < blk.Size; n++ {
			m[blk.A+n] = blk.B + n
		}
	}
	return m
}

// newMatcher disables difflib's popularity heuristic so that repeated lines
// in long documents still take part in the edit script.
func newMatcher(a, b []string) *difflib.SequenceMatcher {
	return difflib.NewMatcherWithJunk(a, b, false, nil)
}

// SplitLines splits s after each newline. Concatenating the result yields s.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
