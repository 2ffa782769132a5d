package merge

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ChunkKind tags the lines of a diff chunk.
type ChunkKind int

const (
	Both    ChunkKind = iota // unchanged
	Removed                  // only in the old text
	Added                    // only in the new text
)

func (k ChunkKind) String() string {
	switch k {
	case Removed:
		return "removed"
	case Added:
		return "added"
	default:
		return "both"
	}
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k ChunkKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Chunk is a run of consecutive lines sharing the same tag.
// Lines keep their line terminators.
type Chunk struct {
	Kind  ChunkKind `json:"kind" yaml:"kind"`
	Lines []string  `json:"lines" yaml:"lines"`
}

// Diff returns the grouped line-level edit script from oldText to newText.
// Joining the Both and Removed lines gives oldText; Both and Added gives newText.
func Diff(oldText, newText string) []Chunk {
	a := SplitLines(oldText)
	b := SplitLines(newText)

	var chunks []Chunk
	add := func(kind ChunkKind, lines []string) {
		if len(lines) == 0 {
			return
		}
		chunks = append(chunks, Chunk{Kind: kind, Lines: append([]string(nil), lines...)})
	}

	for _, op := range newMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'e':
			add(Both, a[op.I1:op.I2])
		case 'd':
			add(Removed, a[op.I1:op.I2])
		case 'i':
			add(Added, b[op.J1:op.J2])
		case 'r':
			add(Removed, a[op.I1:op.I2])
			add(Added, b[op.J1:op.J2])
		}
	}
	return chunks
}

// Format renders chunks with a one-character prefix per line:
// ' ' unchanged, '-' removed, '+' added.
func Format(chunks []Chunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		prefix := " "
		switch c.Kind {
		case Removed:
			prefix = "-"
		case Added:
			prefix = "+"
		}
		for _, l := range c.Lines {
			sb.WriteString(prefix)
			sb.WriteString(l)
			if !strings.HasSuffix(l, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// Unified renders a unified diff with three lines of context.
func Unified(oldText, newText, fromLabel, toLabel string) (string, error) {
	if oldText == newText {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	})
}
