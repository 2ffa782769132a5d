package platform

import (
	"strings"
)

// Change types for conventional change descriptions.
const (
	CommitTypeFeat     = "feat"
	CommitTypeFix      = "fix"
	CommitTypeDocs     = "docs"
	CommitTypeStyle    = "style"
	CommitTypeRefactor = "refactor"
	CommitTypePerf     = "perf"
	CommitTypeTest     = "test"
	CommitTypeChore    = "chore"
)

// Footer marks descriptions written through verso.
const Footer = "Changed-with: verso"

// Operation is the kind of write a description records.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpRename Operation = "rename"
)

// CommitType is the change type used when the caller names none.
func (op Operation) CommitType() string {
	switch op {
	case OpCreate:
		return CommitTypeFeat
	case OpUpdate:
		return CommitTypeDocs
	case OpRename:
		return CommitTypeRefactor
	default:
		return CommitTypeChore
	}
}

// ResourceTrailer names each resource a description touches.
const ResourceTrailer = "Resource"

// FormatChangeReason builds a Conventional Commit style description:
//
//	<type>(<scope>): <subject>
//
//	<body>
//
//	Changed-with: verso
func FormatChangeReason(ctype, scope, subject, body string) string {
	return formatChange(ctype, scope, subject, body, nil)
}

// DescribeChange describes op on paths. An empty ctype falls back to the
// operation's type and an empty subject to "<op> <paths>". Each path is
// recorded as a Resource trailer ahead of the footer.
func DescribeChange(op Operation, ctype, scope, subject string, paths ...string) string {
	if ctype == "" {
		ctype = op.CommitType()
	}
	if subject == "" {
		subject = strings.TrimSpace(string(op) + " " + strings.Join(paths, " -> "))
	}
	return formatChange(ctype, scope, subject, "", paths)
}

func formatChange(ctype, scope, subject, body string, paths []string) string {
	var sb strings.Builder

	if ctype == "" {
		ctype = CommitTypeChore
	}
	sb.WriteString(ctype)
	if scope != "" {
		sb.WriteString("(")
		sb.WriteString(scope)
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(subject)

	if body = strings.TrimSpace(body); body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}

	sb.WriteString("\n\n")
	for _, p := range paths {
		sb.WriteString(ResourceTrailer)
		sb.WriteString(": ")
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	sb.WriteString(Footer)
	return sb.String()
}

// AppendFooter appends the footer to a free-form description if not present.
func AppendFooter(msg string) string {
	if strings.Contains(msg, Footer) {
		return msg
	}
	if msg == "" {
		return Footer
	}
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	if !strings.HasSuffix(msg, "\n\n") {
		msg += "\n"
	}
	return msg + Footer
}
