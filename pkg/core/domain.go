// Package core holds the backend-independent vocabulary of a versioned store:
// revisions, changes, search queries, merge results, and the Store contract
// every backend implements.
package core

import (
	"fmt"
	"strings"
	"time"
)

// Author identifies who committed a change.
type Author struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// Validate rejects identities git cannot record: a blank name or email, or
// one containing angle brackets or line breaks.
func (a Author) Validate() error {
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Email) == "" {
		return fmt.Errorf("%w: name and email are required", ErrIllegalAuthor)
	}
	if strings.ContainsAny(a.Name, "<>\n") || strings.ContainsAny(a.Email, "<>\n") {
		return fmt.Errorf("%w: %q", ErrIllegalAuthor, a.String())
	}
	return nil
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// ChangeKind tags what happened to a resource within a Revision.
type ChangeKind int

const (
	Added ChangeKind = iota
	Modified
	Deleted
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	default:
		return "modified"
	}
}

func (k ChangeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ChangeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "added":
		*k = Added
	case "modified":
		*k = Modified
	case "deleted":
		*k = Deleted
	default:
		return fmt.Errorf("unknown change kind %q", text)
	}
	return nil
}

// Change describes one resource's status in a snapshot transition.
type Change struct {
	Kind ChangeKind `json:"kind" yaml:"kind"`
	Path string     `json:"path" yaml:"path"`
}

func (c Change) String() string {
	return c.Kind.String() + " " + c.Path
}

// Revision is an immutable, authored snapshot transition of the whole store.
// Revisions are only produced by backends from their own history output.
type Revision struct {
	ID          string    `json:"id" yaml:"id"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Author      Author    `json:"author" yaml:"author"`
	Description string    `json:"description" yaml:"description"`
	Changes     []Change  `json:"changes" yaml:"changes"`
}

// TimeRange filters history queries. A nil bound is unbounded. Bounds are
// inclusive at the one-second resolution of revision timestamps: a fractional
// Since is rounded up, a fractional Until rounded down.
type TimeRange struct {
	Since *time.Time
	Until *time.Time
}

// Contains reports whether t falls inside the range (bounds inclusive).
func (r TimeRange) Contains(t time.Time) bool {
	if r.Since != nil && t.Before(*r.Since) {
		return false
	}
	if r.Until != nil && t.After(*r.Until) {
		return false
	}
	return true
}

// SearchQuery describes a content search over the current snapshot.
// Patterns are matched literally.
type SearchQuery struct {
	Patterns   []string
	WholeWords bool
	MatchAll   bool
	IgnoreCase bool
}

// SearchMatch is one matching line.
type SearchMatch struct {
	Resource string `json:"resource" yaml:"resource"`
	Line     int    `json:"line" yaml:"line"`
	Content  string `json:"content" yaml:"content"`
}

// Entry is an item immediately inside a directory of the current snapshot.
type Entry struct {
	Name        string `json:"name" yaml:"name"`
	IsDirectory bool   `json:"is_directory" yaml:"is_directory"`
}

// MergeInfo is returned by Service.Modify when the caller's expected revision
// is stale. Revision is the true latest revision the merge was computed
// against; resubmit with its ID to persist a resolution.
type MergeInfo struct {
	Revision     Revision `json:"revision" yaml:"revision"`
	HasConflicts bool     `json:"has_conflicts" yaml:"has_conflicts"`
	MergedText   string   `json:"merged_text" yaml:"merged_text"`
}

// EventType represents the type of change observed in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// EventTypeFor maps a change kind to its event type.
func EventTypeFor(k ChangeKind) EventType {
	switch k {
	case Added:
		return EventCreate
	case Deleted:
		return EventDelete
	default:
		return EventModify
	}
}

// Event reports one resource touched by a newly observed revision.
type Event struct {
	Type      EventType `json:"type" yaml:"type"`
	ID        string    `json:"id" yaml:"id"` // resource path
	Revision  string    `json:"revision" yaml:"revision"`
	Timestamp int64     `json:"timestamp" yaml:"timestamp"` // Unix timestamp of the revision
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s@%s", e.Type, e.ID, e.Revision)
}
