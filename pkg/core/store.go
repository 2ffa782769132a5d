package core

import "context"

// Store defines the contract of a versioned store of named resources.
// Adhering to this interface keeps callers independent of the underlying
// version-control system.
type Store interface {
	// Initialize creates a new empty store. It fails with ErrRepositoryExists
	// if one is already present at the location.
	Initialize(ctx context.Context) error

	// Save writes contents as the full content of path and commits it.
	// Byte-identical content fails with ErrUnchanged; a path escaping the
	// store root fails with ErrIllegalResourceName before anything is written.
	Save(ctx context.Context, path string, author Author, description string, contents []byte) error

	// Retrieve returns the contents of path as of revision, or of the current
	// snapshot when revision is empty.
	Retrieve(ctx context.Context, path string, revision string) ([]byte, error)

	// Delete removes path and commits the removal.
	Delete(ctx context.Context, path string, author Author, description string) error

	// Rename moves oldPath to newPath and commits the move.
	Rename(ctx context.Context, oldPath, newPath string, author Author, description string) error

	// LatestRevisionID returns the id of the last revision touching path.
	LatestRevisionID(ctx context.Context, path string) (string, error)

	// GetRevision returns the revision matching id.
	GetRevision(ctx context.Context, id string) (Revision, error)

	// ListIndex returns every live resource path. An empty store yields an empty list.
	ListIndex(ctx context.Context) ([]string, error)

	// ListDirectory returns the entries immediately inside path.
	ListDirectory(ctx context.Context, path string) ([]Entry, error)

	// History returns revisions touching any of paths (all resources when
	// paths is empty) inside tr, most recent first. limit <= 0 means no limit.
	History(ctx context.Context, paths []string, tr TimeRange, limit int) ([]Revision, error)

	// Search returns matching lines sorted by resource then line number.
	Search(ctx context.Context, q SearchQuery) ([]SearchMatch, error)

	// IDsMatch reports whether both ids denote the same snapshot.
	IDsMatch(id1, id2 string) bool
}

// Watchable defines stores able to report revisions made outside the caller,
// e.g. by another process or a push into the store.
type Watchable interface {
	// Watch emits one Event per change of every new revision whose path
	// matches pattern (doublestar syntax, empty matches everything).
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
