package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/verso/pkg/merge"
)

// EditedLabel names the caller's side in conflict blocks produced by Modify.
const EditedLabel = "edited"

// Service layers the backend-independent operations (Create, Modify, Diff)
// over any Store and validates arguments before they reach it.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new Service. A nil logger discards output.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, logger: logger}
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

func requirePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: path cannot be empty", ErrIllegalResourceName)
	}
	return nil
}

// requireWrite checks the arguments every write shares.
func requireWrite(author Author, paths ...string) error {
	for _, p := range paths {
		if err := requirePath(p); err != nil {
			return err
		}
	}
	return author.Validate()
}

// Create saves a resource that must not exist yet.
func (s *Service) Create(ctx context.Context, path string, author Author, description string, contents []byte) error {
	if err := requireWrite(author, path); err != nil {
		return err
	}
	_, err := s.store.LatestRevisionID(ctx, path)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrResourceExists, path)
	case errors.Is(err, ErrNotFound):
		return s.store.Save(ctx, path, author, description, contents)
	default:
		return err
	}
}

// Modify saves contents if expectedID is still the latest revision of path.
//
// A nil MergeInfo and nil error mean the change was committed. Otherwise
// someone else changed path since expectedID: contents are merged with the
// latest version and returned as a MergeInfo, and the store is left as is.
// To persist the merge, call Modify again with MergeInfo.Revision.ID.
// An empty expectedID means the caller started from an empty document.
func (s *Service) Modify(ctx context.Context, path, expectedID string, author Author, description string, contents []byte) (*MergeInfo, error) {
	if err := requireWrite(author, path); err != nil {
		return nil, err
	}

	latestID, err := s.store.LatestRevisionID(ctx, path)
	if err != nil {
		return nil, err
	}
	latest, err := s.store.GetRevision(ctx, latestID)
	if err != nil {
		return nil, err
	}

	if s.store.IDsMatch(expectedID, latest.ID) {
		return nil, s.store.Save(ctx, path, author, description, contents)
	}

	s.logger.Debug("concurrent update detected", "path", path, "expected", expectedID, "latest", latest.ID)

	latestText, err := s.store.Retrieve(ctx, path, latest.ID)
	if err != nil {
		return nil, err
	}
	var baseText []byte
	if expectedID != "" {
		if baseText, err = s.store.Retrieve(ctx, path, expectedID); err != nil {
			return nil, fmt.Errorf("failed to retrieve base revision %s: %w", expectedID, err)
		}
	}

	result := merge.Merge(EditedLabel, string(contents),
		merge.Version{ID: expectedID, Text: string(baseText)},
		merge.Version{ID: latest.ID, Text: string(latestText)},
	)
	return &MergeInfo{
		Revision:     latest,
		HasConflicts: result.HasConflicts,
		MergedText:   result.Text,
	}, nil
}

// Diff returns the line diff of path between two revisions. An empty oldID
// stands for an empty document, an empty newID for the current snapshot.
func (s *Service) Diff(ctx context.Context, path, oldID, newID string) ([]merge.Chunk, error) {
	if err := requirePath(path); err != nil {
		return nil, err
	}

	var oldText []byte
	if oldID != "" {
		var err error
		if oldText, err = s.store.Retrieve(ctx, path, oldID); err != nil {
			return nil, err
		}
	}
	newText, err := s.store.Retrieve(ctx, path, newID)
	if err != nil {
		return nil, err
	}
	return merge.Diff(string(oldText), string(newText)), nil
}

// Initialize creates the underlying store.
func (s *Service) Initialize(ctx context.Context) error {
	return s.store.Initialize(ctx)
}

// Save writes contents to path unconditionally (last writer wins).
func (s *Service) Save(ctx context.Context, path string, author Author, description string, contents []byte) error {
	if err := requireWrite(author, path); err != nil {
		return err
	}
	return s.store.Save(ctx, path, author, description, contents)
}

// Retrieve returns path at revision, or at the current snapshot when revision is empty.
func (s *Service) Retrieve(ctx context.Context, path, revision string) ([]byte, error) {
	if err := requirePath(path); err != nil {
		return nil, err
	}
	return s.store.Retrieve(ctx, path, revision)
}

// Delete removes path.
func (s *Service) Delete(ctx context.Context, path string, author Author, description string) error {
	if err := requireWrite(author, path); err != nil {
		return err
	}
	return s.store.Delete(ctx, path, author, description)
}

// Rename moves oldPath to newPath.
func (s *Service) Rename(ctx context.Context, oldPath, newPath string, author Author, description string) error {
	if err := requireWrite(author, oldPath, newPath); err != nil {
		return err
	}
	return s.store.Rename(ctx, oldPath, newPath, author, description)
}

func (s *Service) LatestRevisionID(ctx context.Context, path string) (string, error) {
	if err := requirePath(path); err != nil {
		return "", err
	}
	return s.store.LatestRevisionID(ctx, path)
}

func (s *Service) GetRevision(ctx context.Context, id string) (Revision, error) {
	if id == "" {
		return Revision{}, fmt.Errorf("%w: empty revision id", ErrNotFound)
	}
	return s.store.GetRevision(ctx, id)
}

func (s *Service) ListIndex(ctx context.Context) ([]string, error) {
	return s.store.ListIndex(ctx)
}

// ListDirectory lists the entries inside path; "" is the root.
func (s *Service) ListDirectory(ctx context.Context, path string) ([]Entry, error) {
	return s.store.ListDirectory(ctx, path)
}

// History returns revisions touching paths, most recent first.
func (s *Service) History(ctx context.Context, paths []string, tr TimeRange, limit int) ([]Revision, error) {
	for _, p := range paths {
		if err := requirePath(p); err != nil {
			return nil, err
		}
	}
	return s.store.History(ctx, paths, tr, limit)
}

func (s *Service) Search(ctx context.Context, q SearchQuery) ([]SearchMatch, error) {
	return s.store.Search(ctx, q)
}

func (s *Service) IDsMatch(id1, id2 string) bool {
	return s.store.IDsMatch(id1, id2)
}

// Watch observes new revisions if the store supports it.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.store.(Watchable)
	if !ok {
		return nil, errors.New("store does not support watching")
	}
	return w.Watch(ctx, pattern)
}
