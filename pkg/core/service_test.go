package core_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/verso/pkg/core"
	"github.com/aretw0/verso/pkg/merge"
)

// MockStore implements core.Store in memory. Every write appends a snapshot
// of all files. It does NOT implement core.Watchable.
type MockStore struct {
	snapshots []snapshot
	saves     int
}

type snapshot struct {
	rev   core.Revision
	files map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) current() map[string]string {
	if len(m.snapshots) == 0 {
		return map[string]string{}
	}
	return m.snapshots[len(m.snapshots)-1].files
}

func (m *MockStore) commit(author core.Author, desc string, files map[string]string, changes ...core.Change) {
	m.snapshots = append(m.snapshots, snapshot{
		rev: core.Revision{
			ID:          fmt.Sprintf("rev%04d", len(m.snapshots)+1),
			Timestamp:   time.Unix(int64(1700000000+len(m.snapshots)), 0).UTC(),
			Author:      author,
			Description: desc,
			Changes:     changes,
		},
		files: files,
	})
}

func (m *MockStore) find(id string) (snapshot, bool) {
	for _, s := range m.snapshots {
		if m.IDsMatch(s.rev.ID, id) {
			return s, true
		}
	}
	return snapshot{}, false
}

func (m *MockStore) Initialize(ctx context.Context) error { return nil }

func (m *MockStore) Save(ctx context.Context, path string, author core.Author, desc string, contents []byte) error {
	m.saves++
	files := maps.Clone(m.current())
	old, existed := files[path]
	if existed && old == string(contents) {
		return core.ErrUnchanged
	}
	files[path] = string(contents)
	kind := core.Added
	if existed {
		kind = core.Modified
	}
	m.commit(author, desc, files, core.Change{Kind: kind, Path: path})
	return nil
}

func (m *MockStore) Retrieve(ctx context.Context, path, revision string) ([]byte, error) {
	files := m.current()
	if revision != "" {
		s, ok := m.find(revision)
		if !ok {
			return nil, core.ErrNotFound
		}
		files = s.files
	}
	contents, ok := files[path]
	if !ok {
		return nil, core.ErrNotFound
	}
	return []byte(contents), nil
}

func (m *MockStore) Delete(ctx context.Context, path string, author core.Author, desc string) error {
	files := maps.Clone(m.current())
	if _, ok := files[path]; !ok {
		return core.ErrNotFound
	}
	delete(files, path)
	m.commit(author, desc, files, core.Change{Kind: core.Deleted, Path: path})
	return nil
}

func (m *MockStore) Rename(ctx context.Context, oldPath, newPath string, author core.Author, desc string) error {
	files := maps.Clone(m.current())
	contents, ok := files[oldPath]
	if !ok {
		return core.ErrNotFound
	}
	delete(files, oldPath)
	files[newPath] = contents
	m.commit(author, desc, files,
		core.Change{Kind: core.Deleted, Path: oldPath},
		core.Change{Kind: core.Added, Path: newPath})
	return nil
}

func (m *MockStore) LatestRevisionID(ctx context.Context, path string) (string, error) {
	if _, ok := m.current()[path]; !ok {
		return "", core.ErrNotFound
	}
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		for _, c := range m.snapshots[i].rev.Changes {
			if c.Path == path {
				return m.snapshots[i].rev.ID, nil
			}
		}
	}
	return "", core.ErrNotFound
}

func (m *MockStore) GetRevision(ctx context.Context, id string) (core.Revision, error) {
	s, ok := m.find(id)
	if !ok {
		return core.Revision{}, core.ErrNotFound
	}
	return s.rev, nil
}

func (m *MockStore) ListIndex(ctx context.Context) ([]string, error) {
	return slices.Sorted(maps.Keys(m.current())), nil
}

func (m *MockStore) ListDirectory(ctx context.Context, path string) ([]core.Entry, error) {
	var entries []core.Entry
	for _, p := range slices.Sorted(maps.Keys(m.current())) {
		if !strings.Contains(p, "/") {
			entries = append(entries, core.Entry{Name: p})
		}
	}
	return entries, nil
}

func (m *MockStore) History(ctx context.Context, paths []string, tr core.TimeRange, limit int) ([]core.Revision, error) {
	var revs []core.Revision
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if tr.Contains(m.snapshots[i].rev.Timestamp) {
			revs = append(revs, m.snapshots[i].rev)
		}
	}
	return revs, nil
}

func (m *MockStore) Search(ctx context.Context, q core.SearchQuery) ([]core.SearchMatch, error) {
	return nil, nil
}

func (m *MockStore) IDsMatch(id1, id2 string) bool {
	if id1 == "" || id2 == "" {
		return id1 == id2
	}
	return strings.HasPrefix(id1, id2) || strings.HasPrefix(id2, id1)
}

var ada = core.Author{Name: "Ada", Email: "ada@example.com"}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	svc := core.NewService(store, nil)

	require.NoError(t, svc.Create(ctx, "a.txt", ada, "create", []byte("a")))
	id, err := svc.LatestRevisionID(ctx, "a.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	err = svc.Create(ctx, "a.txt", ada, "again", []byte("b"))
	assert.ErrorIs(t, err, core.ErrResourceExists)

	got, err := svc.Retrieve(ctx, "a.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))

	err = svc.Create(ctx, "", ada, "", []byte("x"))
	assert.ErrorIs(t, err, core.ErrIllegalResourceName)
}

// failingStore fails the probe with an error that is neither success nor NotFound.
type failingStore struct {
	*MockStore
}

func (f failingStore) LatestRevisionID(ctx context.Context, path string) (string, error) {
	return "", core.Unknown("latest", "disk on fire", nil)
}

func TestService_Create_PropagatesProbeFailure(t *testing.T) {
	store := failingStore{NewMockStore()}
	svc := core.NewService(store, nil)

	err := svc.Create(context.Background(), "a.txt", ada, "", []byte("a"))
	assert.ErrorIs(t, err, core.ErrUnknown)
	assert.Zero(t, store.saves, "save must not run after a failed probe")
}

func TestService_Modify(t *testing.T) {
	base := "a\nb\nc\nd\ne\n"

	t.Run("Current Expected ID Commits", func(t *testing.T) {
		ctx := context.Background()
		svc := core.NewService(NewMockStore(), nil)
		require.NoError(t, svc.Create(ctx, "doc", ada, "", []byte(base)))
		id, err := svc.LatestRevisionID(ctx, "doc")
		require.NoError(t, err)

		info, err := svc.Modify(ctx, "doc", id[:5], ada, "edit", []byte("a\nB\nc\nd\ne\n"))
		require.NoError(t, err)
		assert.Nil(t, info)

		got, err := svc.Retrieve(ctx, "doc", "")
		require.NoError(t, err)
		assert.Equal(t, "a\nB\nc\nd\ne\n", string(got))
	})

	t.Run("Stale Disjoint Edits Merge Cleanly", func(t *testing.T) {
		ctx := context.Background()
		store := NewMockStore()
		svc := core.NewService(store, nil)
		require.NoError(t, svc.Create(ctx, "doc", ada, "", []byte(base)))
		stale, _ := svc.LatestRevisionID(ctx, "doc")
		require.NoError(t, svc.Save(ctx, "doc", ada, "theirs", []byte("A\nb\nc\nd\ne\n")))
		latest, _ := svc.LatestRevisionID(ctx, "doc")
		saves := store.saves

		info, err := svc.Modify(ctx, "doc", stale, ada, "mine", []byte("a\nb\nc\nd\nE\n"))
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.False(t, info.HasConflicts)
		assert.Equal(t, "A\nb\nc\nd\nE\n", info.MergedText)
		assert.Equal(t, latest, info.Revision.ID)
		assert.Equal(t, "theirs", info.Revision.Description)

		assert.Equal(t, saves, store.saves, "the store must be left unchanged")
		got, _ := svc.Retrieve(ctx, "doc", "")
		assert.Equal(t, "A\nb\nc\nd\ne\n", string(got))

		// Resubmitting against the latest id persists the merge.
		info, err = svc.Modify(ctx, "doc", info.Revision.ID, ada, "merged", []byte(info.MergedText))
		require.NoError(t, err)
		assert.Nil(t, info)
		got, _ = svc.Retrieve(ctx, "doc", "")
		assert.Equal(t, "A\nb\nc\nd\nE\n", string(got))
	})

	t.Run("Stale Overlapping Edits Conflict", func(t *testing.T) {
		ctx := context.Background()
		svc := core.NewService(NewMockStore(), nil)
		require.NoError(t, svc.Create(ctx, "doc", ada, "", []byte(base)))
		stale, _ := svc.LatestRevisionID(ctx, "doc")
		require.NoError(t, svc.Save(ctx, "doc", ada, "theirs", []byte("a\nb\nY\nd\ne\n")))
		latest, _ := svc.LatestRevisionID(ctx, "doc")

		info, err := svc.Modify(ctx, "doc", stale, ada, "mine", []byte("a\nb\nX\nd\ne\n"))
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.True(t, info.HasConflicts)
		assert.Equal(t,
			"a\nb\n"+merge.MarkerStart+core.EditedLabel+"\nX\n"+merge.MarkerSeparator+"\nY\n"+merge.MarkerEnd+latest+"\nd\ne\n",
			info.MergedText)
	})

	t.Run("Empty Expected ID Merges Against Empty Document", func(t *testing.T) {
		ctx := context.Background()
		svc := core.NewService(NewMockStore(), nil)
		require.NoError(t, svc.Create(ctx, "doc", ada, "", []byte("theirs\n")))

		info, err := svc.Modify(ctx, "doc", "", ada, "", []byte("mine\n"))
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.True(t, info.HasConflicts)
	})

	t.Run("Missing Resource", func(t *testing.T) {
		svc := core.NewService(NewMockStore(), nil)
		_, err := svc.Modify(context.Background(), "nope", "rev0001", ada, "", []byte("x"))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Unchanged Content", func(t *testing.T) {
		ctx := context.Background()
		svc := core.NewService(NewMockStore(), nil)
		require.NoError(t, svc.Create(ctx, "doc", ada, "", []byte(base)))
		id, _ := svc.LatestRevisionID(ctx, "doc")

		info, err := svc.Modify(ctx, "doc", id, ada, "", []byte(base))
		assert.Nil(t, info)
		assert.True(t, errors.Is(err, core.ErrUnchanged))
	})
}

func TestService_Diff(t *testing.T) {
	ctx := context.Background()
	svc := core.NewService(NewMockStore(), nil)
	require.NoError(t, svc.Create(ctx, "doc", ada, "", []byte("a\nb\n")))
	first, _ := svc.LatestRevisionID(ctx, "doc")
	require.NoError(t, svc.Save(ctx, "doc", ada, "", []byte("a\nc\n")))

	fromEmpty, err := svc.Diff(ctx, "doc", "", first)
	require.NoError(t, err)
	assert.Equal(t, merge.Diff("", "a\nb\n"), fromEmpty)

	toCurrent, err := svc.Diff(ctx, "doc", first, "")
	require.NoError(t, err)
	assert.Equal(t, merge.Diff("a\nb\n", "a\nc\n"), toCurrent)
	assert.Equal(t, " a\n-b\n+c\n", merge.Format(toCurrent))

	_, err = svc.Diff(ctx, "doc", "rev9999", "")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_PassThroughs(t *testing.T) {
	ctx := context.Background()
	svc := core.NewService(NewMockStore(), nil)
	require.NoError(t, svc.Initialize(ctx))
	require.NoError(t, svc.Save(ctx, "a.txt", ada, "", []byte("a")))
	require.NoError(t, svc.Rename(ctx, "a.txt", "b.txt", ada, "move"))

	index, err := svc.ListIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt"}, index)

	require.NoError(t, svc.Delete(ctx, "b.txt", ada, "drop"))
	revs, err := svc.History(ctx, nil, core.TimeRange{}, 0)
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.Equal(t, "drop", revs[0].Description)

	_, err = svc.History(ctx, []string{""}, core.TimeRange{}, 0)
	assert.ErrorIs(t, err, core.ErrIllegalResourceName)
	assert.ErrorIs(t, svc.Rename(ctx, "", "x", ada, ""), core.ErrIllegalResourceName)
	_, err = svc.GetRevision(ctx, "")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.True(t, svc.IDsMatch("abcde", "abcde5553"))
	assert.False(t, svc.IDsMatch("abcde", "abedc"))

	_, err = svc.Watch(ctx, "")
	assert.Error(t, err, "MockStore is not watchable")
}

func TestService_RejectsIllegalAuthor(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	svc := core.NewService(store, nil)
	require.NoError(t, svc.Save(ctx, "a.txt", ada, "", []byte("a")))
	base, err := svc.LatestRevisionID(ctx, "a.txt")
	require.NoError(t, err)

	authors := map[string]core.Author{
		"empty":         {},
		"no email":      {Name: "Ada"},
		"blank name":    {Name: "  ", Email: "ada@example.com"},
		"angle bracket": {Name: "Ada <x>", Email: "ada@example.com"},
		"line break":    {Name: "Ada", Email: "ada@example.com\nX"},
	}
	for name, author := range authors {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, svc.Save(ctx, "b.txt", author, "", []byte("b")), core.ErrIllegalAuthor)
			assert.ErrorIs(t, svc.Create(ctx, "b.txt", author, "", []byte("b")), core.ErrIllegalAuthor)
			_, err := svc.Modify(ctx, "a.txt", base, author, "", []byte("A"))
			assert.ErrorIs(t, err, core.ErrIllegalAuthor)
			assert.ErrorIs(t, svc.Delete(ctx, "a.txt", author, ""), core.ErrIllegalAuthor)
			assert.ErrorIs(t, svc.Rename(ctx, "a.txt", "c.txt", author, ""), core.ErrIllegalAuthor)
		})
	}

	// Nothing reached the store after the first save.
	assert.Equal(t, 1, store.saves)
	assert.Len(t, store.snapshots, 1)
}

func TestService_State(t *testing.T) {
	svc := core.NewService(NewMockStore(), nil)
	state, ok := svc.State().(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, "store", state.StoreType)
	assert.False(t, state.Watchable)
	assert.Equal(t, "service", svc.ComponentType())
}

func TestUnknownError(t *testing.T) {
	cause := errors.New("exit status 128")
	err := fmt.Errorf("wrapped: %w", core.Unknown("log", "fatal: bad revision", cause))

	assert.ErrorIs(t, err, core.ErrUnknown)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, core.ErrNotFound)

	var ue *core.UnknownError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "log", ue.Op)
	assert.Contains(t, err.Error(), "fatal: bad revision")
}
