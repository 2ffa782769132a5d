package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/verso/internal/platform"
	"github.com/aretw0/verso/pkg/adapters/fs"
	"github.com/aretw0/verso/pkg/core"
	"github.com/aretw0/verso/pkg/git"
)

func TestInit(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}

	t.Run("Creates Directory and Git Repo", func(t *testing.T) {
		storePath := filepath.Join(t.TempDir(), "store")

		store, err := platform.Init(storePath, platform.WithHook(true))
		require.NoError(t, err)

		repo, ok := store.(*fs.Repository)
		require.True(t, ok, "expected fs repository")
		assert.Equal(t, storePath, repo.Path)

		_, err = os.Stat(filepath.Join(storePath, ".git"))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(storePath, ".git", "hooks", "post-update"))
		assert.NoError(t, err)
	})

	t.Run("Fails on Existing Store", func(t *testing.T) {
		storePath := filepath.Join(t.TempDir(), "store")
		_, err := platform.Init(storePath)
		require.NoError(t, err)

		_, err = platform.Init(storePath)
		assert.ErrorIs(t, err, core.ErrRepositoryExists)
	})
}

func TestOpen(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}

	t.Run("Missing Store Without AutoInit", func(t *testing.T) {
		_, err := platform.Open(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("AutoInit Creates Store Once", func(t *testing.T) {
		storePath := filepath.Join(t.TempDir(), "store")

		_, err := platform.Open(storePath, platform.WithAutoInit(true))
		require.NoError(t, err)

		// A second open reuses the store instead of failing.
		_, err = platform.Open(storePath, platform.WithAutoInit(true))
		require.NoError(t, err)
	})
}

func TestNew(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	author := core.Author{Name: "Ada", Email: "ada@example.com"}

	svc, err := platform.New(filepath.Join(t.TempDir(), "store"), platform.WithAutoInit(true))
	require.NoError(t, err)

	require.NoError(t, svc.Create(ctx, "hello.md", author, "create", []byte("hi\n")))
	err = svc.Create(ctx, "hello.md", author, "again", []byte("hi\n"))
	assert.ErrorIs(t, err, core.ErrResourceExists)

	state, ok := svc.State().(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, "repository", state.StoreType)
	assert.True(t, state.Watchable)
}

func TestNew_InjectedStore(t *testing.T) {
	injected := fs.NewRepository(fs.Config{Path: t.TempDir()})

	svc, err := platform.New("ignored", platform.WithStore(injected))
	require.NoError(t, err)
	assert.Same(t, injected, svc.Store())
}

func TestDevSafety(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	// Under `go test` a relative path is re-rooted into the temp directory.
	name := "verso-safety-" + filepath.Base(t.TempDir())
	store, err := platform.Init(name)
	require.NoError(t, err)

	repo := store.(*fs.Repository)
	t.Cleanup(func() { os.RemoveAll(repo.Path) })
	assert.Equal(t, filepath.Join(os.TempDir(), "verso-dev", name), repo.Path)

	_, err = os.Stat(name)
	assert.True(t, os.IsNotExist(err), "the real working directory must stay untouched")
}
