package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/verso/pkg/core"
	"github.com/aretw0/verso/pkg/git"
)

// Repository implements core.Store on a git working tree, one file per
// resource. Every call goes to git: nothing is cached between calls.
type Repository struct {
	Path   string
	git    *git.Client
	config Config
	logger *slog.Logger

	mu            sync.RWMutex
	watcherActive bool
	lastSeen      string
}

// Config holds the configuration for the git-backed repository.
type Config struct {
	Path        string
	Binary      string // git executable, "git" when empty
	Logger      *slog.Logger
	LockName    string // lock file inside .git, "verso.lock" when empty
	InstallHook bool   // install the post-update hook on Initialize
	EventBuffer int    // capacity of Watch channels

	// ErrorHandler receives failures of the background watcher.
	ErrorHandler func(error)
}

// NewRepository creates a new git-backed repository rooted at config.Path.
func NewRepository(config Config) *Repository {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	client := git.NewClient(config.Path, config.LockName, logger)
	if config.Binary != "" {
		client.Binary = config.Binary
	}
	return &Repository{
		Path:   config.Path,
		git:    client,
		config: config,
		logger: logger,
	}
}

// unknown wraps a git failure, keeping its stderr as detail.
func unknown(op string, err error) error {
	return core.Unknown(op, git.Stderr(err), err)
}

// Initialize creates the root directory if needed and an empty repository in it.
func (r *Repository) Initialize(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(r.Path, ".git")); err == nil {
		return fmt.Errorf("%w: %s", core.ErrRepositoryExists, r.Path)
	}
	if err := os.MkdirAll(r.Path, 0o755); err != nil {
		return core.Unknown("initialize", "failed to create store directory", err)
	}
	if err := r.git.Init(ctx); err != nil {
		return unknown("initialize", err)
	}
	// Pushes into this non-bare repository are accepted; the hook refreshes the tree.
	if _, err := r.git.Run(ctx, "config", "receive.denyCurrentBranch", "ignore"); err != nil {
		return unknown("initialize", err)
	}
	if r.config.InstallHook {
		if err := r.installHook(); err != nil {
			return core.Unknown("initialize", "", err)
		}
	}
	r.logger.Debug("store initialized", "path", r.Path)
	return nil
}

// Save writes contents to path and commits exactly that path.
func (r *Repository) Save(ctx context.Context, p string, author core.Author, description string, contents []byte) (err error) {
	rel, err := resolvePath(r.Path, p)
	if err != nil {
		return err
	}
	if err := author.Validate(); err != nil {
		return err
	}

	unlock, err := r.git.Lock(ctx)
	if err != nil {
		return core.Unknown("save", "failed to acquire store lock", err)
	}
	defer unlock()

	fullPath := filepath.Join(r.Path, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return core.Unknown("save", "failed to create directories", err)
	}
	if err := writeFileAtomic(fullPath, contents); err != nil {
		return core.Unknown("save", "failed to write file", err)
	}
	defer func() {
		if err != nil && !errors.Is(err, core.ErrUnchanged) {
			r.restore(ctx, rel)
		}
	}()

	if err := r.git.Add(ctx, rel); err != nil {
		return unknown("save", err)
	}

	changed, err := r.stagedChanges(ctx, rel)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("%w: %s", core.ErrUnchanged, rel)
	}

	if err := r.git.Commit(ctx, author.Name, author.Email, description, rel); err != nil {
		return unknown("save", err)
	}
	r.logger.Debug("resource saved", "path", rel)
	return nil
}

// restore returns paths to their HEAD state after a write failed before its
// commit: tracked paths are checked out again, the others are unstaged and
// removed along with any directories left empty. It runs even when ctx is done.
func (r *Repository) restore(ctx context.Context, paths ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, p := range paths {
		if err := r.restorePath(ctx, p); err != nil {
			r.logger.Error("failed to restore path after failed write", "path", p, "error", err)
		}
	}
	if status, err := r.git.Status(ctx, paths...); err != nil || status != "" {
		r.logger.Warn("store not clean after failed write", "paths", paths, "status", status, "error", err)
	}
}

func (r *Repository) restorePath(ctx context.Context, rel string) error {
	tracked, err := r.isBlob(ctx, "HEAD:"+rel)
	if err != nil {
		return err
	}
	if tracked {
		if _, err := r.git.Run(ctx, "checkout", "HEAD", "--", rel); err != nil {
			return unknown("restore", err)
		}
		return nil
	}

	if _, err := r.git.Run(ctx, "rm", "--cached", "-q", "--ignore-unmatch", "--", rel); err != nil {
		return unknown("restore", err)
	}
	full := filepath.Join(r.Path, filepath.FromSlash(rel))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	root := filepath.Clean(r.Path)
	for dir := filepath.Dir(full); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

// stagedChanges reports whether the index differs from HEAD for paths.
func (r *Repository) stagedChanges(ctx context.Context, paths ...string) (bool, error) {
	args := append([]string{"diff", "--cached", "--quiet", "--"}, paths...)
	_, err := r.git.Run(ctx, args...)
	switch {
	case err == nil:
		return false, nil
	case git.ExitCode(err) == 1:
		return true, nil
	default:
		return false, unknown("diff", err)
	}
}

// Retrieve returns the bytes of path at revision ("" for the current snapshot).
func (r *Repository) Retrieve(ctx context.Context, p string, revision string) ([]byte, error) {
	rel, err := resolvePath(r.Path, p)
	if err != nil {
		return nil, err
	}
	if revision == "" {
		revision = "HEAD"
	}
	if strings.HasPrefix(revision, "-") {
		return nil, fmt.Errorf("%w: revision %q", core.ErrNotFound, revision)
	}

	object := revision + ":" + rel
	isBlob, err := r.isBlob(ctx, object)
	if err != nil {
		return nil, err
	}
	if !isBlob {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, object)
	}

	out, err := r.git.Run(ctx, "cat-file", "-p", object)
	if err != nil {
		return nil, unknown("retrieve", err)
	}
	return []byte(out), nil
}

// isBlob reports whether object names a file. Unknown revisions, absent
// paths and directories all report false.
func (r *Repository) isBlob(ctx context.Context, object string) (bool, error) {
	out, err := r.git.Run(ctx, "cat-file", "-t", object)
	if err != nil {
		if git.ExitCode(err) > 0 {
			return false, nil
		}
		return false, unknown("cat-file", err)
	}
	return strings.TrimSpace(out) == "blob", nil
}

// Delete removes path from the store and commits the removal.
func (r *Repository) Delete(ctx context.Context, p string, author core.Author, description string) (err error) {
	rel, err := resolvePath(r.Path, p)
	if err != nil {
		return err
	}
	if err := author.Validate(); err != nil {
		return err
	}

	unlock, err := r.git.Lock(ctx)
	if err != nil {
		return core.Unknown("delete", "failed to acquire store lock", err)
	}
	defer unlock()

	tracked, err := r.isBlob(ctx, "HEAD:"+rel)
	if err != nil {
		return err
	}
	if !tracked {
		return fmt.Errorf("%w: %s", core.ErrNotFound, rel)
	}

	defer func() {
		if err != nil {
			r.restore(ctx, rel)
		}
	}()
	if err := r.git.Rm(ctx, rel); err != nil {
		return unknown("delete", err)
	}
	if err := r.git.Commit(ctx, author.Name, author.Email, description, rel); err != nil {
		return unknown("delete", err)
	}
	r.logger.Debug("resource deleted", "path", rel)
	return nil
}

// Rename moves oldPath to newPath in a single commit.
func (r *Repository) Rename(ctx context.Context, oldPath, newPath string, author core.Author, description string) (err error) {
	from, err := resolvePath(r.Path, oldPath)
	if err != nil {
		return err
	}
	to, err := resolvePath(r.Path, newPath)
	if err != nil {
		return err
	}
	if err := author.Validate(); err != nil {
		return err
	}

	unlock, err := r.git.Lock(ctx)
	if err != nil {
		return core.Unknown("rename", "failed to acquire store lock", err)
	}
	defer unlock()

	tracked, err := r.isBlob(ctx, "HEAD:"+from)
	if err != nil {
		return err
	}
	if !tracked {
		return fmt.Errorf("%w: %s", core.ErrNotFound, from)
	}
	if _, err := os.Lstat(filepath.Join(r.Path, filepath.FromSlash(to))); err == nil {
		return fmt.Errorf("%w: %s", core.ErrResourceExists, to)
	}

	if err := os.MkdirAll(filepath.Dir(filepath.Join(r.Path, filepath.FromSlash(to))), 0o755); err != nil {
		return core.Unknown("rename", "failed to create directories", err)
	}
	defer func() {
		if err != nil {
			r.restore(ctx, from, to)
		}
	}()
	if err := r.git.Mv(ctx, from, to); err != nil {
		return unknown("rename", err)
	}
	if err := r.git.Commit(ctx, author.Name, author.Email, description, from, to); err != nil {
		return unknown("rename", err)
	}
	r.logger.Debug("resource renamed", "from", from, "to", to)
	return nil
}

// LatestRevisionID returns the id of the most recent revision touching path.
// Paths absent from the current snapshot are not found.
func (r *Repository) LatestRevisionID(ctx context.Context, p string) (string, error) {
	rel, err := resolvePath(r.Path, p)
	if err != nil {
		return "", err
	}
	if _, err := r.git.Run(ctx, "cat-file", "-e", "HEAD:"+rel); err != nil {
		if git.ExitCode(err) > 0 {
			return "", fmt.Errorf("%w: %s", core.ErrNotFound, rel)
		}
		return "", unknown("latest", err)
	}

	out, err := r.git.Run(ctx, "rev-list", "--max-count=1", "HEAD", "--", rel)
	if err != nil {
		return "", unknown("latest", err)
	}
	id := strings.TrimSpace(out)
	if id == "" {
		return "", fmt.Errorf("%w: %s", core.ErrNotFound, rel)
	}
	return id, nil
}

// GetRevision returns the revision identified by id (or any unique prefix).
func (r *Repository) GetRevision(ctx context.Context, id string) (core.Revision, error) {
	if id == "" || strings.HasPrefix(id, "-") {
		return core.Revision{}, fmt.Errorf("%w: revision %q", core.ErrNotFound, id)
	}
	out, err := r.git.Run(ctx, logArgs("--max-count=1", id, "--")...)
	if err != nil {
		if git.ExitCode(err) > 0 {
			return core.Revision{}, fmt.Errorf("%w: revision %q", core.ErrNotFound, id)
		}
		return core.Revision{}, unknown("revision", err)
	}

	revs, err := parseLog(strings.NewReader(out), r.warnStatus)
	if err != nil {
		return core.Revision{}, core.Unknown("revision", "unparseable log output", err)
	}
	switch len(revs) {
	case 0:
		return core.Revision{}, fmt.Errorf("%w: revision %q", core.ErrNotFound, id)
	case 1:
		return revs[0], nil
	default:
		return core.Revision{}, core.Unknown("revision", fmt.Sprintf("%d revisions for %q", len(revs), id), nil)
	}
}

func (r *Repository) warnStatus(status byte, p string) {
	r.logger.Warn("unknown change status, recording as modified", "status", string(status), "path", p)
}

// hasHead reports whether at least one revision exists.
func (r *Repository) hasHead(ctx context.Context) (bool, error) {
	_, err := r.git.Run(ctx, "rev-parse", "--verify", "-q", "HEAD")
	switch {
	case err == nil:
		return true, nil
	case git.ExitCode(err) > 0:
		return false, nil
	default:
		return false, unknown("rev-parse", err)
	}
}

// ListIndex returns every resource path of the current snapshot.
func (r *Repository) ListIndex(ctx context.Context) ([]string, error) {
	ok, err := r.hasHead(ctx)
	if err != nil || !ok {
		return []string{}, err
	}
	out, err := r.git.Run(ctx, "ls-tree", "-r", "-z", "--name-only", "HEAD")
	if err != nil {
		return nil, unknown("index", err)
	}
	paths := []string{}
	for _, name := range strings.Split(out, fieldSeparator) {
		if name != "" {
			paths = append(paths, name)
		}
	}
	return paths, nil
}

// ListDirectory returns the entries immediately inside dir. The empty path
// and "." name the root.
func (r *Repository) ListDirectory(ctx context.Context, dir string) ([]core.Entry, error) {
	root := dir == "" || dir == "." || dir == "/"
	var rel string
	if !root {
		var err error
		if rel, err = resolvePath(r.Path, dir); err != nil {
			return nil, err
		}
	}

	ok, err := r.hasHead(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		if root {
			return []core.Entry{}, nil
		}
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, rel)
	}

	args := []string{"ls-tree", "-z", "HEAD"}
	if !root {
		args = append(args, "--", rel+"/")
	}
	out, err := r.git.Run(ctx, args...)
	if err != nil {
		return nil, unknown("list", err)
	}

	entries, err := parseTree(out)
	if err != nil {
		return nil, core.Unknown("list", "unparseable tree output", err)
	}
	if !root && len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, rel)
	}
	return entries, nil
}

// parseTree reads `mode SP type SP object TAB path` records separated by NUL.
func parseTree(out string) ([]core.Entry, error) {
	entries := []core.Entry{}
	for _, record := range strings.Split(out, fieldSeparator) {
		if record == "" {
			continue
		}
		meta, name, ok := strings.Cut(record, "\t")
		if !ok {
			return nil, fmt.Errorf("tree entry without a name: %q", record)
		}
		fields := strings.Fields(meta)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed tree entry: %q", record)
		}
		entries = append(entries, core.Entry{
			Name:        path.Base(name),
			IsDirectory: fields[1] == "tree",
		})
	}
	return entries, nil
}

// History returns the revisions touching paths inside tr, most recent first.
func (r *Repository) History(ctx context.Context, paths []string, tr core.TimeRange, limit int) ([]core.Revision, error) {
	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := resolvePath(r.Path, p)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}

	ok, err := r.hasHead(ctx)
	if err != nil || !ok {
		return []core.Revision{}, err
	}

	out, err := r.git.Run(ctx, historyArgs(rels, tr, limit)...)
	if err != nil {
		return nil, unknown("history", err)
	}
	revs, err := parseLog(strings.NewReader(out), r.warnStatus)
	if err != nil {
		return nil, core.Unknown("history", "unparseable log output", err)
	}
	if revs == nil {
		revs = []core.Revision{}
	}
	return revs, nil
}

// Search returns the lines of current resources matching q.
func (r *Repository) Search(ctx context.Context, q core.SearchQuery) ([]core.SearchMatch, error) {
	if len(q.Patterns) == 0 {
		return []core.SearchMatch{}, nil
	}
	out, err := r.git.Run(ctx, searchArgs(q)...)
	if err != nil {
		if git.ExitCode(err) == 1 {
			return []core.SearchMatch{}, nil
		}
		return nil, unknown("search", err)
	}
	matches, err := parseSearch(out)
	if err != nil {
		return nil, core.Unknown("search", "unparseable grep output", err)
	}
	return matches, nil
}

// IDsMatch treats ids as equal when one is a prefix of the other, so
// abbreviated hashes match their full form. Empty ids only match each other.
func (r *Repository) IDsMatch(id1, id2 string) bool {
	return IDsMatch(id1, id2)
}

// IDsMatch is the prefix equivalence used by Repository.
func IDsMatch(id1, id2 string) bool {
	if id1 == "" || id2 == "" {
		return id1 == id2
	}
	return strings.HasPrefix(id1, id2) || strings.HasPrefix(id2, id1)
}

var _ core.Store = (*Repository)(nil)
