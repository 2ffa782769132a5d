package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/verso/pkg/core"
)

const (
	defaultEventBuffer = 100
	watchDebounce      = 50 * time.Millisecond
)

// Watch reports every change of each revision committed after the call,
// whoever made it: this process, another one, or a push into the store.
// Only paths matching pattern (doublestar syntax, empty for all) are
// reported. The channel is closed when ctx is done.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}
	if !r.git.IsRepo() {
		return nil, fmt.Errorf("%w: no repository at %s", core.ErrNotFound, r.Path)
	}

	buffer := r.config.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	events := make(chan core.Event, buffer)

	w := newWatchWorker(r, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	lifecycle.Go(ctx, func(context.Context) error {
		<-w.done
		close(events)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		r.logger.Error("watch shutdown failed", "error", err)
	}))
	return events, nil
}

var _ core.Watchable = (*Repository)(nil)

// watchWorker follows the branch refs of the repository and turns each new
// commit into events.
type watchWorker struct {
	*worker.BaseWorker
	repo    *Repository
	pattern string
	events  chan<- core.Event
	done    chan struct{}
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	last    string // newest revision already reported
}

func newWatchWorker(repo *Repository, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("verso-watcher"),
		repo:       repo,
		pattern:    pattern,
		events:     events,
		done:       make(chan struct{}),
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	gitDir := filepath.Join(w.repo.Path, ".git")
	for _, dir := range []string{gitDir, filepath.Join(gitDir, "refs", "heads")} {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	head, err := w.repo.head(ctx)
	if err != nil {
		_ = watcher.Close()
		return err
	}
	w.last = head
	w.repo.setLastSeen(head)

	w.watcher = watcher
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// run is the main event loop. Ref updates are debounced: a commit touches
// several files under .git in quick succession.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.repo.logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer close(w.done)
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if !isRefUpdate(event.Name) {
				continue
			}
			logger.Debug("ref event", "name", event.Name, "op", event.Op.String())
			timer.Reset(watchDebounce)

		case <-timer.C:
			if err := w.poll(ctx); err != nil && ctx.Err() == nil {
				w.report(err)
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.report(wErr)
		}
	}
}

func (w *watchWorker) report(err error) {
	w.repo.logger.Error("watcher error", "error", err)
	if w.repo.config.ErrorHandler != nil {
		w.repo.config.ErrorHandler(err)
	}
}

// isRefUpdate keeps HEAD, packed-refs and branch refs. Lock files are
// transient and index churn does not move the history.
func isRefUpdate(name string) bool {
	base := filepath.Base(name)
	if strings.HasSuffix(base, ".lock") {
		return false
	}
	if base == "HEAD" || base == "packed-refs" {
		return true
	}
	return filepath.Base(filepath.Dir(name)) == "heads"
}

// poll emits the events of every commit between the last seen head and the
// current one, oldest first.
func (w *watchWorker) poll(ctx context.Context) error {
	head, err := w.repo.head(ctx)
	if err != nil {
		return err
	}
	if head == "" || head == w.last {
		return nil
	}

	rangeArg := head
	if w.last != "" {
		rangeArg = w.last + ".." + head
	}
	out, err := w.repo.git.Run(ctx, logArgs(rangeArg, "--")...)
	if err != nil {
		return unknown("watch", err)
	}
	revs, err := parseLog(strings.NewReader(out), w.repo.warnStatus)
	if err != nil {
		return core.Unknown("watch", "unparseable log output", err)
	}
	slices.Reverse(revs)

	for _, rev := range revs {
		for _, change := range rev.Changes {
			if !w.matches(change.Path) {
				continue
			}
			event := core.Event{
				Type:      core.EventTypeFor(change.Kind),
				ID:        change.Path,
				Revision:  rev.ID,
				Timestamp: rev.Timestamp.Unix(),
			}
			select {
			case w.events <- event:
			case <-ctx.Done():
				return nil
			}
		}
	}
	w.last = head
	w.repo.setLastSeen(head)
	return nil
}

func (w *watchWorker) matches(p string) bool {
	if w.pattern == "" {
		return true
	}
	ok, err := doublestar.Match(w.pattern, p)
	return err == nil && ok
}

// head returns the current HEAD commit, or "" before the first commit.
func (r *Repository) head(ctx context.Context) (string, error) {
	ok, err := r.hasHead(ctx)
	if err != nil || !ok {
		return "", err
	}
	out, err := r.git.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", unknown("rev-parse", err)
	}
	return strings.TrimSpace(out), nil
}
