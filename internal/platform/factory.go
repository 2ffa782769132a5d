package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/verso/pkg/adapters/fs"
	"github.com/aretw0/verso/pkg/core"
)

// New opens the store at path and wraps it in a Service.
//
//	svc, err := verso.New("./store", verso.WithAutoInit(true))
func New(path string, opts ...Option) (*core.Service, error) {
	o := parseOptions(opts)
	store, err := open(context.Background(), path, o)
	if err != nil {
		return nil, err
	}
	return core.NewService(store, o.logger), nil
}

// Init creates a new store at path. It fails with core.ErrRepositoryExists
// if one is already there.
func Init(path string, opts ...Option) (core.Store, error) {
	o := parseOptions(opts)
	var store core.Store = o.store
	if store == nil {
		store = buildStore(path, o)
	}
	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// Open returns the existing store at path. With WithAutoInit(true) a missing
// store is created instead of reported as core.ErrNotFound.
func Open(path string, opts ...Option) (core.Store, error) {
	return open(context.Background(), path, parseOptions(opts))
}

func parseOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func open(ctx context.Context, path string, o *options) (core.Store, error) {
	if o.store != nil {
		return o.store, nil
	}

	store := buildStore(path, o)
	if _, err := os.Stat(filepath.Join(store.Path, ".git")); err == nil {
		return store, nil
	}

	if autoInit, _ := o.config["auto_init"].(bool); !autoInit {
		return nil, fmt.Errorf("%w: no store at %s", core.ErrNotFound, store.Path)
	}
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// buildStore resolves the store path and configures the git adapter.
func buildStore(path string, o *options) *fs.Repository {
	tempDir, _ := o.config["temp_dir"].(bool)
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}
	useTemp := tempDir || (devSafety && IsDevRun())
	resolved := ResolveStorePath(path, useTemp)

	if o.logger != nil && resolved != path && useTemp {
		o.logger.Warn("running in SAFE MODE (dev/test)", "original_path", path, "resolved_path", resolved)
	}

	binary, _ := o.config["binary"].(string)
	lockName, _ := o.config["lock_name"].(string)
	installHook, _ := o.config["install_hook"].(bool)
	eventBuffer, _ := o.config["event_buffer"].(int)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	return fs.NewRepository(fs.Config{
		Path:         resolved,
		Binary:       binary,
		Logger:       o.logger,
		LockName:     lockName,
		InstallHook:  installHook,
		EventBuffer:  eventBuffer,
		ErrorHandler: errorHandler,
	})
}
