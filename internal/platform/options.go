package platform

import (
	"log/slog"

	"github.com/aretw0/verso/pkg/core"
)

// options holds the internal configuration for a verso store.
type options struct {
	store  core.Store
	logger *slog.Logger
	config map[string]interface{}
}

// Option defines a functional option for configuring verso.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		config: make(map[string]interface{}),
	}
}

// WithAutoInit makes New and Open create the store (directory and git
// repository) when none exists yet.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithHook installs the post-update hook on initialization, so pushes into
// the store refresh its working tree.
func WithHook(install bool) Option {
	return func(o *options) {
		o.config["install_hook"] = install
	}
}

// WithBinary sets the git executable. Defaults to "git" on PATH.
func WithBinary(path string) Option {
	return func(o *options) {
		o.config["binary"] = path
	}
}

// WithLockName sets the name of the write lock file inside .git.
func WithLockName(name string) Option {
	return func(o *options) {
		o.config["lock_name"] = name
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`. By default (true) stores outside the system temp directory are
// re-rooted into it to protect the real workspace.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithLogger sets the logger for the store and the service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore allows injecting a custom backend (e.g. a mock).
// If provided, the default git adapter is skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithEventBuffer sets the capacity of Watch channels. Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithWatcherErrorHandler registers a callback for errors raised inside the
// Watch loop, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}
