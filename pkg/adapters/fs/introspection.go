package fs

import (
	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string `json:"path"`
	Binary        string `json:"binary"`
	LockName      string `json:"lock_name,omitempty"`
	HookInstalled bool   `json:"hook_installed"`
	WatcherActive bool   `json:"watcher_active"`
	LastSeen      string `json:"last_seen,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RepositoryState{
		Path:          r.Path,
		Binary:        r.git.Binary,
		LockName:      r.config.LockName,
		HookInstalled: r.config.InstallHook,
		WatcherActive: r.watcherActive,
		LastSeen:      r.lastSeen,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}

func (r *Repository) setLastSeen(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeen = id
}
