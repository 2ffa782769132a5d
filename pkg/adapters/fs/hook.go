package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// postUpdateHook refreshes the working tree after a push into the store.
// git runs it from inside .git with GIT_DIR set.
const postUpdateHook = `#!/bin/sh
cd .. || exit 1
unset GIT_DIR
exec git checkout -f
`

func (r *Repository) installHook() error {
	hooks := filepath.Join(r.Path, ".git", "hooks")
	if err := os.MkdirAll(hooks, 0o755); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}
	target := filepath.Join(hooks, "post-update")
	if err := os.WriteFile(target, []byte(postUpdateHook), 0o755); err != nil {
		return fmt.Errorf("failed to write post-update hook: %w", err)
	}
	// WriteFile keeps the mode of an existing sample hook.
	return os.Chmod(target, 0o755)
}
