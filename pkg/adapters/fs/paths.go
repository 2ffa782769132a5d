package fs

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aretw0/verso/pkg/core"
)

// resolvePath validates a caller-supplied resource path and returns its
// cleaned, slash-separated form relative to root.
//
// Rejected: empty paths, the root itself, absolute paths, anything that
// climbs above root, any .git segment, and paths whose nearest existing
// ancestor is a symlink resolving outside root.
func resolvePath(root, p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", core.ErrIllegalResourceName)
	}
	slashed := filepath.ToSlash(p)
	if filepath.IsAbs(p) || strings.HasPrefix(slashed, "/") {
		return "", fmt.Errorf("%w: %q is absolute", core.ErrIllegalResourceName, p)
	}

	clean := path.Clean(slashed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q escapes the store root", core.ErrIllegalResourceName, p)
	}
	for _, segment := range strings.Split(clean, "/") {
		if strings.EqualFold(segment, ".git") {
			return "", fmt.Errorf("%w: %q names repository metadata", core.ErrIllegalResourceName, p)
		}
	}

	if err := checkSymlinkEscape(root, clean); err != nil {
		return "", fmt.Errorf("%w: %q: %v", core.ErrIllegalResourceName, p, err)
	}
	return clean, nil
}

// checkSymlinkEscape resolves the nearest existing ancestor of rel and makes
// sure it still lives under root.
func checkSymlinkEscape(root, rel string) error {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		// No root yet: nothing on disk can redirect the write.
		return nil
	}

	candidate := filepath.Join(root, filepath.FromSlash(rel))
	for {
		if _, err := os.Lstat(candidate); err == nil {
			break
		}
		parent := filepath.Dir(candidate)
		if parent == candidate {
			return nil
		}
		candidate = parent
	}

	real, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return err
	}
	relReal, err := filepath.Rel(realRoot, real)
	if err != nil {
		return err
	}
	if relReal == ".." || strings.HasPrefix(relReal, ".."+string(filepath.Separator)) {
		return fmt.Errorf("resolves outside the store root")
	}
	return nil
}
