package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the optional per-store CLI configuration file.
const ConfigFileName = ".verso.yaml"

// FindRoot looks upwards from startDir for a store root, marked by a .git
// directory or a .verso.yaml file, and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ".git") || hasFile(dir, ConfigFileName) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no store found above %s", abs)
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
