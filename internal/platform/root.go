package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aretw0/ubrain/pkg/mapping"
)

// ErrRootNotFound is returned by FindRoot when no indicator is found up to
// the filesystem root.
var ErrRootNotFound = errors.New("root not found")

// rootIndicators mark a project directory, checked in order in each
// directory on the way up.
var rootIndicators = []string{
	mapping.DefaultFileName,
	".ub_mapping.yaml",
	"ubrain.yaml",
	"ubrain.json",
	".git",
}

// FindRoot looks upwards from startDir for a directory holding a mapping
// file, a config file or a .git directory, and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, name := range rootIndicators {
			if hasFile(dir, name) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
