package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// DefaultDir is the data directory created in the working directory when no
// other location is configured.
const DefaultDir = ".quicknote"

// ErrRootNotFound is returned by FindRoot when no data directory exists above start.
var ErrRootNotFound = errors.New("no .quicknote directory found")

// FindRoot walks upwards from startDir looking for a .quicknote directory and
// returns its absolute path.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, DefaultDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}
