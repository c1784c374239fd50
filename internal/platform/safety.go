package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// sandboxDir is the directory under os.TempDir() used by dev runs.
const sandboxDir = "quicknote-dev"

// IsDevRun reports whether the process was started by `go run` or `go test`.
// Both build their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveDataPath returns the directory a notebook should use.
// With sandbox set, paths outside the temp dir are re-rooted into
// <tmp>/quicknote-dev/<base name>. Paths already inside the temp dir
// (e.g. t.TempDir()) are kept.
func ResolveDataPath(userPath string, sandbox bool) string {
	if userPath == "" {
		userPath = DefaultDir
	}
	if !sandbox {
		return userPath
	}

	clean := filepath.Clean(userPath)
	abs, err := filepath.Abs(clean)
	if err == nil {
		if rel, err := filepath.Rel(os.TempDir(), abs); err == nil && !strings.HasPrefix(rel, "..") {
			return abs
		}
	}

	name := filepath.Base(clean)
	if name == "." || name == ".." || name == string(os.PathSeparator) || name == DefaultDir {
		name = "default"
	}
	return filepath.Join(os.TempDir(), sandboxDir, name)
}
