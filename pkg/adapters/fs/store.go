// Package fs stores each key as a JSON file inside a data directory.
package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/quicknote/pkg/core"
)

// FileExt is the extension of every stored key.
const FileExt = ".json"

// Store implements core.Storage on the filesystem.
type Store struct {
	Path   string
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastWrite     *time.Time
}

// Config holds the configuration for the filesystem store.
type Config struct {
	Path      string
	MustExist bool
	ReadOnly  bool
	Logger    *slog.Logger
	// ErrorHandler receives runtime watcher failures that are otherwise only logged.
	ErrorHandler func(error)
	// CoalesceWindow groups bursts of filesystem events per key. Zero means 50ms.
	CoalesceWindow time.Duration
}

// NewStore creates a new filesystem-backed store.
func NewStore(config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.CoalesceWindow <= 0 {
		config.CoalesceWindow = 50 * time.Millisecond
	}
	return &Store{
		Path:   config.Path,
		config: config,
	}
}

// Initialize creates the data directory and clears temp files left by
// interrupted writes. In read-only mode it only checks the directory.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist || s.config.ReadOnly {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			if s.config.ReadOnly && !s.config.MustExist {
				return nil
			}
			return fmt.Errorf("data path does not exist: %s", s.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", s.Path)
		}
	} else if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if s.config.ReadOnly {
		return nil
	}

	removed, err := removeStaleTemps(s.Path)
	if err != nil {
		return fmt.Errorf("failed to clean data directory: %w", err)
	}
	if removed > 0 {
		s.config.Logger.Warn("removed interrupted writes", "count", removed, "path", s.Path)
	}
	return nil
}

// Get reads the file holding key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set atomically replaces the file holding key.
func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return err
	}

	s.recordWrite()
	s.config.Logger.Debug("key written", "key", key, "bytes", len(data))
	return nil
}

// keyPath maps a key to its file, rejecting keys that could escape the data directory.
func (s *Store) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.Path, key+FileExt), nil
}

// resolveKey maps a file path back to its key.
func (s *Store) resolveKey(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, TempFilePrefix) || strings.HasPrefix(name, ".") || filepath.Ext(name) != FileExt {
		return "", false
	}
	return strings.TrimSuffix(name, FileExt), true
}

var _ core.Storage = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
