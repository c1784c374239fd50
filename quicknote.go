package quicknote

import (
	"log/slog"
	"time"

	"github.com/aretw0/quicknote/internal/platform"
	"github.com/aretw0/quicknote/pkg/core"
)

// --- Configuration ---

// Option defines a functional option for configuring a notebook.
type Option = platform.Option

// Adapter names.
const (
	AdapterFS     = platform.AdapterFS
	AdapterSQLite = platform.AdapterSQLite
	AdapterMemory = platform.AdapterMemory
)

// DefaultDir is the data directory name looked up by FindRoot.
const DefaultDir = platform.DefaultDir

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStorage allows injecting a custom storage.
func WithStorage(s core.Storage) Option {
	return platform.WithStorage(s)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMustExist ensures the data directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithDevSafety controls the temp-dir sandbox used by `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithForceTemp forces the use of a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithAutosaveDelay sets the autosave debounce window.
func WithAutosaveDelay(d time.Duration) Option {
	return platform.WithAutosaveDelay(d)
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithIDProvider overrides id generation.
func WithIDProvider(p core.IDProvider) Option {
	return platform.WithIDProvider(p)
}

// WithErrorHandler registers a callback for background failures.
func WithErrorHandler(fn func(error)) Option {
	return platform.WithErrorHandler(fn)
}

// WithEventBuffer sets the size of the watch event buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// --- Factory ---

// New opens the notebook at path and loads its notes.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init initializes a storage explicitly.
func Init(path string, opts ...Option) (core.Storage, error) {
	return platform.Init(path, opts...)
}

// --- Safety & Utils ---

// FindRoot looks upwards from startDir for a .quicknote directory.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// ResolveDataPath applies the dev sandbox rules to a data path.
func ResolveDataPath(userPath string, sandbox bool) string {
	return platform.ResolveDataPath(userPath, sandbox)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
