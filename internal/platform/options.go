package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/quicknote/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
	AdapterMemory = "memory"
)

// options holds the internal configuration for a notebook.
type options struct {
	storage       core.Storage
	logger        *slog.Logger
	adapter       string
	readOnly      bool
	mustExist     bool
	devSafety     bool
	forceTemp     bool
	autosaveDelay time.Duration
	clock         func() time.Time
	ids           core.IDProvider
	errorHandler  func(error)
	eventBuffer   int
}

// Option defines a functional option for configuring a notebook.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:   AdapterFS,
		devSafety: true,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for the service and its storage.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage allows injecting a custom storage (e.g. a mock).
// If provided, the adapter selection is skipped.
func WithStorage(s core.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithAdapter selects the storage adapter by name ("fs", "sqlite", "memory").
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithReadOnly enables read-only mode. Writes return core.ErrReadOnly and the
// data directory is never created. The dev sandbox is bypassed.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithMustExist ensures the data directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true) the data directory is re-rooted under the system temp dir.
//
// CAUTION: Only disable this if you want dev runs to touch your real notes.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithForceTemp forces the data directory into the temp sandbox.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithAutosaveDelay sets the autosave debounce window. Zero means core.DefaultAutosaveDelay.
func WithAutosaveDelay(d time.Duration) Option {
	return func(o *options) {
		o.autosaveDelay = d
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithIDProvider overrides id generation (tests).
func WithIDProvider(p core.IDProvider) Option {
	return func(o *options) {
		o.ids = p
	}
}

// WithErrorHandler registers a callback for failures that happen in the
// background (autosave, watcher, reload) and are otherwise only logged.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithEventBuffer sets the size of the watch event buffer.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}
