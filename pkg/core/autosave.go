package core

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultAutosaveDelay is the quiet period after the last edit before autosave fires.
const DefaultAutosaveDelay = 2 * time.Second

// SaveState is the autosave status of the current edit session.
type SaveState int

const (
	StateSaved SaveState = iota
	StateUnsaved
	StateSaving
)

func (s SaveState) String() string {
	switch s {
	case StateUnsaved:
		return "unsaved"
	case StateSaving:
		return "saving"
	default:
		return "saved"
	}
}

// SaveTask persists the current draft. It returns false when it declines to
// save (nothing to write, or the session it belongs to is gone).
type SaveTask func(ctx context.Context) (bool, error)

// Autosaver is a trailing-edge debouncer for draft persistence.
//
// Every Touch restarts the quiet period. At most one task runs at a time: a
// Touch that arrives while a save is in flight is remembered and a new quiet
// period starts once that save completes.
type Autosaver struct {
	mu       sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	gen      uint64
	state    SaveState
	task     SaveTask
	inFlight bool
	dirty    bool
	// done is closed when the in-flight save completes. Nil when idle.
	done chan struct{}

	logger  *slog.Logger
	onError func(error)
}

// NewAutosaver creates an Autosaver. A non-positive delay selects DefaultAutosaveDelay.
func NewAutosaver(delay time.Duration, logger *slog.Logger, onError func(error)) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Autosaver{
		delay:   delay,
		logger:  logger,
		onError: onError,
	}
}

// Delay returns the debounce window.
func (a *Autosaver) Delay() time.Duration {
	return a.delay
}

// State returns the current save state.
func (a *Autosaver) State() SaveState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Touch marks the draft as unsaved and (re)starts the debounce window.
// task replaces any previously scheduled task.
func (a *Autosaver) Touch(task SaveTask) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.task = task
	if a.inFlight {
		a.dirty = true
		if a.state != StateSaving {
			a.state = StateUnsaved
		}
		return
	}
	a.state = StateUnsaved
	a.scheduleLocked()
}

// Cancel stops the pending timer and forgets the scheduled task.
// A save already in flight finishes but its outcome no longer changes the state.
func (a *Autosaver) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	a.gen++
	a.task = nil
	a.dirty = false
	a.state = StateSaved
}

// Flush runs the pending task immediately instead of waiting for the timer.
// It is a no-op when nothing is unsaved.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	for a.inFlight {
		done := a.done
		a.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		a.mu.Lock()
	}
	if a.state != StateUnsaved || a.task == nil {
		a.mu.Unlock()
		return nil
	}
	a.stopLocked()
	a.gen++
	gen, task := a.gen, a.task
	a.begin()
	a.mu.Unlock()

	return a.run(ctx, gen, task)
}

// Wait blocks until an in-flight save has completed.
func (a *Autosaver) Wait() {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (a *Autosaver) scheduleLocked() {
	a.stopLocked()
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(a.delay, func() { a.fire(gen) })
}

func (a *Autosaver) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// begin must be called with a.mu held.
func (a *Autosaver) begin() {
	a.state = StateSaving
	a.inFlight = true
	a.done = make(chan struct{})
}

func (a *Autosaver) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.state != StateUnsaved || a.task == nil || a.inFlight {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	task := a.task
	a.begin()
	a.mu.Unlock()

	_ = a.run(context.Background(), gen, task)
}

func (a *Autosaver) run(ctx context.Context, gen uint64, task SaveTask) error {
	saved, err := task(ctx)
	if err != nil {
		a.logger.Error("autosave failed", "error", err)
		if a.onError != nil {
			a.onError(err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.inFlight = false
	close(a.done)
	a.done = nil
	if gen == a.gen {
		switch {
		case err != nil:
			a.state = StateUnsaved
		case saved:
			a.state = StateSaved
		default:
			a.state = StateUnsaved
		}
	}

	if a.dirty {
		a.dirty = false
		a.state = StateUnsaved
		a.scheduleLocked()
	}
	return err
}
