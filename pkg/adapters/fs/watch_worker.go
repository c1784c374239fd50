package fs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/quicknote/pkg/core"
)

// Watch reports changes of keys matching pattern (a doublestar glob over key
// names, e.g. "quicknotes" or "*"). Bursts of events for the same key are
// coalesced into one. The channel is closed when ctx is done.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Path, err)
	}

	w := &watchWorker{
		store:   s,
		pattern: pattern,
		watcher: watcher,
		events:  make(chan core.Event, 16),
		pending: make(map[string]core.Event),
	}

	s.setWatcherActive(true)
	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		s.reportError(fmt.Errorf("watcher: %w", err))
	}))

	return w.events, nil
}

type watchWorker struct {
	store   *Store
	pattern string
	watcher *fsnotify.Watcher
	events  chan core.Event

	pending map[string]core.Event
	timer   *time.Timer
}

// run is the main event loop. It owns the events channel and closes it on exit.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.store.config.Logger.Enabled(ctx, slog.LevelDebug) {
				w.store.config.Logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.store.config.Logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer close(w.events)
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()
	defer w.stopTimer()

	for {
		var flush <-chan time.Time
		if w.timer != nil {
			flush = w.timer.C
		}

		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.process(event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.store.reportError(wErr)

		case <-flush:
			w.timer = nil
			if !w.emit(ctx) {
				return nil
			}
		}
	}
}

// process maps a filesystem event to a store event and queues it.
func (w *watchWorker) process(event fsnotify.Event) {
	w.store.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	key, ok := w.store.resolveKey(event.Name)
	if !ok {
		return
	}
	if match, err := doublestar.Match(w.pattern, key); err != nil || !match {
		return
	}

	var typ core.EventType
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		typ = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		typ = core.EventDelete
	default:
		return
	}

	w.pending[key] = core.Event{Type: typ, Key: key, Timestamp: time.Now().Unix()}

	// Trailing edge: each event restarts the window.
	w.stopTimer()
	w.timer = time.NewTimer(w.store.config.CoalesceWindow)
}

// emit sends the coalesced events in key order. It returns false if ctx ended.
func (w *watchWorker) emit(ctx context.Context) bool {
	keys := make([]string, 0, len(w.pending))
	for k := range w.pending {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		e := w.pending[k]
		delete(w.pending, k)
		select {
		case w.events <- e:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (w *watchWorker) stopTimer() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (s *Store) reportError(err error) {
	s.config.Logger.Error("watcher error", "error", err)
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
	}
}
