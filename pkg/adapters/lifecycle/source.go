// Package lifecycle adapts storage change events to the lifecycle event model.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/quicknote/pkg/core"
)

type storeSource struct {
	events <-chan core.Event
	keys   []string
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits storage change events,
// typically the channel returned by core.Service.Watch. When keys are given
// only events for those keys are forwarded.
func NewSource(events <-chan core.Event, keys ...string) lifecycle.Source {
	return &storeSource{
		events: events,
		keys:   keys,
		out:    make(chan lifecycle.Event),
	}
}

func (s *storeSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until the upstream channel closes or ctx is done.
// It returns immediately; Events is closed when forwarding stops.
func (s *storeSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, s.forward)
	return nil
}

func (s *storeSource) forward(ctx context.Context) error {
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-s.events:
			if !ok {
				return nil
			}
			if len(s.keys) > 0 && !slices.Contains(s.keys, e.Key) {
				continue
			}
			// core.Event satisfies lifecycle.Event through String().
			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
