package core_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/quicknote/pkg/adapters/memory"
	"github.com/aretw0/quicknote/pkg/core"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// seqIDs issues n1, n2, ... unless a script of ids is queued.
type seqIDs struct {
	mu     sync.Mutex
	n      int
	script []string
}

func (p *seqIDs) NewID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.script) > 0 {
		id := p.script[0]
		p.script = p.script[1:]
		return id, nil
	}
	p.n++
	return fmt.Sprintf("n%d", p.n), nil
}

type fixture struct {
	svc   *core.Service
	store *memory.Store
	clock *fakeClock
	ids   *seqIDs
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		clock: newFakeClock(),
		ids:   &seqIDs{},
	}
	if delay <= 0 {
		delay = time.Hour
	}
	f.svc = core.NewService(f.store, core.Config{
		Clock:         f.clock.Now,
		IDs:           f.ids,
		AutosaveDelay: delay,
	})
	require.NoError(t, f.svc.Load(context.Background()))
	t.Cleanup(f.svc.Close)
	return f
}

// persisted decodes the notes blob currently in storage.
func (f *fixture) persisted(t *testing.T) []core.Note {
	t.Helper()
	data, err := f.store.Get(context.Background(), core.NotesKey)
	if err != nil {
		return nil
	}
	var notes []core.Note
	require.NoError(t, json.Unmarshal(data, &notes))
	return notes
}

// seed writes notes straight into storage and reloads them.
func (f *fixture) seed(t *testing.T, notes ...core.Note) {
	t.Helper()
	data, err := json.Marshal(notes)
	require.NoError(t, err)
	require.NoError(t, f.store.Set(context.Background(), core.NotesKey, data))
	require.NoError(t, f.svc.Load(context.Background()))
}

func noteIDs(notes []core.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}
