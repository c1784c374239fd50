package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quicknote/pkg/core"
)

func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "data")
	}
	s := NewStore(cfg)
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Config{})

	_, err := s.Get(ctx, core.NotesKey)
	assert.True(t, errors.Is(err, core.ErrNotFound), "expected ErrNotFound, got %v", err)

	require.NoError(t, s.Set(ctx, core.NotesKey, []byte(`[]`)))
	got, err := s.Get(ctx, core.NotesKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	_, err = os.Stat(filepath.Join(s.Path, "quicknotes.json"))
	assert.NoError(t, err, "key should be stored as quicknotes.json")
}

func TestStore_RejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Config{})

	for _, key := range []string{"", "../escape", `a\b`, ".hidden"} {
		assert.Error(t, s.Set(ctx, key, []byte("x")), "key %q", key)
	}
}

func TestStore_Initialize(t *testing.T) {
	t.Run("MustExist", func(t *testing.T) {
		s := NewStore(Config{Path: filepath.Join(t.TempDir(), "missing"), MustExist: true})
		assert.Error(t, s.Initialize(context.Background()))
	})

	t.Run("Not A Directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
		s := NewStore(Config{Path: file, MustExist: true})
		assert.Error(t, s.Initialize(context.Background()))
	})

	t.Run("Removes Stale Temps", func(t *testing.T) {
		dir := t.TempDir()
		stale := filepath.Join(dir, TempFilePrefix+"abc")
		require.NoError(t, os.WriteFile(stale, []byte("partial"), 0644))

		s := NewStore(Config{Path: dir})
		require.NoError(t, s.Initialize(context.Background()))

		_, err := os.Stat(stale)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestStore_ReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quicknotes.json"), []byte(`[]`), 0644))

	s := newTestStore(t, Config{Path: dir, ReadOnly: true})

	got, err := s.Get(ctx, core.NotesKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	err = s.Set(ctx, core.NotesKey, []byte(`[{}]`))
	assert.True(t, errors.Is(err, core.ErrReadOnly), "expected ErrReadOnly, got %v", err)

	got, err = s.Get(ctx, core.NotesKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got), "read-only store must not change the file")

	state := s.State().(StoreState)
	assert.True(t, state.ReadOnly)
	assert.Nil(t, state.LastWrite)
}

func TestStore_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newTestStore(t, Config{CoalesceWindow: 100 * time.Millisecond})
	events, err := s.Watch(ctx, core.NotesKey)
	require.NoError(t, err)

	// Several writes in a burst collapse into one event.
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Set(ctx, core.NotesKey, []byte(`[]`)))
	}
	// Keys outside the pattern are ignored.
	require.NoError(t, s.Set(ctx, core.DarkModeKey, []byte(`true`)))

	select {
	case e := <-events:
		assert.Equal(t, core.NotesKey, e.Key)
		assert.Equal(t, core.EventModify, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watch event")
	}

	select {
	case e := <-events:
		t.Fatalf("unexpected extra event: %v", e)
	case <-time.After(250 * time.Millisecond):
	}

	assert.True(t, s.State().(StoreState).WatcherActive)

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel not closed after cancel")
		}
	}
}

func TestStore_WatchInvalidPattern(t *testing.T) {
	s := newTestStore(t, Config{})
	_, err := s.Watch(context.Background(), "[")
	assert.Error(t, err)
}
