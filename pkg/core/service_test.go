package core_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quicknote/pkg/core"
)

func TestService_CreateAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	seen := make(map[string]bool)
	for range 50 {
		id, err := f.svc.Create(ctx)
		require.NoError(t, err)
		require.NoError(t, f.svc.Save(ctx, id, "t", "c"))
		assert.False(t, seen[id], "id %s reused", id)
		seen[id] = true
	}
	assert.Len(t, f.svc.Notes(), 50)
}

func TestService_CreateRetriesCollidingIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.ids.script = []string{"a", "a", "a", "b"}

	first, err := f.svc.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, f.svc.Save(ctx, first, "first", ""))

	second, err := f.svc.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", first)
	assert.Equal(t, "b", second)
}

func TestService_CreateIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	id, err := f.svc.Create(ctx)
	require.NoError(t, err)

	assert.Empty(t, f.store.Keys())
	active, ok := f.svc.Active()
	require.True(t, ok)
	assert.Equal(t, id, active.ID)
	assert.Equal(t, active.CreatedAt, active.UpdatedAt)
	assert.NotNil(t, active.Tags)

	notes := f.svc.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, id, notes[0].ID)
}

func TestService_CreateInsertsAtFront(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	a, _ := f.svc.Create(ctx)
	require.NoError(t, f.svc.Save(ctx, a, "A", ""))
	b, _ := f.svc.Create(ctx)
	require.NoError(t, f.svc.Save(ctx, b, "B", ""))

	assert.Equal(t, []string{b, a}, noteIDs(f.svc.Notes()))
	assert.Equal(t, []string{b, a}, noteIDs(f.persisted(t)))
}

func TestService_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("trims title and content", func(t *testing.T) {
		f := newFixture(t, 0)
		id, _ := f.svc.Create(ctx)
		require.NoError(t, f.svc.Save(ctx, id, "  Shopping  ", "\n milk \n"))

		n, ok := f.svc.Find(id)
		require.True(t, ok)
		assert.Equal(t, "Shopping", n.Title)
		assert.Equal(t, "milk", n.Content)

		_, active := f.svc.Active()
		assert.False(t, active, "save closes the session")
		assert.Equal(t, core.StateSaved, f.svc.SaveState())
	})

	t.Run("empty title becomes Untitled", func(t *testing.T) {
		f := newFixture(t, 0)
		id, _ := f.svc.Create(ctx)
		require.NoError(t, f.svc.Save(ctx, id, "   ", "body"))

		n, ok := f.svc.Find(id)
		require.True(t, ok)
		assert.Equal(t, core.UntitledTitle, n.Title)
		assert.Equal(t, core.UntitledTitle, f.persisted(t)[0].Title)
	})

	t.Run("empty title and content deletes", func(t *testing.T) {
		f := newFixture(t, 0)
		id, _ := f.svc.Create(ctx)
		require.NoError(t, f.svc.Save(ctx, id, " ", "\t"))

		_, ok := f.svc.Find(id)
		assert.False(t, ok)
		assert.Empty(t, f.persisted(t))
	})

	t.Run("clearing an existing note deletes it", func(t *testing.T) {
		f := newFixture(t, 0)
		id, _ := f.svc.Create(ctx)
		require.NoError(t, f.svc.Save(ctx, id, "keep", "me"))

		ok, err := f.svc.Open(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, f.svc.Save(ctx, id, "", ""))

		_, found := f.svc.Find(id)
		assert.False(t, found)
		assert.Empty(t, f.persisted(t))
	})

	t.Run("ignores inactive or unknown ids", func(t *testing.T) {
		f := newFixture(t, 0)
		a, _ := f.svc.Create(ctx)
		require.NoError(t, f.svc.Save(ctx, a, "A", "a"))
		_, err := f.svc.Create(ctx)
		require.NoError(t, err)

		require.NoError(t, f.svc.Save(ctx, a, "changed", "changed"))
		require.NoError(t, f.svc.Save(ctx, "missing", "x", "y"))

		n, _ := f.svc.Find(a)
		assert.Equal(t, "A", n.Title)
	})

	t.Run("refreshes updatedAt only", func(t *testing.T) {
		f := newFixture(t, 0)
		id, _ := f.svc.Create(ctx)
		created := f.clock.Now()
		require.NoError(t, f.svc.Save(ctx, id, "v1", ""))

		f.clock.Advance(time.Minute)
		_, err := f.svc.Open(ctx, id)
		require.NoError(t, err)
		require.NoError(t, f.svc.Save(ctx, id, "v2", ""))

		n, _ := f.svc.Find(id)
		assert.True(t, n.CreatedAt.Equal(created))
		assert.True(t, n.UpdatedAt.Equal(created.Add(time.Minute)))
	})

	t.Run("updatedAt never precedes createdAt", func(t *testing.T) {
		f := newFixture(t, 0)
		id, _ := f.svc.Create(ctx)
		f.clock.Advance(-time.Hour)
		require.NoError(t, f.svc.Save(ctx, id, "clock went back", ""))

		n, _ := f.svc.Find(id)
		assert.False(t, n.UpdatedAt.Before(n.CreatedAt))
	})
}

func TestService_SaveDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	id, _ := f.svc.Create(ctx)
	f.svc.Edit("Draft title", "draft body")
	assert.Equal(t, core.StateUnsaved, f.svc.SaveState())

	require.NoError(t, f.svc.SaveDraft(ctx))
	n, ok := f.svc.Find(id)
	require.True(t, ok)
	assert.Equal(t, "Draft title", n.Title)
	assert.Equal(t, core.StateSaved, f.svc.SaveState())
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("drops a blank new note", func(t *testing.T) {
		f := newFixture(t, 0)
		id, _ := f.svc.Create(ctx)
		f.svc.Edit("typed but not saved", "")
		require.NoError(t, f.svc.Cancel(ctx))

		_, ok := f.svc.Find(id)
		assert.False(t, ok)
		_, active := f.svc.Active()
		assert.False(t, active)
	})

	t.Run("keeps a saved note unchanged", func(t *testing.T) {
		f := newFixture(t, 0)
		id, _ := f.svc.Create(ctx)
		require.NoError(t, f.svc.Save(ctx, id, "kept", ""))
		_, err := f.svc.Open(ctx, id)
		require.NoError(t, err)
		f.svc.Edit("discarded", "")
		require.NoError(t, f.svc.Cancel(ctx))

		n, ok := f.svc.Find(id)
		require.True(t, ok)
		assert.Equal(t, "kept", n.Title)
	})

	t.Run("without a session", func(t *testing.T) {
		f := newFixture(t, 0)
		assert.NoError(t, f.svc.Cancel(ctx))
	})
}

func TestService_OpenSwitchesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	a, _ := f.svc.Create(ctx)
	require.NoError(t, f.svc.Save(ctx, a, "A", "a"))

	blank, _ := f.svc.Create(ctx)
	ok, err := f.svc.Open(ctx, a)
	require.NoError(t, err)
	require.True(t, ok)

	_, found := f.svc.Find(blank)
	assert.False(t, found, "switching away from a blank note drops it")

	title, content := f.svc.Draft()
	assert.Equal(t, "A", title)
	assert.Equal(t, "a", content)

	ok, err = f.svc.Open(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	active, _ := f.svc.Active()
	assert.Equal(t, a, active.ID)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	a, _ := f.svc.Create(ctx)
	require.NoError(t, f.svc.Save(ctx, a, "A", ""))
	b, _ := f.svc.Create(ctx)
	f.svc.Edit("B", "")

	require.NoError(t, f.svc.Delete(ctx, b))
	_, active := f.svc.Active()
	assert.False(t, active, "deleting the active note clears the session")

	require.NoError(t, f.svc.Delete(ctx, b), "delete is idempotent")
	require.NoError(t, f.svc.Delete(ctx, "never-existed"))
	assert.Equal(t, []string{a}, noteIDs(f.svc.Notes()))
	assert.Equal(t, []string{a}, noteIDs(f.persisted(t)))
}

func TestService_Tags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	id, _ := f.svc.Create(ctx)
	require.NoError(t, f.svc.AddTags(ctx, id, "work, home ,, work"))
	require.NoError(t, f.svc.AddTags(ctx, id, "home, Home"))

	n, _ := f.svc.Find(id)
	assert.Equal(t, []string{"work", "home", "Home"}, n.Tags)
	assert.True(t, n.UpdatedAt.Equal(n.CreatedAt), "tag changes do not touch updatedAt")
	assert.Equal(t, n.Tags, f.persisted(t)[0].Tags)

	require.NoError(t, f.svc.RemoveTag(ctx, id, "home"))
	require.NoError(t, f.svc.RemoveTag(ctx, id, "absent"))
	n, _ = f.svc.Find(id)
	assert.Equal(t, []string{"work", "Home"}, n.Tags)

	require.NoError(t, f.svc.Save(ctx, id, "tagged", ""))
	require.NoError(t, f.svc.AddTags(ctx, id, "late"), "inactive note is a no-op")
	n, _ = f.svc.Find(id)
	assert.NotContains(t, n.Tags, "late")
}

func TestService_ShoppingExample(t *testing.T) {
	f := newFixture(t, 0)
	f.seed(t, core.Note{ID: "1", Title: "Shopping", Content: "milk, eggs", Tags: []string{"home"}})

	for _, tc := range []struct {
		search, tag string
		want        []string
	}{
		{search: "eggs", want: []string{"1"}},
		{search: "work", want: []string{}},
		{tag: "home", want: []string{"1"}},
		{tag: "other", want: []string{}},
		{search: "HOME", want: []string{"1"}},
	} {
		f.svc.SetSearch(tc.search)
		f.svc.SetTagFilter(tc.tag)
		assert.Equal(t, tc.want, noteIDs(f.svc.View().Notes), "search=%q tag=%q", tc.search, tc.tag)
	}

	assert.Equal(t, []string{"home"}, f.svc.View().Tags)
}

func TestService_ViewState(t *testing.T) {
	f := newFixture(t, 0)

	q := f.svc.Query()
	assert.Equal(t, core.AllTags, q.Tag)
	assert.Equal(t, core.SortUpdatedDesc, q.Sort)

	assert.Error(t, f.svc.SetTagPattern("work/["))
	require.NoError(t, f.svc.SetTagPattern("work/**"))
	f.svc.SetSort(core.SortTitleAsc)

	q = f.svc.Query()
	assert.Equal(t, "work/**", q.TagPattern)
	assert.Equal(t, core.SortTitleAsc, q.Sort)
}

func TestService_Merge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.seed(t, core.Note{ID: "1", Title: "Existing", Tags: []string{}})

	added, err := f.svc.Merge(ctx, []core.Note{
		{ID: "1", Title: "Duplicate"},
		{ID: "2", Title: "New", Tags: []string{"a", " a ", ""}},
		{Title: "", Content: "no id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	notes := f.svc.Notes()
	require.Len(t, notes, 3)
	assert.Equal(t, "2", notes[0].ID)
	assert.Equal(t, []string{"a"}, notes[0].Tags)
	assert.Equal(t, "n1", notes[1].ID, "missing ids are generated")
	assert.Equal(t, core.UntitledTitle, notes[1].Title)
	assert.False(t, notes[1].CreatedAt.IsZero())
	assert.Equal(t, "Existing", notes[2].Title)
	assert.Len(t, f.persisted(t), 3)

	added, err = f.svc.Merge(ctx, []core.Note{{ID: "2", Title: "again"}})
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestService_StorageFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	boom := errors.New("disk full")

	id, _ := f.svc.Create(ctx)
	f.store.FailWrites(boom)

	err := f.svc.Save(ctx, id, "important", "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	active, ok := f.svc.Active()
	require.True(t, ok, "a failed save keeps the session open")
	assert.Equal(t, id, active.ID)
	n, _ := f.svc.Find(id)
	assert.Equal(t, "important", n.Title, "in-memory state is kept")

	f.store.FailWrites(nil)
	require.NoError(t, f.svc.Save(ctx, id, "important", "text"))
	assert.Len(t, f.persisted(t), 1)
}

func TestService_LoadAndReload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	assert.Empty(t, f.svc.Notes(), "missing key loads as empty")

	f.seed(t,
		core.Note{ID: "1", Title: "one"},
		core.Note{ID: "1", Title: "duplicate"},
		core.Note{ID: "", Title: "no id"},
	)
	assert.Equal(t, []string{"1"}, noteIDs(f.svc.Notes()))

	_, err := f.svc.Create(ctx)
	require.NoError(t, err)
	reloaded, err := f.svc.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, reloaded, "reload waits for the session to end")
	require.NoError(t, f.svc.Cancel(ctx))

	require.NoError(t, f.store.Set(ctx, core.NotesKey, []byte(`[{"id":"2","title":"two"}]`)))
	reloaded, err = f.svc.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, []string{"2"}, noteIDs(f.svc.Notes()))

	require.NoError(t, f.store.Set(ctx, core.NotesKey, []byte(`not json`)))
	assert.Error(t, f.svc.Load(ctx))
}

func TestService_DarkMode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	on, err := f.svc.DarkMode(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	on, err = f.svc.ToggleDarkMode(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	data, err := f.store.Get(ctx, core.DarkModeKey)
	require.NoError(t, err)
	assert.Equal(t, "true", string(data))

	require.NoError(t, f.svc.SetDarkMode(ctx, false))
	on, _ = f.svc.DarkMode(ctx)
	assert.False(t, on)
}

func TestService_Autosave(t *testing.T) {
	ctx := context.Background()
	const delay = 30 * time.Millisecond

	t.Run("persists the draft after the quiet period", func(t *testing.T) {
		f := newFixture(t, delay)
		id, _ := f.svc.Create(ctx)
		f.svc.Edit("auto", "saved")

		require.Eventually(t, func() bool {
			return f.svc.SaveState() == core.StateSaved
		}, time.Second, 5*time.Millisecond)

		stored := f.persisted(t)
		require.Len(t, stored, 1)
		assert.Equal(t, "auto", stored[0].Title)

		active, ok := f.svc.Active()
		require.True(t, ok, "autosave keeps the session open")
		assert.Equal(t, id, active.ID)
	})

	t.Run("declines to save an empty draft", func(t *testing.T) {
		f := newFixture(t, delay)
		id, _ := f.svc.Create(ctx)
		f.svc.Edit("  ", "")

		time.Sleep(4 * delay)
		assert.Equal(t, core.StateUnsaved, f.svc.SaveState())
		assert.Empty(t, f.store.Keys())
		_, ok := f.svc.Find(id)
		assert.True(t, ok, "autosave never deletes")
	})

	t.Run("switching notes cancels the pending save", func(t *testing.T) {
		f := newFixture(t, delay)
		a, _ := f.svc.Create(ctx)
		require.NoError(t, f.svc.Save(ctx, a, "A", ""))

		_, err := f.svc.Open(ctx, a)
		require.NoError(t, err)
		f.svc.Edit("stale edit", "")
		_, err = f.svc.Create(ctx)
		require.NoError(t, err)

		time.Sleep(4 * delay)
		n, _ := f.svc.Find(a)
		assert.Equal(t, "A", n.Title)
		assert.Equal(t, "A", f.persisted(t)[0].Title)
	})

	t.Run("reports storage failures", func(t *testing.T) {
		errs := make(chan error, 4)
		f := newFixture(t, delay)
		f.svc = core.NewService(f.store, core.Config{
			Clock:         f.clock.Now,
			IDs:           f.ids,
			AutosaveDelay: delay,
			ErrorHandler:  func(err error) { errs <- err },
		})
		t.Cleanup(f.svc.Close)

		_, err := f.svc.Create(ctx)
		require.NoError(t, err)
		f.store.FailWrites(errors.New("read-only medium"))
		f.svc.Edit("lost?", "")

		select {
		case err := <-errs:
			assert.True(t, strings.Contains(err.Error(), "read-only medium"))
		case <-time.After(time.Second):
			t.Fatal("expected autosave error")
		}
		require.Eventually(t, func() bool {
			return f.svc.SaveState() == core.StateUnsaved
		}, time.Second, 5*time.Millisecond)

		title, _ := f.svc.Draft()
		assert.Equal(t, "lost?", title)
	})

	t.Run("flush saves immediately", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		_, err := f.svc.Create(ctx)
		require.NoError(t, err)
		f.svc.Edit("now", "")
		require.NoError(t, f.svc.Flush(ctx))
		assert.Equal(t, core.StateSaved, f.svc.SaveState())
		assert.Equal(t, "now", f.persisted(t)[0].Title)
	})
}

func TestService_WatchRequiresWatchableStorage(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.Watch(context.Background())
	assert.Error(t, err)
}

func TestService_State(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	id, _ := f.svc.Create(ctx)

	st, ok := f.svc.State().(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, 1, st.NoteCount)
	assert.Equal(t, id, st.ActiveNote)
	assert.Equal(t, "memory", st.StorageType)
	assert.Equal(t, "saved", st.SaveState)
	assert.Equal(t, "service", f.svc.ComponentType())
}
