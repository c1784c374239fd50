package platform_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quicknote/internal/platform"
	"github.com/aretw0/quicknote/pkg/adapters/memory"
	"github.com/aretw0/quicknote/pkg/core"
)

func writeNote(t *testing.T, svc *core.Service, title string) string {
	t.Helper()
	ctx := context.Background()
	id, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Save(ctx, id, title, "body"))
	return id
}

func TestNew_Adapters(t *testing.T) {
	for _, adapter := range []string{platform.AdapterFS, platform.AdapterSQLite} {
		t.Run(adapter, func(t *testing.T) {
			dir := t.TempDir()

			svc, err := platform.New(dir, platform.WithAdapter(adapter))
			require.NoError(t, err)
			id := writeNote(t, svc, "persisted")
			svc.Close()

			reopened, err := platform.New(dir, platform.WithAdapter(adapter))
			require.NoError(t, err)
			defer reopened.Close()

			n, ok := reopened.Find(id)
			require.True(t, ok)
			assert.Equal(t, "persisted", n.Title)
		})
	}
}

func TestNew_FSLayout(t *testing.T) {
	dir := t.TempDir()
	svc, err := platform.New(dir)
	require.NoError(t, err)
	defer svc.Close()

	writeNote(t, svc, "on disk")
	_, err = os.Stat(filepath.Join(dir, core.NotesKey+".json"))
	assert.NoError(t, err)
}

func TestNew_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.db")
	svc, err := platform.New(path, platform.WithAdapter(platform.AdapterSQLite))
	require.NoError(t, err)
	defer svc.Close()

	writeNote(t, svc, "in sqlite")
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNew_ReadOnly(t *testing.T) {
	dir := t.TempDir()
	svc, err := platform.New(dir, platform.WithReadOnly(true))
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	id, err := svc.Create(ctx)
	require.NoError(t, err)
	err = svc.Save(ctx, id, "nope", "")
	assert.True(t, errors.Is(err, core.ErrReadOnly), "got %v", err)
}

func TestNew_MustExist(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	_, err := platform.New(missing, platform.WithMustExist(true))
	assert.Error(t, err)
}

func TestNew_UnknownAdapter(t *testing.T) {
	_, err := platform.New(t.TempDir(), platform.WithAdapter("s3"))
	assert.Error(t, err)
}

type fixedIDs struct{ n int }

func (f *fixedIDs) NewID() (string, error) {
	f.n++
	return "id-" + strconv.Itoa(f.n), nil
}

func TestNew_InjectedDependencies(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	svc, err := platform.New("",
		platform.WithStorage(store),
		platform.WithClock(func() time.Time { return now }),
		platform.WithIDProvider(&fixedIDs{}),
		platform.WithAutosaveDelay(time.Minute),
	)
	require.NoError(t, err)
	defer svc.Close()

	id := writeNote(t, svc, "injected")
	assert.Equal(t, "id-1", id)
	n, _ := svc.Find(id)
	assert.True(t, n.CreatedAt.Equal(now))
	assert.Equal(t, []string{core.NotesKey}, store.Keys())

	st := svc.State().(core.ServiceState)
	assert.Equal(t, "1m0s", st.AutosaveDelay)
}

func TestNew_MemoryAdapter(t *testing.T) {
	svc, err := platform.New("", platform.WithAdapter(platform.AdapterMemory))
	require.NoError(t, err)
	defer svc.Close()

	writeNote(t, svc, "ephemeral")
	assert.Len(t, svc.Notes(), 1)
}

func TestNew_CorruptBlob(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Set(context.Background(), core.NotesKey, []byte("{")))

	_, err := platform.New("", platform.WithStorage(store))
	assert.Error(t, err)
}

func TestService_WatchReloadsExternalWrites(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := platform.New(dir)
	require.NoError(t, err)
	defer svc.Close()

	events, err := svc.Watch(ctx)
	require.NoError(t, err)

	writer, err := platform.New(dir)
	require.NoError(t, err)
	id := writeNote(t, writer, "from another process")
	writer.Close()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "event channel closed early")
			assert.Equal(t, core.NotesKey, e.Key)
			if _, found := svc.Find(id); found {
				return
			}
		case <-deadline:
			t.Fatal("external write was not picked up")
		}
	}
}
