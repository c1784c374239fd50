package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
)

// maxIDAttempts bounds retries when the IDProvider returns an id already in use.
const maxIDAttempts = 5

// Config holds the dependencies and tunables of a Service.
type Config struct {
	Logger        *slog.Logger
	Clock         func() time.Time
	IDs           IDProvider
	AutosaveDelay time.Duration
	// ErrorHandler receives failures that have no caller to return to (autosave, reload).
	ErrorHandler func(error)
	EventBuffer  int
}

// session is the ephemeral editing and view state.
type session struct {
	activeID     string
	epoch        uint64
	draftTitle   string
	draftContent string

	search     string
	tag        string
	tagPattern string
	sort       SortKey
}

// Service owns the in-memory note collection and the session built around it.
// All mutations go through it and are written back to Storage.
type Service struct {
	mu       sync.RWMutex
	store    Storage
	notes    []Note
	session  session
	autosave *Autosaver

	logger      *slog.Logger
	now         func() time.Time
	ids         IDProvider
	onError     func(error)
	eventBuffer int
}

// NewService creates a new Service backed by store. Call Load to read persisted notes.
func NewService(store Storage, cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.IDs == nil {
		cfg.IDs = NewUUIDProvider()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 100
	}

	return &Service{
		store:       store,
		session:     session{tag: AllTags, sort: SortUpdatedDesc},
		autosave:    NewAutosaver(cfg.AutosaveDelay, cfg.Logger, cfg.ErrorHandler),
		logger:      cfg.Logger,
		now:         cfg.Clock,
		ids:         cfg.IDs,
		onError:     cfg.ErrorHandler,
		eventBuffer: cfg.EventBuffer,
	}
}

// --- Persistence ---

// Load replaces the in-memory collection with the persisted one.
// A missing collection is treated as empty.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.readNotes(ctx)
	if err != nil {
		return err
	}
	s.notes = notes
	s.logger.Debug("notes loaded", "count", len(notes))
	return nil
}

// Reload re-reads the persisted collection after an external change.
// It is skipped while an edit session is open, since the open note may exist
// only in memory. It reports whether the collection was replaced.
func (s *Service) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.activeID != "" {
		s.logger.Debug("reload skipped, edit session active", "id", s.session.activeID)
		return false, nil
	}

	notes, err := s.readNotes(ctx)
	if err != nil {
		return false, err
	}
	s.notes = notes
	s.logger.Debug("notes reloaded", "count", len(notes))
	return true, nil
}

func (s *Service) readNotes(ctx context.Context) ([]Note, error) {
	data, err := s.store.Get(ctx, NotesKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}

	var notes []Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}

	// Ids must stay unique even if the stored blob was edited by hand.
	seen := make(map[string]bool, len(notes))
	out := notes[:0]
	for _, n := range notes {
		if n.ID == "" || seen[n.ID] {
			s.logger.Warn("dropping stored note with missing or duplicate id", "id", n.ID)
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out, nil
}

func (s *Service) persistLocked(ctx context.Context) error {
	notes := s.notes
	if notes == nil {
		notes = []Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("failed to encode notes: %w", err)
	}
	if err := s.store.Set(ctx, NotesKey, data); err != nil {
		return fmt.Errorf("failed to persist notes: %w", err)
	}
	return nil
}

// --- Repository ---

// Create allocates an empty note at the front of the collection and opens it
// for editing. The note is not persisted until it is saved.
func (s *Service) Create(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.endSessionLocked(ctx); err != nil {
		return "", err
	}

	id, err := s.newIDLocked()
	if err != nil {
		return "", err
	}

	now := Timestamp(s.now())
	note := Note{
		ID:        id,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.notes = slices.Insert(s.notes, 0, note)
	s.openLocked(note)

	s.logger.Debug("note created", "id", id)
	return id, nil
}

// Open makes an existing note the active session. It reports false when
// the note does not exist.
func (s *Service) Open(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return false, nil
	}
	if s.session.activeID == id {
		return true, nil
	}

	if err := s.endSessionLocked(ctx); err != nil {
		return false, err
	}
	// Ending the previous session may have removed a note before idx.
	idx = s.indexLocked(id)
	s.openLocked(s.notes[idx])
	return true, nil
}

// Edit records new draft values for the active note and restarts autosave.
// It does nothing when no note is open.
func (s *Service) Edit(title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.activeID == "" {
		return
	}
	s.session.draftTitle = title
	s.session.draftContent = content
	s.autosave.Touch(s.autosaveTask(s.session.epoch))
}

// Save applies title and content to the active note and closes the session.
// It is a no-op unless id is the active note. When both fields are blank the
// note is deleted instead.
func (s *Service) Save(ctx context.Context, id, title, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, id, title, content)
}

// SaveDraft saves the active note with its current draft.
func (s *Service) SaveDraft(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, s.session.activeID, s.session.draftTitle, s.session.draftContent)
}

func (s *Service) saveLocked(ctx context.Context, id, title, content string) error {
	if id == "" || id != s.session.activeID {
		return nil
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" && content == "" {
		return s.deleteLocked(ctx, id)
	}

	s.applyLocked(idx, title, content)
	if err := s.persistLocked(ctx); err != nil {
		// Keep the session open so the caller can retry.
		return err
	}

	s.autosave.Cancel()
	s.closeSessionLocked()
	s.logger.Debug("note saved", "id", id)
	return nil
}

// Cancel closes the active session, discarding the draft. A note that is
// still blank is deleted.
func (s *Service) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endSessionLocked(ctx)
}

// Delete removes a note. Deleting an unknown id is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(ctx, id)
}

func (s *Service) deleteLocked(ctx context.Context, id string) error {
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}

	s.notes = slices.Delete(s.notes, idx, idx+1)
	if s.session.activeID == id {
		s.autosave.Cancel()
		s.closeSessionLocked()
	}

	s.logger.Debug("note deleted", "id", id)
	return s.persistLocked(ctx)
}

// Find returns a copy of the note with the given id.
func (s *Service) Find(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Note{}, false
	}
	return s.notes[idx].Clone(), true
}

// Notes returns a copy of the collection in repository order.
func (s *Service) Notes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Note, len(s.notes))
	for i, n := range s.notes {
		out[i] = n.Clone()
	}
	return out
}

// Active returns the note open for editing, if any.
func (s *Service) Active() (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session.activeID == "" {
		return Note{}, false
	}
	idx := s.indexLocked(s.session.activeID)
	if idx < 0 {
		return Note{}, false
	}
	return s.notes[idx].Clone(), true
}

// Draft returns the unsaved title and content of the active session.
func (s *Service) Draft() (title, content string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.draftTitle, s.session.draftContent
}

// --- Tags ---

// AddTags appends the comma-separated tags in raw to the active note.
func (s *Service) AddTags(ctx context.Context, id, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.activeIndexLocked(id)
	if idx < 0 {
		return nil
	}

	added := ParseTags(raw, s.notes[idx].Tags)
	if len(added) == 0 {
		return nil
	}
	s.notes[idx].Tags = append(s.notes[idx].Tags, added...)
	return s.persistLocked(ctx)
}

// RemoveTag removes tag from the active note.
func (s *Service) RemoveTag(ctx context.Context, id, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.activeIndexLocked(id)
	if idx < 0 || !s.notes[idx].HasTag(tag) {
		return nil
	}

	s.notes[idx].Tags = slices.DeleteFunc(s.notes[idx].Tags, func(t string) bool { return t == tag })
	return s.persistLocked(ctx)
}

// --- Import ---

// Merge prepends imported notes whose ids are not yet in the repository and
// persists the result. It returns how many notes were added.
func (s *Service) Merge(ctx context.Context, incoming []Note) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.notes)+len(incoming))
	for _, n := range s.notes {
		seen[n.ID] = true
	}

	now := Timestamp(s.now())
	var fresh []Note
	for _, n := range incoming {
		if n.ID == "" {
			id, err := s.newIDLocked()
			if err != nil {
				return 0, err
			}
			n.ID = id
		}
		if seen[n.ID] {
			s.logger.Debug("import skipped existing id", "id", n.ID)
			continue
		}
		seen[n.ID] = true
		fresh = append(fresh, normalizeImported(n.Clone(), now))
	}

	if len(fresh) == 0 {
		return 0, nil
	}

	s.notes = append(fresh, s.notes...)
	s.logger.Info("notes imported", "added", len(fresh), "skipped", len(incoming)-len(fresh))
	return len(fresh), s.persistLocked(ctx)
}

func normalizeImported(n Note, now time.Time) Note {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		n.Title = UntitledTitle
	}
	n.Tags = ParseTags(strings.Join(n.Tags, ","), nil)
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() || n.UpdatedAt.Before(n.CreatedAt) {
		n.UpdatedAt = n.CreatedAt
	}
	return n
}

// --- View ---

// SetSearch sets the free-text search term.
func (s *Service) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.search = term
}

// SetTagFilter restricts the view to tag. Empty input selects AllTags.
func (s *Service) SetTagFilter(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tag == "" {
		tag = AllTags
	}
	s.session.tag = tag
}

// SetTagPattern restricts the view to notes with a tag matching the glob pattern.
func (s *Service) SetTagPattern(pattern string) error {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid tag pattern %q", pattern)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.tagPattern = pattern
	return nil
}

// SetSort selects the view order.
func (s *Service) SetSort(key SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.sort = key
}

// Query returns the view query of the current session.
func (s *Service) Query() Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Query{
		Search:     s.session.search,
		Tag:        s.session.tag,
		TagPattern: s.session.tagPattern,
		Sort:       s.session.sort,
	}
}

// View applies the session query to the collection.
func (s *Service) View() View {
	q := s.Query()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Apply(s.notes, q)
}

// --- Preferences ---

// DarkMode returns the stored theme preference.
func (s *Service) DarkMode(ctx context.Context) (bool, error) {
	data, err := s.store.Get(ctx, DarkModeKey)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read theme preference: %w", err)
	}
	var on bool
	if err := json.Unmarshal(data, &on); err != nil {
		return false, fmt.Errorf("failed to decode theme preference: %w", err)
	}
	return on, nil
}

// SetDarkMode stores the theme preference.
func (s *Service) SetDarkMode(ctx context.Context, on bool) error {
	data, _ := json.Marshal(on)
	if err := s.store.Set(ctx, DarkModeKey, data); err != nil {
		return fmt.Errorf("failed to persist theme preference: %w", err)
	}
	return nil
}

// ToggleDarkMode flips the theme preference and returns the new value.
func (s *Service) ToggleDarkMode(ctx context.Context) (bool, error) {
	on, err := s.DarkMode(ctx)
	if err != nil {
		return false, err
	}
	return !on, s.SetDarkMode(ctx, !on)
}

// --- Autosave ---

// SaveState returns the autosave status of the active session.
func (s *Service) SaveState() SaveState {
	return s.autosave.State()
}

// Flush saves a pending draft immediately.
func (s *Service) Flush(ctx context.Context) error {
	return s.autosave.Flush(ctx)
}

// Close stops autosave, waits for a save in flight and releases the storage
// when it implements io.Closer. Unsaved drafts are discarded; call Flush first
// to keep them.
func (s *Service) Close() {
	s.mu.Lock()
	s.autosave.Cancel()
	s.mu.Unlock()
	s.autosave.Wait()

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.reportError(fmt.Errorf("close storage: %w", err))
		}
	}
}

func (s *Service) autosaveTask(epoch uint64) SaveTask {
	return func(ctx context.Context) (bool, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.session.epoch != epoch || s.session.activeID == "" {
			return false, nil
		}
		title := strings.TrimSpace(s.session.draftTitle)
		content := strings.TrimSpace(s.session.draftContent)
		if title == "" && content == "" {
			return false, nil
		}
		idx := s.indexLocked(s.session.activeID)
		if idx < 0 {
			return false, nil
		}

		s.applyLocked(idx, title, content)
		if err := s.persistLocked(ctx); err != nil {
			return false, err
		}
		s.logger.Debug("note autosaved", "id", s.session.activeID)
		return true, nil
	}
}

// --- Watch ---

// Watch reloads the collection whenever the storage reports an external change
// of the notes key and forwards those events. The storage must implement Watchable.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.store.(Watchable)
	if !ok {
		return nil, errors.New("storage does not support watching")
	}

	upstream, err := w.Watch(ctx, NotesKey)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, s.eventBuffer)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-upstream:
				if !ok {
					return nil
				}
				if _, err := s.Reload(ctx); err != nil {
					s.reportError(fmt.Errorf("reload after %s: %w", e, err))
				}
				select {
				case out <- e:
				default:
					s.logger.Debug("event dropped, consumer too slow", "event", e.String())
				}
			}
		}
	}, lifecycle.WithErrorHandler(s.reportError))

	return out, nil
}

func (s *Service) reportError(err error) {
	s.logger.Error("background operation failed", "error", err)
	if s.onError != nil {
		s.onError(err)
	}
}

// --- helpers (callers hold s.mu) ---

func (s *Service) indexLocked(id string) int {
	return slices.IndexFunc(s.notes, func(n Note) bool { return n.ID == id })
}

func (s *Service) activeIndexLocked(id string) int {
	if id == "" || id != s.session.activeID {
		return -1
	}
	return s.indexLocked(id)
}

func (s *Service) newIDLocked() (string, error) {
	for range maxIDAttempts {
		id, err := s.ids.NewID()
		if err != nil {
			return "", fmt.Errorf("failed to generate id: %w", err)
		}
		if s.indexLocked(id) < 0 {
			return id, nil
		}
	}
	return "", errors.New("failed to generate a unique id")
}

func (s *Service) applyLocked(idx int, title, content string) {
	if title == "" {
		title = UntitledTitle
	}
	n := &s.notes[idx]
	n.Title = title
	n.Content = content
	n.UpdatedAt = Timestamp(s.now())
	if n.UpdatedAt.Before(n.CreatedAt) {
		n.UpdatedAt = n.CreatedAt
	}
}

func (s *Service) openLocked(n Note) {
	s.autosave.Cancel()
	s.session.activeID = n.ID
	s.session.epoch++
	s.session.draftTitle = n.Title
	s.session.draftContent = n.Content
}

func (s *Service) closeSessionLocked() {
	s.session.activeID = ""
	s.session.epoch++
	s.session.draftTitle = ""
	s.session.draftContent = ""
}

// endSessionLocked closes the active session and drops its note if it was
// never given a title or content.
func (s *Service) endSessionLocked(ctx context.Context) error {
	id := s.session.activeID
	if id == "" {
		return nil
	}
	s.autosave.Cancel()
	s.closeSessionLocked()

	if idx := s.indexLocked(id); idx >= 0 && s.notes[idx].IsBlank() {
		return s.deleteLocked(ctx, id)
	}
	return nil
}
