package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	NoteCount     int    `json:"note_count"`
	ActiveNote    string `json:"active_note,omitempty"`
	SaveState     string `json:"save_state"`
	AutosaveDelay string `json:"autosave_delay"`
	Search        string `json:"search,omitempty"`
	TagFilter     string `json:"tag_filter"`
	Sort          string `json:"sort"`
	StorageType   string `json:"storage_type"`
	Storage       any    `json:"storage,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	storageType := "unknown"
	var storageState any
	if s.store != nil {
		storageType = "storage"
		if comp, ok := s.store.(introspection.Component); ok {
			storageType = comp.ComponentType()
		}
		if in, ok := s.store.(introspection.Introspectable); ok {
			storageState = in.State()
		}
	}

	return ServiceState{
		NoteCount:     len(s.notes),
		ActiveNote:    s.session.activeID,
		SaveState:     s.autosave.State().String(),
		AutosaveDelay: s.autosave.Delay().String(),
		Search:        s.session.search,
		TagFilter:     s.session.tag,
		Sort:          string(s.session.sort),
		StorageType:   storageType,
		Storage:       storageState,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
