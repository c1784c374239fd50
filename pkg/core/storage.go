package core

import (
	"context"
	"fmt"
)

// Keys used in the key-value store.
const (
	NotesKey    = "quicknotes"
	DarkModeKey = "darkMode"
)

// Storage defines the contract for the persistent key-value store backing
// the notebook. Values are opaque blobs; the Service owns their encoding.
// Adhering to this interface keeps the core independent of the underlying
// storage mechanism (files, SQLite, memory).
type Storage interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores data under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte) error

	// Initialize ensures the underlying storage is ready (directories, schema).
	Initialize(ctx context.Context) error
}

// Watchable defines an interface for storages that can report external changes.
type Watchable interface {
	// Watch emits an Event whenever a key matching pattern changes.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// EventType represents the type of change in the store.
type EventType string

const (
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change of a stored key.
type Event struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Key)
}
