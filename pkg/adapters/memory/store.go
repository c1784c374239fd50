// Package memory provides a process-local core.Storage, mostly for tests and dry runs.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/quicknote/pkg/core"
)

// Store implements core.Storage in memory.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
	fail error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		return s.fail
	}
	s.data[key] = slices.Clone(data)
	return nil
}

func (s *Store) Initialize(ctx context.Context) error { return nil }

// FailWrites makes every subsequent Set return err. Pass nil to recover.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Keys returns the stored keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data))
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	return map[string]any{"keys": s.Keys()}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory"
}

var _ core.Storage = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
