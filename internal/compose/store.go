package compose

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound        = errors.New("composition not found")
	ErrVersionConflict = errors.New("composition was modified concurrently")
)

// Store persists compositions with an optimistic version check: Save succeeds
// only when the stored version equals comp.Version, then bumps it.
type Store interface {
	Load(ctx context.Context, id string) (Composition, error)
	Save(ctx context.Context, comp Composition) (Composition, error)
}

type memoryStore struct {
	mu    sync.RWMutex
	comps map[string]Composition
}

func NewInMemoryStore() Store {
	return &memoryStore{comps: map[string]Composition{}}
}

func (m *memoryStore) Load(_ context.Context, id string) (Composition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.comps[id]
	if !ok {
		return Composition{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) Save(_ context.Context, comp Composition) (Composition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.comps[comp.ID]; ok && cur.Version != comp.Version {
		return Composition{}, ErrVersionConflict
	}
	comp.Version++
	m.comps[comp.ID] = comp
	return comp, nil
}
