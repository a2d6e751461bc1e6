package store

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/bookshelf/internal/client/session"
)

// MemoryStore keeps the snapshot in process memory only.
type MemoryStore struct {
	mu     sync.Mutex
	snap   session.Snapshot
	writes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Persist(_ context.Context, snap session.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.writes++
	return nil
}

func (m *MemoryStore) Load(context.Context) (session.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

// Writes reports how many times Persist has been called.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MemoryStore) Close() error { return nil }
