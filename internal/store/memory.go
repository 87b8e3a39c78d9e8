package store

import (
	"context"
	"sync"
)

// Memory keeps the snapshot in process memory.
type Memory struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Get returns a copy of the stored snapshot.
func (m *Memory) Get(ctx context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return nil, ErrNotFound
	}
	return m.snap.clone(), nil
}

// Put replaces the stored snapshot with a copy of snap.
func (m *Memory) Put(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.clone()
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
