package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps the snapshot in process memory. It is the default
// backend and loses everything on exit.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(ctx context.Context, snapshot []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), snapshot...)
	return nil
}

func (m *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, ErrNoSnapshot
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStore) Close() error {
	return nil
}
