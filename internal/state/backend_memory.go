package state

import (
	"context"
	"sync"
)

// MemoryBackend is a process-local backend used in tests and dry runs.
type MemoryBackend struct {
	mu    sync.RWMutex
	data  []byte
	saves int
}

func NewMemoryBackend() *MemoryBackend { return &MemoryBackend{} }

func (m *MemoryBackend) Load(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryBackend) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.saves++
	m.mu.Unlock()
	return nil
}

// Saves reports how many snapshots were written.
func (m *MemoryBackend) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *MemoryBackend) Close() error { return nil }
