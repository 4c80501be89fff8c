package prefs

import (
	"context"
	"sync"

	"github.com/five82/cbzmeta/internal/comic"
)

var _ comic.KeyValueStore = (*MemoryStore)(nil)

// MemoryStore is a process-local comic.KeyValueStore. The zero value is
// ready to use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context, namespace, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[namespace][key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, namespace, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]map[string]string)
	}
	if m.values[namespace] == nil {
		m.values[namespace] = make(map[string]string)
	}
	m.values[namespace][key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values[namespace], key)
	return nil
}
