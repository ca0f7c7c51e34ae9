// Package memory implements storage.KV in process memory.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/glass-bazaar/internal/storage"
)

var _ storage.KV = (*KV)(nil)

// KV is a mutex-guarded map. Values are copied on the way in and out.
type KV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New returns an empty KV.
func New() *KV {
	return &KV{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (m *KV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return slices.Clone(v), nil
}

// Set stores a copy of value under key.
func (m *KV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = slices.Clone(value)
	return nil
}

// Len returns the number of stored keys.
func (m *KV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
