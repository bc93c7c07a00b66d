// Package memory provides an in-process key-value backend. Data does not
// survive a restart; it backs the "memory" storage driver and tests.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/phrazzld/scry-flashcards/internal/store"
)

var _ store.BatchKV = (*KV)(nil)

// KV is a mutex-guarded map implementing store.BatchKV.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKV returns an empty KV.
func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Get implements store.KV.
func (m *KV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set implements store.KV.
func (m *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = bytes.Clone(value)
	return nil
}

// Delete implements store.KV.
func (m *KV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// SetMany implements store.BatchKV.
func (m *KV) SetMany(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range entries {
		m.data[k] = bytes.Clone(v)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *KV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
