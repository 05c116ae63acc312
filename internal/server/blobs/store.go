// Package blobs keeps the raw bytes of stored transactions.
package blobs

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/healthkey/internal/common"
)

// Store is a content-addressed byte store. Get returns common.ErrorNotFound
// for unknown ids.
type Store interface {
	Put(ctx context.Context, id string, data []byte, contentType string) error
	Get(ctx context.Context, id string) ([]byte, error)
}

// MemoryStore holds blobs in process memory. Used by the dev gateway and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, id string, data []byte, _ string) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}
