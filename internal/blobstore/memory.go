package blobstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/SummittDweller/cb-file-finder/internal/routing"
)

// MemoryStore keeps blobs in a map. It backs dry runs and tests.
type MemoryStore struct {
	blobs map[string][]byte
	puts  int
	mu    sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

func memoryKey(container routing.Container, key string) string {
	return string(container) + "/" + key
}

func (m *MemoryStore) Exists(ctx context.Context, container routing.Container, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[memoryKey(container, key)]
	return ok, nil
}

func (m *MemoryStore) Put(ctx context.Context, container routing.Container, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[memoryKey(container, key)] = data
	m.puts++
	return nil
}

// Get returns a stored blob
func (m *MemoryStore) Get(container routing.Container, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[memoryKey(container, key)]
	return data, ok
}

// Puts counts the transfers made
func (m *MemoryStore) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

// Keys lists container/key pairs currently stored
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	return keys
}
