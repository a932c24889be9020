package content

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps blobs in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	baseURL string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		blobs:   make(map[string][]byte),
		baseURL: baseURL,
	}
}

func (m *MemoryStore) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("put: %w", ErrUnavailable)
	}
	ref, err := ComputeRef(data)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[ref] = bytes.Clone(data)
	return ref, nil
}

func (m *MemoryStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get: %w", ErrUnavailable)
	}
	canonical, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[canonical]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	return bytes.Clone(data), nil
}

func (m *MemoryStore) URL(ref string) string {
	return m.baseURL + "/" + ref
}
