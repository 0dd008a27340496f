package artifact

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory artifact store for tests and local runs.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, name string, content []byte) error {
	cp := make([]byte, len(content))
	copy(cp, content)
	s.mu.Lock()
	s.m[name] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	content, ok := s.m[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(content))
	copy(cp, content)
	return cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	delete(s.m, name)
	s.mu.Unlock()
	return nil
}
