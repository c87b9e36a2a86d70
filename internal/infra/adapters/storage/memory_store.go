package storage

import (
	"context"
	"sync"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/adapter"
)

var _ adapter.ObjectStore = (*MemoryStore)(nil)

// MemoryStore keeps objects in process memory. Used in dev mode and tests
// where no bucket is configured.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	writes  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; !exists {
		cp := make([]byte, len(data))
		copy(cp, data)
		s.objects[key] = cp
		s.writes++
	}
	return "mem://" + key, nil
}

// Writes reports how many durable writes actually happened, letting tests
// assert upload idempotence.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}
