package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	rows      [][]string
	writtenAt time.Time
}

// MemoryStore is a map-backed Store for tests and ephemeral runs
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		datasets: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the stored rows
func (s *MemoryStore) Get(ctx context.Context, dataset string) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.datasets[dataset]
	if !ok {
		return nil, fmt.Errorf("dataset %s: %w", dataset, ErrNotFound)
	}

	return copyRows(entry.rows), nil
}

// Put replaces the dataset
func (s *MemoryStore) Put(ctx context.Context, dataset string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasets[dataset] = memoryEntry{
		rows:      copyRows(rows),
		writtenAt: s.now(),
	}
	return nil
}

// Fresh reports whether the dataset exists and is younger than the TTL
func (s *MemoryStore) Fresh(ctx context.Context, dataset string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.datasets[dataset]
	if !ok {
		return false, nil
	}

	return s.now().Sub(entry.writtenAt) < s.ttl, nil
}

// Exists reports whether the dataset was ever stored
func (s *MemoryStore) Exists(ctx context.Context, dataset string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.datasets[dataset]
	return ok, nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
