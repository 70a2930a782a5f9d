// Package memory holds the in-memory memory-bank store.
package memory

import (
	"context"
	"sync"

	"aide/internal/memorybank"
	id "aide/pkg/domain"
	"aide/pkg/platform/sentinel"
)

type Store struct {
	mu      sync.RWMutex
	entries map[id.MemoryID]*memorybank.Entry
	order   []id.MemoryID
}

func New() *Store {
	return &Store{entries: make(map[id.MemoryID]*memorybank.Entry)}
}

func (s *Store) Create(_ context.Context, entry *memorybank.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.ID]; exists {
		return sentinel.ErrConflict
	}
	c := *entry
	s.entries[entry.ID] = &c
	s.order = append(s.order, entry.ID)
	return nil
}

func (s *Store) Get(_ context.Context, entryID id.MemoryID) (*memorybank.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *entry
	return &c, nil
}

func (s *Store) ListByUser(_ context.Context, userID string) ([]*memorybank.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*memorybank.Entry
	for _, entryID := range s.order {
		entry := s.entries[entryID]
		if entry.UserID == userID {
			c := *entry
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, entryID id.MemoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entryID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.entries, entryID)
	for i, oid := range s.order {
		if oid == entryID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
