// Package memory holds the in-memory audit store used by unit tests and
// local development.
package memory

import (
	"context"
	"strconv"
	"sync"

	"aide/internal/audit"
)

// Store is an append-only slice guarded by a mutex. Cursors are numeric
// offsets into the insertion order.
type Store struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func New() *Store {
	return &Store{}
}

func (s *Store) InsertOne(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) InsertBatch(_ context.Context, entries []audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *Store) Query(_ context.Context, filter audit.Filter, page audit.Page) (audit.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []audit.Entry
	for _, e := range s.entries {
		if matches(e, filter) {
			matched = append(matched, e)
		}
	}
	return paginate(matched, page), nil
}

func (s *Store) ByResource(_ context.Context, resourceType, resourceID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for _, e := range s.entries {
		if e.ResourceType == resourceType && e.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ByActor(_ context.Context, actorID string, page audit.Page) (audit.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []audit.Entry
	for _, e := range s.entries {
		if e.ActorID == actorID {
			matched = append(matched, e)
		}
	}
	return paginate(matched, page), nil
}

// All returns a copy of every entry in insertion order. Test helper.
func (s *Store) All() []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry(nil), s.entries...)
}

func matches(e audit.Entry, f audit.Filter) bool {
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.ActorType != "" && e.ActorType != f.ActorType {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ResourceType != "" && e.ResourceType != f.ResourceType {
		return false
	}
	if f.ResourceID != "" && e.ResourceID != f.ResourceID {
		return false
	}
	if f.Since != nil && e.Timestamp.Before(*f.Since) {
		return false
	}
	if f.Until != nil && e.Timestamp.After(*f.Until) {
		return false
	}
	return true
}

func paginate(entries []audit.Entry, page audit.Page) audit.QueryResult {
	offset := 0
	if page.Cursor != "" {
		if n, err := strconv.Atoi(page.Cursor); err == nil && n > 0 {
			offset = n
		}
	}
	if offset >= len(entries) {
		return audit.QueryResult{}
	}

	end := offset + page.Limit
	hasMore := end < len(entries)
	if !hasMore {
		end = len(entries)
	}

	result := audit.QueryResult{
		Entries: append([]audit.Entry(nil), entries[offset:end]...),
		HasMore: hasMore,
	}
	if hasMore {
		result.NextCursor = strconv.Itoa(end)
	}
	return result
}
