// Package memory is the in-process sliding-window store. Single-node only;
// a redis-backed store replaces it when the API runs replicated.
package memory

import (
	"context"
	"sync"
	"time"

	"aide/internal/ratelimit"
)

type window struct {
	timestamps []time.Time
	span       time.Duration
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for ; i < len(w.timestamps); i++ {
		if w.timestamps[i].After(cutoff) {
			break
		}
	}
	w.timestamps = w.timestamps[i:]
}

// Store keeps one sliding window per key.
type Store struct {
	mu      sync.Mutex
	windows map[string]*window
}

func New() *Store {
	return &Store{windows: make(map[string]*window)}
}

func (s *Store) Allow(_ context.Context, key string, limit int, span time.Duration) (ratelimit.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.windows[key]
	if w == nil {
		w = &window{span: span}
		s.windows[key] = w
	}
	now := time.Now()
	w.prune(now)

	if len(w.timestamps)+1 > limit {
		return ratelimit.Result{
			Allowed: false,
			Limit:   limit,
			ResetAt: w.timestamps[0].Add(span),
		}, nil
	}

	w.timestamps = append(w.timestamps, now)
	return ratelimit.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(w.timestamps),
		ResetAt:   w.timestamps[0].Add(span),
	}, nil
}

func (s *Store) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}
