// Package ratelimit applies a per-client sliding-window request limit in
// front of the API. The window algorithm avoids the burst-at-the-boundary
// problem of fixed buckets.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Result is one limit decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store counts requests per key within a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	Reset(ctx context.Context, key string) error
}

// Limiter binds a store to one limit/window policy.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

func NewLimiter(store Store, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, logger: logger}
}

// Allow decides whether the keyed caller may proceed.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	return l.store.Allow(ctx, key, l.limit, l.window)
}
