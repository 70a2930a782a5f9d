package testutil

import (
	"net/http"
	"time"

	"aide/internal/actor"
	"aide/pkg/requestcontext"
)

// WithActor stamps an authenticated actor onto the request, simulating what
// the auth middleware does after validating a token.
func WithActor(req *http.Request, act actor.Context) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), act))
}

// WithFrozenTime pins the request clock so handlers produce deterministic
// timestamps.
func WithFrozenTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}
