package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"aide/pkg/requestcontext"
)

// Middleware enforces the limiter per client IP. Store failures fail open:
// an unavailable limiter must not take the API down with it.
func Middleware(limiter *Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			result, err := limiter.Allow(ctx, requestcontext.ClientIP(ctx))
			if err != nil {
				logger.ErrorContext(ctx, "rate limit check failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := max(int(time.Until(result.ResetAt).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"RATE_LIMITED","message":"too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
