package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"aide/internal/actor"
	"aide/internal/platform/token"
	"aide/pkg/requestcontext"
)

// TokenValidator validates a bearer token into claims.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// RequireActor validates the bearer token, builds the actor context it
// stands for, stamps it with the request's provenance, and stores it in the
// request context. Requests without a valid token are rejected with 401.
func RequireActor(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized - missing bearer token", "path", r.URL.Path)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.Validate(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized - invalid token", "error", err, "path", r.URL.Path)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}
			act, err := token.ActorFrom(claims)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized - unusable claims", "error", err, "path", r.URL.Path)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			act = act.WithRequest(
				requestcontext.RequestID(ctx),
				requestcontext.ClientIP(ctx),
				requestcontext.UserAgent(ctx),
			)

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, act)))
		})
	}
}

// MustActor pulls the authenticated actor out of the request context.
// Handlers behind RequireActor may assume the second return is true.
func MustActor(r *http.Request) (actor.Context, bool) {
	return requestcontext.Actor(r.Context())
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"UNAUTHORIZED","error_description":"` + description + `"}`))
}
