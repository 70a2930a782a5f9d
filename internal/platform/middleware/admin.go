package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// RequireAdminToken guards operator surfaces with a shared token checked
// against its bcrypt hash. An empty hash disables the surfaces entirely
// rather than leaving them open.
func RequireAdminToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				http.NotFound(w, r)
				return
			}
			provided := r.Header.Get("X-Admin-Token")
			if provided == "" {
				writeUnauthorized(w, "Missing admin token")
				return
			}
			if bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(provided)) != nil {
				logger.WarnContext(r.Context(), "admin token rejected", "path", r.URL.Path)
				writeUnauthorized(w, "Invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
