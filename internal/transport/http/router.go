// Package httptransport assembles the HTTP surface: middleware chain, public
// health and metrics endpoints, the bearer-authenticated API, and the
// admin-gated operator routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "aide/internal/admin/handler"
	approvalhandler "aide/internal/approval/handler"
	audithandler "aide/internal/audit/handler"
	conversationhandler "aide/internal/conversation/handler"
	knowledgehandler "aide/internal/knowledge/handler"
	memoryhandler "aide/internal/memorybank/handler"
	"aide/internal/platform/metrics"
	"aide/internal/platform/middleware"
	prompthandler "aide/internal/prompt/handler"
	"aide/internal/transport/http/shared"
)

// RequestTimeout bounds every handler, well under the server's write timeout.
const RequestTimeout = 30 * time.Second

// Handlers collects the domain handlers the router mounts.
type Handlers struct {
	Knowledge    *knowledgehandler.Handler
	Prompt       *prompthandler.Handler
	Audit        *audithandler.Handler
	Approval     *approvalhandler.Handler
	Conversation *conversationhandler.Handler
	Memory       *memoryhandler.Handler
	Admin        *adminhandler.Handler
}

// Options carries the cross-cutting pieces of the chain.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TokenValidator middleware.TokenValidator
	AdminTokenHash string
	AllowedOrigins []string
	// RateLimit is optional; nil disables limiting.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter builds the full route tree.
func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Latency(opts.Metrics))
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Everything under /v1 requires a valid bearer token.
	r.Route("/v1", func(r chi.Router) {
		if opts.RateLimit != nil {
			r.Use(opts.RateLimit)
		}
		r.Use(middleware.RequireActor(opts.TokenValidator, opts.Logger))
		r.Route("/knowledge", h.Knowledge.Register)
		r.Route("/prompts", h.Prompt.Register)
		r.Route("/audit", h.Audit.Register)
		r.Route("/approvals", h.Approval.Register)
		r.Route("/conversations", h.Conversation.Register)
		r.Route("/memories", h.Memory.Register)
	})

	// Operator surface, gated by the shared admin token instead of bearer
	// auth. Disabled entirely when no hash is configured.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(opts.AdminTokenHash, opts.Logger))
		h.Admin.Register(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
