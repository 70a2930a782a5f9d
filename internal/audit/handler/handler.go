// Package handler exposes read access to the audit ledger.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"aide/internal/audit"
	"aide/internal/platform/middleware"
	"aide/internal/transport/http/shared"
	dErrors "aide/pkg/domain-errors"
)

type Handler struct {
	logger *slog.Logger
	ledger *audit.Ledger
}

func New(ledger *audit.Ledger, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, ledger: ledger}
}

// Register mounts the ledger query routes. Writes have no HTTP surface; the
// ledger is only ever written by services.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleQuery)
	r.Get("/resources/{resourceType}/{resourceID}", h.handleResourceHistory)
	r.Get("/actors/{actorID}", h.handleActorHistory)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	q := r.URL.Query()
	filter := audit.Filter{
		ActorID:      q.Get("actor_id"),
		ActorType:    q.Get("actor_type"),
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
	}
	var err error
	if filter.Since, err = parseTime(q.Get("since")); err != nil {
		shared.WriteError(w, err)
		return
	}
	if filter.Until, err = parseTime(q.Get("until")); err != nil {
		shared.WriteError(w, err)
		return
	}
	page, err := parsePage(q.Get("limit"), q.Get("cursor"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	result, err := h.ledger.Query(r.Context(), act, filter, page)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleResourceHistory(w http.ResponseWriter, r *http.Request) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	entries, err := h.ledger.ResourceHistory(r.Context(), act,
		chi.URLParam(r, "resourceType"), chi.URLParam(r, "resourceID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleActorHistory(w http.ResponseWriter, r *http.Request) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	page, err := parsePage(r.URL.Query().Get("limit"), r.URL.Query().Get("cursor"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	result, err := h.ledger.ActorHistory(r.Context(), act, chi.URLParam(r, "actorID"), page)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func parsePage(rawLimit, cursor string) (audit.Page, error) {
	page := audit.Page{Cursor: cursor}
	if rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil {
			return audit.Page{}, dErrors.New(dErrors.CodeInvalidInput, "limit must be an integer")
		}
		page.Limit = n
	}
	return page, nil
}

func parseTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "timestamps must be RFC 3339")
	}
	return &t, nil
}
