// Package handler exposes the reviewer inbox of open approval tasks.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aide/internal/approval"
	"aide/internal/platform/middleware"
	"aide/internal/transport/http/shared"
	dErrors "aide/pkg/domain-errors"
)

type Handler struct {
	logger  *slog.Logger
	service *approval.Service
}

func New(service *approval.Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the approval routes. Tasks open and close as a side effect
// of governance transitions; the HTTP surface is read-only.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleInbox)
}

func (h *Handler) handleInbox(w http.ResponseWriter, r *http.Request) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	tasks, err := h.service.Inbox(r.Context(), act, r.URL.Query().Get("resource_type"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}
