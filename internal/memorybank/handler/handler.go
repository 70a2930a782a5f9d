// Package handler exposes the long-term memory bank over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aide/internal/memorybank"
	"aide/internal/platform/middleware"
	"aide/internal/transport/http/shared"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
)

type Handler struct {
	logger  *slog.Logger
	service *memorybank.Service
}

func New(service *memorybank.Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the memory routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handleSave)
	r.Get("/", h.handleList)
	r.Delete("/{memoryID}", h.handleForget)
}

type saveRequest struct {
	// UserID is whose memory this is. Empty means the caller's own.
	UserID  string `json:"user_id,omitempty"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = act.UserID()
	}
	entry, err := h.service.Save(r.Context(), act, userID, req.Content, req.Source)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = act.UserID()
	}
	entries, err := h.service.List(r.Context(), act, userID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"memories": entries})
}

func (h *Handler) handleForget(w http.ResponseWriter, r *http.Request) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	memoryID, err := id.ParseMemoryID(chi.URLParam(r, "memoryID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Forget(r.Context(), act, memoryID); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}
