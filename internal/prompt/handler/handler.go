// Package handler exposes prompt template governance and activation over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aide/internal/actor"
	"aide/internal/governance/models"
	"aide/internal/governance/service"
	"aide/internal/platform/middleware"
	"aide/internal/prompt"
	"aide/internal/transport/http/shared"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
)

type Handler struct {
	logger  *slog.Logger
	service *prompt.Service
}

func New(service *prompt.Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the prompt template routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/active", h.handleActive)
	r.Get("/{templateID}", h.handleGet)
	r.Patch("/{templateID}", h.handleUpdate)
	r.Get("/{templateID}/versions", h.handleVersions)
	r.Post("/{templateID}/submit", h.handleSubmit)
	r.Post("/{templateID}/approve", h.handleApprove)
	r.Post("/{templateID}/reject", h.handleReject)
	r.Post("/{templateID}/publish", h.handlePublish)
	r.Post("/{templateID}/archive", h.handleArchive)
	r.Post("/{templateID}/activate", h.handleActivate)
}

type createRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Scope   string   `json:"scope,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type updateRequest struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

type reviewRequest struct {
	Notes  string `json:"notes,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	template, err := h.service.Create(r.Context(), act, prompt.TemplateInput{
		Title:   req.Title,
		Content: req.Content,
		Scope:   req.Scope,
		Tags:    req.Tags,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, template)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	q := r.URL.Query()
	filter := service.Filter{
		Status:   models.Status(q.Get("status")),
		AuthorID: q.Get("author_id"),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown status"))
		return
	}
	page := service.Page{Cursor: q.Get("cursor")}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be an integer"))
			return
		}
		page.Limit = n
	}
	result, err := h.service.List(r.Context(), act, filter, page)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

// handleActive resolves the template currently serving a scope. The assistant
// runtime calls this on session start.
func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	template, err := h.service.Active(r.Context(), r.URL.Query().Get("scope"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, template)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	act, templateID, ok := h.parse(w, r)
	if !ok {
		return
	}
	template, err := h.service.Get(r.Context(), act, templateID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, template)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	act, templateID, ok := h.parse(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	template, err := h.service.Update(r.Context(), act, templateID, models.Patch{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, template)
}

func (h *Handler) handleVersions(w http.ResponseWriter, r *http.Request) {
	act, templateID, ok := h.parse(w, r)
	if !ok {
		return
	}
	history, err := h.service.VersionHistory(r.Context(), act, templateID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"versions": history})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	act, templateID, ok := h.parse(w, r)
	if !ok {
		return
	}
	req := h.decodeReview(r)
	template, err := h.service.SubmitForReview(r.Context(), act, templateID, req.Notes)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, template)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	act, templateID, ok := h.parse(w, r)
	if !ok {
		return
	}
	req := h.decodeReview(r)
	template, err := h.service.Approve(r.Context(), act, templateID, req.Notes)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, template)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	act, templateID, ok := h.parse(w, r)
	if !ok {
		return
	}
	req := h.decodeReview(r)
	template, err := h.service.Reject(r.Context(), act, templateID, req.Reason)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, template)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	act, templateID, ok := h.parse(w, r)
	if !ok {
		return
	}
	template, err := h.service.Publish(r.Context(), act, templateID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, template)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	act, templateID, ok := h.parse(w, r)
	if !ok {
		return
	}
	req := h.decodeReview(r)
	template, err := h.service.Archive(r.Context(), act, templateID, req.Reason)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, template)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	act, templateID, ok := h.parse(w, r)
	if !ok {
		return
	}
	template, err := h.service.Activate(r.Context(), act, templateID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, template)
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (actor.Context, id.ResourceID, bool) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return actor.Context{}, id.ResourceID{}, false
	}
	templateID, err := id.ParseResourceID(chi.URLParam(r, "templateID"))
	if err != nil {
		shared.WriteError(w, err)
		return actor.Context{}, id.ResourceID{}, false
	}
	return act, templateID, true
}

func (h *Handler) decodeReview(r *http.Request) reviewRequest {
	var req reviewRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req
}
