// Package handler exposes the knowledge article lifecycle over HTTP.
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
	"aide/internal/knowledge"
	"aide/internal/platform/middleware"
	"aide/internal/transport/http/shared"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
)

type Handler struct {
	logger  *slog.Logger
	service *knowledge.Service
}

func New(service *knowledge.Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the knowledge routes. Authentication is applied by the
// parent router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{articleID}", h.handleGet)
	r.Patch("/{articleID}", h.handleUpdate)
	r.Get("/{articleID}/versions", h.handleVersions)
	r.Post("/{articleID}/submit", h.handleSubmit)
	r.Post("/{articleID}/approve", h.handleApprove)
	r.Post("/{articleID}/reject", h.handleReject)
	r.Post("/{articleID}/publish", h.handlePublish)
	r.Post("/{articleID}/archive", h.handleArchive)
}

type createRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type updateRequest struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Category *string   `json:"category,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
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
	article, err := h.service.Create(r.Context(), act, knowledge.ArticleInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, article)
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
		Category: q.Get("category"),
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

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	act, articleID, ok := h.parse(w, r)
	if !ok {
		return
	}
	article, err := h.service.Get(r.Context(), act, articleID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	act, articleID, ok := h.parse(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	article, err := h.service.Update(r.Context(), act, articleID, models.Patch{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) handleVersions(w http.ResponseWriter, r *http.Request) {
	act, articleID, ok := h.parse(w, r)
	if !ok {
		return
	}
	history, err := h.service.VersionHistory(r.Context(), act, articleID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"versions": history})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	act, articleID, ok := h.parse(w, r)
	if !ok {
		return
	}
	req := h.decodeReview(r)
	article, err := h.service.SubmitForReview(r.Context(), act, articleID, req.Notes)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	act, articleID, ok := h.parse(w, r)
	if !ok {
		return
	}
	req := h.decodeReview(r)
	article, err := h.service.Approve(r.Context(), act, articleID, req.Notes)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	act, articleID, ok := h.parse(w, r)
	if !ok {
		return
	}
	req := h.decodeReview(r)
	article, err := h.service.Reject(r.Context(), act, articleID, req.Reason)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	act, articleID, ok := h.parse(w, r)
	if !ok {
		return
	}
	article, err := h.service.Publish(r.Context(), act, articleID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	act, articleID, ok := h.parse(w, r)
	if !ok {
		return
	}
	req := h.decodeReview(r)
	article, err := h.service.Archive(r.Context(), act, articleID, req.Reason)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (actor.Context, id.ResourceID, bool) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return actor.Context{}, id.ResourceID{}, false
	}
	articleID, err := id.ParseResourceID(chi.URLParam(r, "articleID"))
	if err != nil {
		shared.WriteError(w, err)
		return actor.Context{}, id.ResourceID{}, false
	}
	return act, articleID, true
}

// decodeReview tolerates an empty body; notes and reason default to "".
func (h *Handler) decodeReview(r *http.Request) reviewRequest {
	var req reviewRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req
}
