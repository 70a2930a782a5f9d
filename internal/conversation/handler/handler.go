// Package handler exposes assistant conversations over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aide/internal/actor"
	"aide/internal/conversation"
	"aide/internal/platform/middleware"
	"aide/internal/transport/http/shared"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
)

type Handler struct {
	logger  *slog.Logger
	service *conversation.Service
}

func New(service *conversation.Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the conversation routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handleStart)
	r.Get("/", h.handleList)
	r.Get("/{conversationID}", h.handleGet)
	r.Get("/{conversationID}/messages", h.handleMessages)
	r.Post("/{conversationID}/messages", h.handleAppend)
	r.Post("/{conversationID}/tools", h.handleToolCall)
}

type startRequest struct {
	Title string `json:"title,omitempty"`
}

type appendRequest struct {
	Content string `json:"content"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	conv, err := h.service.Start(r.Context(), act, req.Title)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, conv)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	convs, err := h.service.List(r.Context(), act)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	act, convID, ok := h.parse(w, r)
	if !ok {
		return
	}
	conv, err := h.service.Get(r.Context(), act, convID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, conv)
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	act, convID, ok := h.parse(w, r)
	if !ok {
		return
	}
	msgs, err := h.service.Messages(r.Context(), act, convID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	act, convID, ok := h.parse(w, r)
	if !ok {
		return
	}
	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	msg, err := h.service.Append(r.Context(), act, convID, req.Content)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, msg)
}

func (h *Handler) handleToolCall(w http.ResponseWriter, r *http.Request) {
	act, convID, ok := h.parse(w, r)
	if !ok {
		return
	}
	var call conversation.ToolCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	result, err := h.service.CallTool(r.Context(), act, convID, call)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (actor.Context, id.ConversationID, bool) {
	act, ok := middleware.MustActor(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return actor.Context{}, id.ConversationID{}, false
	}
	convID, err := id.ParseConversationID(chi.URLParam(r, "conversationID"))
	if err != nil {
		shared.WriteError(w, err)
		return actor.Context{}, id.ConversationID{}, false
	}
	return act, convID, true
}
