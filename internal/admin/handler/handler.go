// Package handler is the operator surface: token minting for actors. It sits
// behind the shared-secret admin gate, not behind bearer auth.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"aide/internal/actor"
	"aide/internal/platform/token"
	"aide/internal/transport/http/shared"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
)

// DefaultTokenTTL applies when a mint request names no expiry.
const DefaultTokenTTL = time.Hour

type Handler struct {
	logger *slog.Logger
	tokens *token.Service
}

func New(tokens *token.Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, tokens: tokens}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/tokens", h.handleMintToken)
}

type mintRequest struct {
	Kind        string   `json:"kind"`
	Subject     string   `json:"subject,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	TTL         string   `json:"ttl,omitempty"`
}

type mintResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleMintToken(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	ttl := DefaultTokenTTL
	if req.TTL != "" {
		parsed, err := time.ParseDuration(req.TTL)
		if err != nil || parsed <= 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "ttl must be a positive duration"))
			return
		}
		ttl = parsed
	}

	act, err := actorFor(req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	signed, err := h.tokens.Issue(act, ttl)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token mint failed", "error", err, "kind", req.Kind)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "could not issue token"))
		return
	}

	h.logger.InfoContext(r.Context(), "token minted", "kind", req.Kind, "subject", req.Subject, "ttl", ttl.String())
	shared.WriteJSON(w, http.StatusCreated, mintResponse{
		Token:     signed,
		ExpiresAt: time.Now().Add(ttl),
	})
}

func actorFor(req mintRequest) (actor.Context, error) {
	switch actor.Kind(req.Kind) {
	case actor.KindSystem:
		return actor.NewSystem(), nil
	case actor.KindAI:
		return actor.NewAI(), nil
	case actor.KindUser, actor.KindAdmin:
		userID, err := id.ParseUserID(req.Subject)
		if err != nil {
			return actor.Context{}, dErrors.New(dErrors.CodeInvalidInput, "subject must be the account UUID")
		}
		if actor.Kind(req.Kind) == actor.KindAdmin {
			return actor.NewAdmin(userID, req.Permissions...), nil
		}
		return actor.NewUser(userID, req.Permissions...), nil
	default:
		return actor.Context{}, dErrors.New(dErrors.CodeInvalidInput, "kind must be one of user, admin, system, ai")
	}
}
