package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"aide/internal/actor"
	"aide/internal/audit"
	"aide/internal/billing"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
	"aide/pkg/platform/sentinel"
	"aide/pkg/requestcontext"
)

// ToolDispatcher executes a tool call on behalf of a conversation turn.
// Implementations live outside this module; the service only gates and
// forwards.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, act actor.Context, call ToolCall) (ToolResult, error)
}

// Auditor records conversation events. *audit.Ledger satisfies this.
type Auditor interface {
	Log(ctx context.Context, act actor.Context, rec audit.Record) error
}

// Service owns chat sessions: creation, turn append, and the entitlement
// gate in front of tool-bearing turns.
type Service struct {
	store        Store
	entitlements *billing.Service
	tools        ToolDispatcher
	auditor      Auditor
	logger       *slog.Logger
}

func NewService(store Store, entitlements *billing.Service, tools ToolDispatcher, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{store: store, entitlements: entitlements, tools: tools, auditor: auditor, logger: logger}
}

// Start opens a conversation owned by the acting user. Assistant actors
// never own conversations.
func (s *Service) Start(ctx context.Context, act actor.Context, title string) (*Conversation, error) {
	if act.Kind == actor.KindAI {
		return nil, dErrors.New(dErrors.CodeForbidden, "assistant actors cannot open conversations")
	}
	now := requestcontext.Now(ctx)
	conv := &Conversation{
		ID:        id.ConversationID(uuid.New()),
		OwnerID:   act.UserID(),
		Title:     strings.TrimSpace(title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create conversation")
	}
	s.audit(ctx, act, "conversation.create", conv.ID.String(), nil)
	return conv, nil
}

// Get returns a conversation visible to the actor: owner, system, or the
// assistant serving the session.
func (s *Service) Get(ctx context.Context, act actor.Context, convID id.ConversationID) (*Conversation, error) {
	conv, err := s.fetch(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(act, conv) {
		return nil, dErrors.New(dErrors.CodeForbidden, "conversation is not visible to this actor")
	}
	return conv, nil
}

// List returns the acting user's own conversations.
func (s *Service) List(ctx context.Context, act actor.Context) ([]*Conversation, error) {
	if act.Kind == actor.KindAI {
		return nil, dErrors.New(dErrors.CodeForbidden, "assistant actors cannot list conversations")
	}
	convs, err := s.store.ListByOwner(ctx, act.UserID())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list conversations")
	}
	return convs, nil
}

// Append records one turn. User turns must come from the owner; assistant
// turns from the assistant actor.
func (s *Service) Append(ctx context.Context, act actor.Context, convID id.ConversationID, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "message content is required")
	}
	conv, err := s.fetch(ctx, convID)
	if err != nil {
		return nil, err
	}

	role := RoleUser
	switch act.Kind {
	case actor.KindAI:
		role = RoleAssistant
	case actor.KindSystem:
		// system writes are allowed on any conversation
	default:
		if conv.OwnerID != act.UserID() {
			return nil, dErrors.New(dErrors.CodeForbidden, "only the owner may post to this conversation")
		}
	}

	msg := &Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		Role:           role,
		Content:        content,
		CreatedAt:      requestcontext.Now(ctx),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append message")
	}
	s.audit(ctx, act, "conversation.message", convID.String(), map[string]any{"role": string(role)})
	return msg, nil
}

// Messages returns the full turn history, oldest first.
func (s *Service) Messages(ctx context.Context, act actor.Context, convID id.ConversationID) ([]*Message, error) {
	conv, err := s.fetch(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(act, conv) {
		return nil, dErrors.New(dErrors.CodeForbidden, "conversation is not visible to this actor")
	}
	msgs, err := s.store.ListMessages(ctx, convID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list messages")
	}
	return msgs, nil
}

// CallTool forwards a tool call for a conversation after the entitlement
// check. The owner's plan, not the assistant's identity, is what gets
// checked: tool use is billed to the conversation owner.
func (s *Service) CallTool(ctx context.Context, act actor.Context, convID id.ConversationID, call ToolCall) (ToolResult, error) {
	if s.tools == nil {
		return ToolResult{}, dErrors.New(dErrors.CodeInternal, "no tool dispatcher configured")
	}
	conv, err := s.fetch(ctx, convID)
	if err != nil {
		return ToolResult{}, err
	}
	if !s.canAccess(act, conv) {
		return ToolResult{}, dErrors.New(dErrors.CodeForbidden, "conversation is not visible to this actor")
	}

	owner := actor.Context{Kind: actor.KindUser}
	if parsed, err := id.ParseUserID(conv.OwnerID); err == nil {
		owner = actor.NewUser(parsed)
	}
	if err := s.entitlements.Require(ctx, owner, billing.FeatureTools); err != nil {
		return ToolResult{}, err
	}

	result, err := s.tools.Dispatch(ctx, act, call)
	if err != nil {
		// Typed tool failures keep their code; only untyped ones are masked.
		var de *dErrors.Error
		if errors.As(err, &de) {
			return ToolResult{}, err
		}
		return ToolResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "tool dispatch failed")
	}
	s.audit(ctx, act, "conversation.tool_call", convID.String(), map[string]any{"tool": call.Name})
	return result, nil
}

func (s *Service) fetch(ctx context.Context, convID id.ConversationID) (*Conversation, error) {
	conv, err := s.store.GetConversation(ctx, convID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "conversation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load conversation")
	}
	return conv, nil
}

func (s *Service) canAccess(act actor.Context, conv *Conversation) bool {
	switch act.Kind {
	case actor.KindSystem, actor.KindAI:
		return true
	default:
		return conv.OwnerID == act.UserID()
	}
}

func (s *Service) audit(ctx context.Context, act actor.Context, action, convID string, details map[string]any) {
	rec := audit.Record{
		Action:       action,
		ResourceType: "conversation",
		ResourceID:   convID,
		Details:      details,
	}
	if err := s.auditor.Log(ctx, act, rec); err != nil {
		s.logger.WarnContext(ctx, "audit entry lost for conversation event", "action", action, "error", err)
	}
}
