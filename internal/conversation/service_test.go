package conversation_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aide/internal/actor"
	"aide/internal/audit"
	auditmemory "aide/internal/audit/store/memory"
	"aide/internal/billing"
	"aide/internal/conversation"
	convmemory "aide/internal/conversation/store/memory"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
	"aide/pkg/requestcontext"
)

type stubDispatcher struct {
	calls []conversation.ToolCall
}

func (d *stubDispatcher) Dispatch(_ context.Context, _ actor.Context, call conversation.ToolCall) (conversation.ToolResult, error) {
	d.calls = append(d.calls, call)
	return conversation.ToolResult{Output: map[string]any{"ok": true}}, nil
}

type ConversationSuite struct {
	suite.Suite
	ctx        context.Context
	svc        *conversation.Service
	auditStore *auditmemory.Store
	dispatcher *stubDispatcher
	plans      billing.StaticPlans

	owner actor.Context
	ai    actor.Context
}

func TestConversationSuite(t *testing.T) {
	suite.Run(t, new(ConversationSuite))
}

func (s *ConversationSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.auditStore = auditmemory.New()
	s.dispatcher = &stubDispatcher{}
	logger := slog.New(slog.DiscardHandler)
	ledger := audit.NewLedger(s.auditStore, logger)

	s.owner = actor.NewUser(id.UserID(uuid.New()))
	s.ai = actor.NewAI()
	s.plans = billing.StaticPlans{s.owner.UserID(): billing.PlanPro}

	entitlements := billing.NewService(s.plans, ledger, logger)
	s.svc = conversation.NewService(convmemory.New(), entitlements, s.dispatcher, ledger, logger)
}

func (s *ConversationSuite) start() *conversation.Conversation {
	conv, err := s.svc.Start(s.ctx, s.owner, "billing question")
	s.Require().NoError(err)
	return conv
}

func (s *ConversationSuite) TestStart() {
	s.Run("owner opens a conversation", func() {
		conv := s.start()
		s.Equal(s.owner.UserID(), conv.OwnerID)
		s.Equal("billing question", conv.Title)
	})

	s.Run("assistant actors cannot open conversations", func() {
		_, err := s.svc.Start(s.ctx, s.ai, "x")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("creation is audited", func() {
		before := len(s.auditStore.All())
		conv := s.start()
		entries := s.auditStore.All()
		s.Require().Len(entries, before+1)
		s.Equal("conversation.create", entries[len(entries)-1].Action)
		s.Equal(conv.ID.String(), entries[len(entries)-1].ResourceID)
	})
}

func (s *ConversationSuite) TestAppend() {
	conv := s.start()

	s.Run("owner turn is a user message", func() {
		msg, err := s.svc.Append(s.ctx, s.owner, conv.ID, "How do I update my card?")
		s.Require().NoError(err)
		s.Equal(conversation.RoleUser, msg.Role)
	})

	s.Run("assistant turn is an assistant message", func() {
		msg, err := s.svc.Append(s.ctx, s.ai, conv.ID, "You can update it under Settings.")
		s.Require().NoError(err)
		s.Equal(conversation.RoleAssistant, msg.Role)
	})

	s.Run("strangers cannot post", func() {
		stranger := actor.NewUser(id.UserID(uuid.New()))
		_, err := s.svc.Append(s.ctx, stranger, conv.ID, "hi")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("blank content is a validation error", func() {
		_, err := s.svc.Append(s.ctx, s.owner, conv.ID, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("history comes back oldest first", func() {
		msgs, err := s.svc.Messages(s.ctx, s.owner, conv.ID)
		s.Require().NoError(err)
		s.Require().Len(msgs, 2)
		s.Equal(conversation.RoleUser, msgs[0].Role)
		s.Equal(conversation.RoleAssistant, msgs[1].Role)
	})
}

func (s *ConversationSuite) TestList() {
	s.start()
	s.start()

	convs, err := s.svc.List(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Len(convs, 2)

	other := actor.NewUser(id.UserID(uuid.New()))
	convs, err = s.svc.List(s.ctx, other)
	s.Require().NoError(err)
	s.Empty(convs)
}

func (s *ConversationSuite) TestCallTool() {
	conv := s.start()
	call := conversation.ToolCall{Name: "kb.search", Arguments: map[string]any{"q": "refund"}}

	s.Run("pro plan owner may use tools", func() {
		result, err := s.svc.CallTool(s.ctx, s.ai, conv.ID, call)
		s.Require().NoError(err)
		s.Equal(true, result.Output["ok"])
		s.Require().Len(s.dispatcher.calls, 1)
		s.Equal("kb.search", s.dispatcher.calls[0].Name)
	})

	s.Run("free plan owner is denied and the denial is audited", func() {
		delete(s.plans, s.owner.UserID())
		before := len(s.auditStore.All())

		_, err := s.svc.CallTool(s.ctx, s.ai, conv.ID, call)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeForbidden))

		entries := s.auditStore.All()
		s.Require().Len(entries, before+1)
		s.Equal("billing.entitlement_denied", entries[len(entries)-1].Action)
		s.Equal(string(billing.FeatureTools), entries[len(entries)-1].ResourceID)
	})
}
