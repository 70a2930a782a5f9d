package service_test

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
	"aide/internal/governance/service"
	resourcemem "aide/internal/governance/store/memory"
	id "aide/pkg/domain"
	"aide/pkg/requestcontext"
)

type stubResolver struct {
	resolved map[id.ResourceID]string
}

func (r *stubResolver) Resolve(_ context.Context, resourceID id.ResourceID, outcome string) {
	r.resolved[resourceID] = outcome
}

// ResolverSuite covers the review-outcome callback: once a reviewer decides,
// the pending approval task opened at submit time is closed with the verdict.
type ResolverSuite struct {
	suite.Suite
	ctx      context.Context
	engine   *service.Engine
	resolver *stubResolver

	author   actor.Context
	reviewer actor.Context
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.resolver = &stubResolver{resolved: map[id.ResourceID]string{}}

	logger := slog.New(slog.DiscardHandler)
	ledger := audit.NewLedger(auditmemory.New(), logger)
	s.engine = service.NewEngine("knowledge", knowledgePerms(), resourcemem.New(), &stubOpener{}, ledger, logger,
		service.WithApprovalResolver(s.resolver))

	s.author = actor.NewUser(id.UserID(uuid.New()), permWrite, permRead)
	s.reviewer = actor.NewUser(id.UserID(uuid.New()), permRead, permReview, permPublish)
}

func (s *ResolverSuite) pending() id.ResourceID {
	resource, err := s.engine.Create(s.ctx, s.author, service.NewResourceInput{
		Title:   "Doc",
		Content: "How to reset a password.",
	})
	s.Require().NoError(err)
	_, err = s.engine.SubmitForReview(s.ctx, s.author, resource.ID, "")
	s.Require().NoError(err)
	return resource.ID
}

func (s *ResolverSuite) TestApproveResolvesTask() {
	rid := s.pending()
	_, err := s.engine.Approve(s.ctx, s.reviewer, rid, "looks right")
	s.Require().NoError(err)
	s.Equal("approved", s.resolver.resolved[rid])
}

func (s *ResolverSuite) TestRejectResolvesTask() {
	rid := s.pending()
	_, err := s.engine.Reject(s.ctx, s.reviewer, rid, "missing steps")
	s.Require().NoError(err)
	s.Equal("rejected", s.resolver.resolved[rid])
}

func (s *ResolverSuite) TestFailedDecisionLeavesTaskOpen() {
	rid := s.pending()

	// The decision is refused before the transition, so nothing resolves.
	_, err := s.engine.Approve(s.ctx, s.author, rid, "")
	s.Require().Error(err)
	s.Empty(s.resolver.resolved)
}
