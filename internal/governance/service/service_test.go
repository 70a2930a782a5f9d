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
	"aide/internal/governance/models"
	"aide/internal/governance/service"
	resourcemem "aide/internal/governance/store/memory"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
	"aide/pkg/requestcontext"
)

// stubOpener records approval requests and can be told to fail.
type stubOpener struct {
	opened []service.ApprovalRequest
	err    error
}

func (o *stubOpener) Open(_ context.Context, _ actor.Context, req service.ApprovalRequest) (service.ApprovalTicket, error) {
	if o.err != nil {
		return service.ApprovalTicket{}, o.err
	}
	o.opened = append(o.opened, req)
	return service.ApprovalTicket{ID: "apr-" + req.ResourceID.String()}, nil
}

type EngineSuite struct {
	suite.Suite
	ctx        context.Context
	engine     *service.Engine
	auditStore *auditmemory.Store
	opener     *stubOpener

	author   actor.Context
	reviewer actor.Context
	system   actor.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

const (
	permRead    = "knowledge:read"
	permWrite   = "knowledge:write"
	permReview  = "knowledge:review"
	permPublish = "knowledge:publish"
)

func knowledgePerms() service.Permissions {
	return service.Permissions{Read: permRead, Write: permWrite, Review: permReview, Publish: permPublish}
}

func (s *EngineSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.auditStore = auditmemory.New()
	s.opener = &stubOpener{}

	logger := slog.New(slog.DiscardHandler)
	ledger := audit.NewLedger(s.auditStore, logger)
	s.engine = service.NewEngine("knowledge", knowledgePerms(), resourcemem.New(), s.opener, ledger, logger)

	s.author = actor.NewUser(id.UserID(uuid.New()), permWrite, permRead)
	s.reviewer = actor.NewUser(id.UserID(uuid.New()), permRead, permReview, permPublish)
	s.system = actor.NewSystem()
}

func (s *EngineSuite) create() *models.Resource {
	resource, err := s.engine.Create(s.ctx, s.author, service.NewResourceInput{
		Title:   "Doc",
		Content: "How to reset a password.",
	})
	s.Require().NoError(err)
	return resource
}

func (s *EngineSuite) submit(rid id.ResourceID) *models.Resource {
	resource, err := s.engine.SubmitForReview(s.ctx, s.author, rid, "")
	s.Require().NoError(err)
	return resource
}

func (s *EngineSuite) walkToPublished() *models.Resource {
	resource := s.create()
	s.submit(resource.ID)
	_, err := s.engine.Approve(s.ctx, s.reviewer, resource.ID, "")
	s.Require().NoError(err)
	published, err := s.engine.Publish(s.ctx, s.reviewer, resource.ID)
	s.Require().NoError(err)
	return published
}

// TestCreate verifies every new resource starts as a version-1 draft owned
// by the acting identity.
func (s *EngineSuite) TestCreate() {
	s.Run("yields draft at version 1 with actor as author", func() {
		resource := s.create()
		s.Equal(models.StatusDraft, resource.Status)
		s.Equal(1, resource.Version)
		s.Equal(s.author.UserID(), resource.AuthorID)
		s.Empty(resource.ReviewerID)
	})

	s.Run("requires the write permission", func() {
		bystander := actor.NewUser(id.UserID(uuid.New()), permRead)
		_, err := s.engine.Create(s.ctx, bystander, service.NewResourceInput{Title: "x", Content: "y"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("ai is denied regardless of permission strings", func() {
		armed := actor.Context{Kind: actor.KindAI, Permissions: []string{actor.Wildcard}}
		_, err := s.engine.Create(s.ctx, armed, service.NewResourceInput{Title: "x", Content: "y"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("system needs no grants", func() {
		resource, err := s.engine.Create(s.ctx, s.system, service.NewResourceInput{Title: "x", Content: "y"})
		s.Require().NoError(err)
		s.Equal(actor.SystemActorID, resource.AuthorID)
	})

	s.Run("missing content is a validation error", func() {
		_, err := s.engine.Create(s.ctx, s.author, service.NewResourceInput{Title: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// TestUpdate_Versioning verifies the content-change invariant: bump by
// exactly 1 on content edits, never on metadata edits.
func (s *EngineSuite) TestUpdate_Versioning() {
	s.Run("content change bumps version by exactly 1 and snapshots", func() {
		resource := s.create()
		content := "How to reset a password, now with MFA."
		updated, err := s.engine.Update(s.ctx, s.author, resource.ID, models.Patch{Content: &content})
		s.Require().NoError(err)
		s.Equal(2, updated.Version)

		history, err := s.engine.VersionHistory(s.ctx, s.author, resource.ID)
		s.Require().NoError(err)
		s.Require().Len(history, 1)
		s.Equal(1, history[0].Version)
		s.Equal("How to reset a password.", history[0].Content)
	})

	s.Run("metadata-only change leaves version alone", func() {
		resource := s.create()
		category := "account"
		updated, err := s.engine.Update(s.ctx, s.author, resource.ID, models.Patch{Category: &category})
		s.Require().NoError(err)
		s.Equal(1, updated.Version)
		s.Equal("account", updated.Category)
	})

	s.Run("no-op patch changes nothing and audits nothing", func() {
		resource := s.create()
		before := len(s.auditStore.All())
		same := resource.Title
		updated, err := s.engine.Update(s.ctx, s.author, resource.ID, models.Patch{Title: &same})
		s.Require().NoError(err)
		s.Equal(1, updated.Version)
		s.Len(s.auditStore.All(), before)
	})

	s.Run("published resources are frozen", func() {
		resource := s.walkToPublished()
		content := "tampering"
		_, err := s.engine.Update(s.ctx, s.reviewer, resource.ID, models.Patch{Content: &content})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("strangers cannot edit", func() {
		resource := s.create()
		stranger := actor.NewUser(id.UserID(uuid.New()), permWrite)
		title := "hijacked"
		_, err := s.engine.Update(s.ctx, stranger, resource.ID, models.Patch{Title: &title})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// TestSubmit verifies submit is legal only from draft and opens an approval
// request with the collaborator.
func (s *EngineSuite) TestSubmit() {
	s.Run("draft moves to pending_review and opens approval request", func() {
		resource := s.create()
		updated := s.submit(resource.ID)
		s.Equal(models.StatusPendingReview, updated.Status)
		s.Require().Len(s.opener.opened, 1)
		s.Equal(resource.ID, s.opener.opened[0].ResourceID)
		s.Equal("knowledge", s.opener.opened[0].ResourceType)
	})

	s.Run("submit from pending_review is an invalid state", func() {
		resource := s.create()
		s.submit(resource.ID)
		_, err := s.engine.SubmitForReview(s.ctx, s.author, resource.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("only the author may submit", func() {
		resource := s.create()
		_, err := s.engine.SubmitForReview(s.ctx, s.reviewer, resource.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("approval collaborator outage does not lose the submit", func() {
		resource := s.create()
		s.opener.err = context.DeadlineExceeded
		updated, err := s.engine.SubmitForReview(s.ctx, s.author, resource.ID, "")
		s.Require().NoError(err)
		s.Equal(models.StatusPendingReview, updated.Status)
	})

	s.Run("unknown resource is not found", func() {
		_, err := s.engine.SubmitForReview(s.ctx, s.author, id.ResourceID(uuid.New()), "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestApprove covers the self-approval rule and reviewer stamping.
func (s *EngineSuite) TestApprove() {
	s.Run("reviewer approval records the reviewer", func() {
		resource := s.create()
		s.submit(resource.ID)
		updated, err := s.engine.Approve(s.ctx, s.reviewer, resource.ID, "looks good")
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, updated.Status)
		s.Equal(s.reviewer.UserID(), updated.ReviewerID)
	})

	s.Run("author cannot approve own item even with review permission", func() {
		authorWithReview := actor.NewUser(s.author.ID, permWrite, permReview)
		resource, err := s.engine.Create(s.ctx, authorWithReview, service.NewResourceInput{Title: "Doc", Content: "c"})
		s.Require().NoError(err)
		_, err = s.engine.SubmitForReview(s.ctx, authorWithReview, resource.ID, "")
		s.Require().NoError(err)

		_, err = s.engine.Approve(s.ctx, authorWithReview, resource.ID, "")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Contains(err.Error(), "cannot approve own item")
	})

	s.Run("system may approve its own authored item", func() {
		resource, err := s.engine.Create(s.ctx, s.system, service.NewResourceInput{Title: "Doc", Content: "c"})
		s.Require().NoError(err)
		_, err = s.engine.SubmitForReview(s.ctx, s.system, resource.ID, "")
		s.Require().NoError(err)

		updated, err := s.engine.Approve(s.ctx, s.system, resource.ID, "")
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, updated.Status)
		s.Equal(actor.SystemActorID, updated.ReviewerID)
	})

	s.Run("approve from draft is an invalid state", func() {
		resource := s.create()
		_, err := s.engine.Approve(s.ctx, s.reviewer, resource.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

// TestReject covers the reason requirement and the reviewer-clearing rule.
func (s *EngineSuite) TestReject() {
	s.Run("reject returns to draft, clears reviewer, resubmit is legal", func() {
		resource := s.create()
		s.submit(resource.ID)
		rejected, err := s.engine.Reject(s.ctx, s.reviewer, resource.ID, "needs more detail")
		s.Require().NoError(err)
		s.Equal(models.StatusDraft, rejected.Status)
		s.Empty(rejected.ReviewerID)

		resubmitted, err := s.engine.SubmitForReview(s.ctx, s.author, resource.ID, "")
		s.Require().NoError(err)
		s.Equal(models.StatusPendingReview, resubmitted.Status)
	})

	s.Run("blank reason is a validation error", func() {
		resource := s.create()
		s.submit(resource.ID)
		_, err := s.engine.Reject(s.ctx, s.reviewer, resource.ID, "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("reject from approved is an invalid state", func() {
		resource := s.create()
		s.submit(resource.ID)
		_, err := s.engine.Approve(s.ctx, s.reviewer, resource.ID, "")
		s.Require().NoError(err)

		_, err = s.engine.Reject(s.ctx, s.reviewer, resource.ID, "needs more detail")
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

// TestPublish covers the approved-only precondition and publishedAt.
func (s *EngineSuite) TestPublish() {
	s.Run("approved resource publishes with publishedAt set", func() {
		resource := s.walkToPublished()
		s.Equal(models.StatusPublished, resource.Status)
		s.Require().NotNil(resource.PublishedAt)
		s.Equal(requestcontext.Now(s.ctx), *resource.PublishedAt)
	})

	s.Run("publish from pending_review is an invalid state", func() {
		resource := s.create()
		s.submit(resource.ID)
		_, err := s.engine.Publish(s.ctx, s.reviewer, resource.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("publish requires the publish permission", func() {
		resource := s.create()
		s.submit(resource.ID)
		onlyReview := actor.NewUser(id.UserID(uuid.New()), permReview)
		_, err := s.engine.Approve(s.ctx, onlyReview, resource.ID, "")
		s.Require().NoError(err)
		_, err = s.engine.Publish(s.ctx, onlyReview, resource.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// TestArchive covers terminality and the strict double-archive error.
func (s *EngineSuite) TestArchive() {
	s.Run("archive succeeds from every non-archived status", func() {
		for _, prepare := range []func() *models.Resource{
			func() *models.Resource { return s.create() },
			func() *models.Resource { r := s.create(); return s.submit(r.ID) },
			func() *models.Resource {
				r := s.create()
				s.submit(r.ID)
				approved, err := s.engine.Approve(s.ctx, s.reviewer, r.ID, "")
				s.Require().NoError(err)
				return approved
			},
			func() *models.Resource { return s.walkToPublished() },
		} {
			resource := prepare()
			archived, err := s.engine.Archive(s.ctx, s.author, resource.ID, "cleanup")
			s.Require().NoError(err)
			s.Equal(models.StatusArchived, archived.Status)
		}
	})

	s.Run("archiving an archived resource is an invalid state", func() {
		resource := s.create()
		_, err := s.engine.Archive(s.ctx, s.author, resource.ID, "")
		s.Require().NoError(err)
		_, err = s.engine.Archive(s.ctx, s.author, resource.ID, "")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Contains(err.Error(), "already archived")
	})

	s.Run("bystanders cannot archive", func() {
		resource := s.create()
		stranger := actor.NewUser(id.UserID(uuid.New()), permWrite)
		_, err := s.engine.Archive(s.ctx, stranger, resource.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// TestAIDenials pins the full matrix: assistant actors are denied every
// mutating operation regardless of permission strings.
func (s *EngineSuite) TestAIDenials() {
	resource := s.create()
	armed := actor.Context{Kind: actor.KindAI, Permissions: []string{actor.Wildcard}}
	title := "x"

	calls := map[string]func() error{
		"create": func() error {
			_, err := s.engine.Create(s.ctx, armed, service.NewResourceInput{Title: "x", Content: "y"})
			return err
		},
		"update": func() error {
			_, err := s.engine.Update(s.ctx, armed, resource.ID, models.Patch{Title: &title})
			return err
		},
		"submit": func() error {
			_, err := s.engine.SubmitForReview(s.ctx, armed, resource.ID, "")
			return err
		},
		"approve": func() error {
			_, err := s.engine.Approve(s.ctx, armed, resource.ID, "")
			return err
		},
		"reject": func() error {
			_, err := s.engine.Reject(s.ctx, armed, resource.ID, "because")
			return err
		},
		"publish": func() error {
			_, err := s.engine.Publish(s.ctx, armed, resource.ID)
			return err
		},
	}
	for op, call := range calls {
		s.Run(op, func() {
			s.True(dErrors.HasCode(call(), dErrors.CodeForbidden))
		})
	}
}

// TestAuditTrail verifies every successful mutation emits exactly one entry
// with matching resource and actor.
func (s *EngineSuite) TestAuditTrail() {
	resource := s.create()
	s.submit(resource.ID)
	_, err := s.engine.Approve(s.ctx, s.reviewer, resource.ID, "")
	s.Require().NoError(err)
	_, err = s.engine.Publish(s.ctx, s.reviewer, resource.ID)
	s.Require().NoError(err)
	_, err = s.engine.Archive(s.ctx, s.reviewer, resource.ID, "sunset")
	s.Require().NoError(err)

	entries := s.auditStore.All()
	s.Require().Len(entries, 5)

	actions := make([]string, len(entries))
	for i, entry := range entries {
		actions[i] = entry.Action
		s.Equal(resource.ID.String(), entry.ResourceID)
		s.Equal("knowledge", entry.ResourceType)
	}
	s.Equal([]string{
		"knowledge.create", "knowledge.submit", "knowledge.approve",
		"knowledge.publish", "knowledge.archive",
	}, actions)

	s.Equal(string(actor.KindUser), entries[0].ActorType)
	s.Equal(s.author.UserID(), entries[0].ActorID)
	s.Equal(s.reviewer.UserID(), entries[2].ActorID)
	s.Equal("sunset", entries[4].Details["reason"])
}

// TestFullLifecycle is the happy path end to end: create, submit, approve by
// a different reviewer, publish.
func (s *EngineSuite) TestFullLifecycle() {
	resource := s.create()
	s.Equal(models.StatusDraft, resource.Status)
	s.Equal(1, resource.Version)

	pending := s.submit(resource.ID)
	s.Equal(models.StatusPendingReview, pending.Status)

	approved, err := s.engine.Approve(s.ctx, s.reviewer, resource.ID, "")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.Equal(s.reviewer.UserID(), approved.ReviewerID)

	published, err := s.engine.Publish(s.ctx, s.reviewer, resource.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPublished, published.Status)
	s.NotNil(published.PublishedAt)
}
