package handler_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aide/internal/actor"
	"aide/internal/audit"
	auditmem "aide/internal/audit/store/memory"
	"aide/internal/governance/models"
	"aide/internal/governance/service"
	resourcemem "aide/internal/governance/store/memory"
	"aide/internal/knowledge"
	"aide/internal/knowledge/handler"
	id "aide/pkg/domain"
	"aide/pkg/testutil"
)

type stubOpener struct{}

func (stubOpener) Open(context.Context, actor.Context, service.ApprovalRequest) (service.ApprovalTicket, error) {
	return service.ApprovalTicket{ID: uuid.NewString()}, nil
}

type HandlerSuite struct {
	suite.Suite
	router *chi.Mux

	author   actor.Context
	reviewer actor.Context
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	ledger := audit.NewLedger(auditmem.New(), logger)
	engine := service.NewEngine(
		knowledge.ResourceType, knowledge.Perms(), resourcemem.New(), stubOpener{}, ledger, logger,
	)
	svc := knowledge.NewService(engine, nil, logger)

	s.router = chi.NewRouter()
	handler.New(svc, logger).Register(s.router)

	s.author = actor.NewUser(id.UserID(uuid.New()), knowledge.PermRead, knowledge.PermWrite)
	s.reviewer = actor.NewUser(id.UserID(uuid.New()), knowledge.PermRead, knowledge.PermReview, knowledge.PermPublish)
}

func (s *HandlerSuite) do(act actor.Context, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, testutil.WithActor(req, act))
	return rec
}

func (s *HandlerSuite) create() *models.Resource {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/", map[string]any{
		"title":   "Refund policy",
		"content": "Full refunds within 30 days.",
		"tags":    []string{"billing"},
	})
	rec := s.do(s.author, req)
	testutil.AssertStatus(s.T(), rec, http.StatusCreated)
	return testutil.DecodeResponse[models.Resource](s.T(), rec)
}

func (s *HandlerSuite) post(act actor.Context, path string, body any) *httptest.ResponseRecorder {
	return s.do(act, testutil.NewJSONRequest(s.T(), http.MethodPost, path, body))
}

func (s *HandlerSuite) TestCreate() {
	article := s.create()
	s.Equal(models.StatusDraft, article.Status)
	s.Equal(1, article.Version)
	s.Equal(s.author.UserID(), article.AuthorID)
}

func (s *HandlerSuite) TestCreate_BadBody() {
	req := testutil.NewRequest(s.T(), http.MethodPost, "/")
	testutil.AssertStatusAndError(s.T(), s.do(s.author, req), http.StatusBadRequest, "BAD_REQUEST")
}

func (s *HandlerSuite) TestCreate_MissingTitle() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/", map[string]any{"content": "body"})
	testutil.AssertStatusAndError(s.T(), s.do(s.author, req), http.StatusBadRequest, "VALIDATION_ERROR")
}

func (s *HandlerSuite) TestGet_NotFoundAndBadID() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/"+uuid.NewString())
	testutil.AssertStatusAndError(s.T(), s.do(s.author, req), http.StatusNotFound, "NOT_FOUND")

	req = testutil.NewRequest(s.T(), http.MethodGet, "/not-a-uuid")
	testutil.AssertStatusAndError(s.T(), s.do(s.author, req), http.StatusBadRequest, "INVALID_INPUT")
}

func (s *HandlerSuite) TestLifecycleRoutes() {
	article := s.create()
	base := "/" + article.ID.String()

	rec := s.post(s.author, base+"/submit", map[string]any{"notes": "please review"})
	testutil.AssertStatus(s.T(), rec, http.StatusOK)
	s.Equal(models.StatusPendingReview, testutil.DecodeResponse[models.Resource](s.T(), rec).Status)

	rec = s.post(s.reviewer, base+"/approve", nil)
	testutil.AssertStatus(s.T(), rec, http.StatusOK)
	approved := testutil.DecodeResponse[models.Resource](s.T(), rec)
	s.Equal(models.StatusApproved, approved.Status)
	s.Equal(s.reviewer.UserID(), approved.ReviewerID)

	rec = s.post(s.reviewer, base+"/publish", nil)
	testutil.AssertStatus(s.T(), rec, http.StatusOK)
	published := testutil.DecodeResponse[models.Resource](s.T(), rec)
	s.Equal(models.StatusPublished, published.Status)
	s.NotNil(published.PublishedAt)

	rec = s.post(s.author, base+"/archive", map[string]any{"reason": "superseded"})
	testutil.AssertStatus(s.T(), rec, http.StatusOK)

	// Archived is terminal.
	rec = s.post(s.author, base+"/archive", map[string]any{"reason": "again"})
	testutil.AssertStatusAndError(s.T(), rec, http.StatusUnprocessableEntity, "INVALID_STATE")
}

func (s *HandlerSuite) TestReject_RequiresReason() {
	article := s.create()
	base := "/" + article.ID.String()
	s.post(s.author, base+"/submit", nil)

	rec := s.post(s.reviewer, base+"/reject", nil)
	testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, "VALIDATION_ERROR")

	rec = s.post(s.reviewer, base+"/reject", map[string]any{"reason": "too vague"})
	testutil.AssertStatus(s.T(), rec, http.StatusOK)
	s.Equal(models.StatusDraft, testutil.DecodeResponse[models.Resource](s.T(), rec).Status)
}

func (s *HandlerSuite) TestSelfApproval() {
	// A reviewer who also authors cannot sign off on their own work.
	authorReviewer := actor.NewUser(id.UserID(uuid.New()),
		knowledge.PermRead, knowledge.PermWrite, knowledge.PermReview)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/", map[string]any{
		"title":   "Self-serve draft",
		"content": "Needs an independent reviewer.",
	})
	rec := s.do(authorReviewer, req)
	testutil.AssertStatus(s.T(), rec, http.StatusCreated)
	article := testutil.DecodeResponse[models.Resource](s.T(), rec)
	base := "/" + article.ID.String()

	s.post(authorReviewer, base+"/submit", nil)

	rec = s.post(authorReviewer, base+"/approve", nil)
	testutil.AssertStatusAndError(s.T(), rec, http.StatusForbidden, "PERMISSION_DENIED")
}

func (s *HandlerSuite) TestUpdate_BumpsVersion() {
	article := s.create()

	req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/"+article.ID.String(), map[string]any{
		"content": "Store credit within 60 days.",
	})
	rec := s.do(s.author, req)
	testutil.AssertStatus(s.T(), rec, http.StatusOK)
	s.Equal(2, testutil.DecodeResponse[models.Resource](s.T(), rec).Version)
}

func (s *HandlerSuite) TestList_StatusFilter() {
	for range 3 {
		s.create()
	}

	rec := s.do(s.author, testutil.NewRequest(s.T(), http.MethodGet, "/?status=draft&limit=2"))
	testutil.AssertStatus(s.T(), rec, http.StatusOK)
	result := testutil.DecodeResponse[service.ListResult](s.T(), rec)
	s.Len(result.Items, 2)
	s.True(result.HasMore)

	rec = s.do(s.author, testutil.NewRequest(s.T(), http.MethodGet, fmt.Sprintf("/?status=draft&limit=2&cursor=%s", result.NextCursor)))
	testutil.AssertStatus(s.T(), rec, http.StatusOK)
	s.Len(testutil.DecodeResponse[service.ListResult](s.T(), rec).Items, 1)

	rec = s.do(s.author, testutil.NewRequest(s.T(), http.MethodGet, "/?status=bogus"))
	testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, "INVALID_INPUT")
}

func (s *HandlerSuite) TestVersions() {
	article := s.create()
	req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/"+article.ID.String(), map[string]any{
		"content": "v2 content",
	})
	testutil.AssertStatus(s.T(), s.do(s.author, req), http.StatusOK)

	rec := s.do(s.author, testutil.NewRequest(s.T(), http.MethodGet, "/"+article.ID.String()+"/versions"))
	testutil.AssertStatus(s.T(), rec, http.StatusOK)
	body := testutil.DecodeResponse[map[string][]models.VersionSnapshot](s.T(), rec)
	s.Len((*body)["versions"], 1)
	s.Equal(1, (*body)["versions"][0].Version)
}
