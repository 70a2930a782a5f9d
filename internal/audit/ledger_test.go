package audit_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aide/internal/actor"
	"aide/internal/audit"
	"aide/internal/audit/store/memory"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
	"aide/pkg/requestcontext"
)

type failingStore struct {
	memory.Store
	err error
}

func (f *failingStore) InsertOne(context.Context, audit.Entry) error   { return f.err }
func (f *failingStore) InsertBatch(context.Context, []audit.Entry) error { return f.err }

type recordingSink struct {
	published []audit.Entry
	err       error
}

func (s *recordingSink) Publish(_ context.Context, entry audit.Entry) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, entry)
	return nil
}

type LedgerSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Store
	ledger *audit.Ledger

	auditor actor.Context
	writer  actor.Context
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.store = memory.New()
	s.ledger = audit.NewLedger(s.store, slog.New(slog.DiscardHandler))
	s.auditor = actor.NewUser(id.UserID(uuid.New()), audit.ReadPermission)
	s.writer = actor.NewUser(id.UserID(uuid.New()))
}

func (s *LedgerSuite) record(action, resourceID string) audit.Record {
	return audit.Record{Action: action, ResourceType: "knowledge", ResourceID: resourceID}
}

// TestLog_NoPermissionRequired pins the asymmetry: writes are never gated,
// reads always are.
func (s *LedgerSuite) TestLog_NoPermissionRequired() {
	noGrants := actor.NewUser(id.UserID(uuid.New()))
	s.Require().NoError(s.ledger.Log(s.ctx, noGrants, s.record("knowledge.create", "r1")))

	ai := actor.NewAI()
	s.Require().NoError(s.ledger.Log(s.ctx, ai, s.record("conversation.read", "r2")))

	s.Len(s.store.All(), 2)
}

func (s *LedgerSuite) TestLog_EntryContents() {
	act := s.writer.WithRequest("req-1", "203.0.113.9",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	rec := audit.Record{
		Action:       "knowledge.approve",
		ResourceType: "knowledge",
		ResourceID:   "r1",
		Details:      map[string]any{"reviewer_id": "rev-1"},
	}
	s.Require().NoError(s.ledger.Log(s.ctx, act, rec))

	entries := s.store.All()
	s.Require().Len(entries, 1)
	entry := entries[0]
	s.Equal(s.writer.UserID(), entry.ActorID)
	s.Equal(string(actor.KindUser), entry.ActorType)
	s.Equal("knowledge.approve", entry.Action)
	s.Equal(requestcontext.Now(s.ctx), entry.Timestamp)
	s.Equal("203.0.113.9", entry.IPAddress)
	s.Equal("req-1", entry.RequestID)
	s.Equal("rev-1", entry.Details["reviewer_id"])
	s.Equal("Chrome", entry.ClientName)
	s.Contains(entry.ClientOS, "Mac OS X")
}

func (s *LedgerSuite) TestLog_ActorIDMapping() {
	s.Require().NoError(s.ledger.Log(s.ctx, actor.NewSystem(), s.record("knowledge.create", "r1")))
	s.Require().NoError(s.ledger.Log(s.ctx, actor.NewAI(), s.record("knowledge.read", "r1")))

	entries := s.store.All()
	s.Require().Len(entries, 2)
	s.Empty(entries[0].ActorID, "system writes carry no actor id")
	s.Equal(actor.AIActorID, entries[1].ActorID)
}

func (s *LedgerSuite) TestLog_StoreFailureIsTypedNotPanic() {
	broken := audit.NewLedger(&failingStore{err: errors.New("disk full")}, slog.New(slog.DiscardHandler))
	err := broken.Log(s.ctx, s.writer, s.record("knowledge.create", "r1"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *LedgerSuite) TestLogBatch() {
	s.Run("writes all entries in order", func() {
		recs := []audit.Record{
			s.record("knowledge.create", "r1"),
			s.record("knowledge.submit", "r1"),
		}
		s.Require().NoError(s.ledger.LogBatch(s.ctx, s.writer, recs))
		entries := s.store.All()
		s.Require().Len(entries, 2)
		s.Equal("knowledge.create", entries[0].Action)
		s.Equal("knowledge.submit", entries[1].Action)
	})

	s.Run("empty batch is a no-op", func() {
		before := len(s.store.All())
		s.Require().NoError(s.ledger.LogBatch(s.ctx, s.writer, nil))
		s.Len(s.store.All(), before)
	})
}

func (s *LedgerSuite) TestSinkFanOut() {
	s.Run("published entries mirror stored ones", func() {
		sink := &recordingSink{}
		ledger := audit.NewLedger(s.store, slog.New(slog.DiscardHandler), audit.WithSink(sink))
		s.Require().NoError(ledger.Log(s.ctx, s.writer, s.record("knowledge.create", "r1")))
		s.Require().Len(sink.published, 1)
		s.Equal("knowledge.create", sink.published[0].Action)
	})

	s.Run("sink outage never surfaces to the caller", func() {
		sink := &recordingSink{err: errors.New("broker down")}
		ledger := audit.NewLedger(s.store, slog.New(slog.DiscardHandler), audit.WithSink(sink))
		s.NoError(ledger.Log(s.ctx, s.writer, s.record("knowledge.create", "r1")))
	})
}

func (s *LedgerSuite) TestQuery() {
	rid := uuid.NewString()
	s.Require().NoError(s.ledger.Log(s.ctx, s.writer, s.record("knowledge.create", rid)))
	s.Require().NoError(s.ledger.Log(s.ctx, s.writer, s.record("knowledge.submit", rid)))
	s.Require().NoError(s.ledger.Log(s.ctx, actor.NewSystem(), s.record("knowledge.approve", rid)))

	s.Run("requires the read permission", func() {
		_, err := s.ledger.Query(s.ctx, s.writer, audit.Filter{}, audit.Page{})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("system bypasses the gate", func() {
		result, err := s.ledger.Query(s.ctx, actor.NewSystem(), audit.Filter{}, audit.Page{})
		s.Require().NoError(err)
		s.Len(result.Entries, 3)
	})

	s.Run("filters by action", func() {
		result, err := s.ledger.Query(s.ctx, s.auditor, audit.Filter{Action: "knowledge.submit"}, audit.Page{})
		s.Require().NoError(err)
		s.Require().Len(result.Entries, 1)
		s.Equal("knowledge.submit", result.Entries[0].Action)
	})

	s.Run("filters by actor type", func() {
		result, err := s.ledger.Query(s.ctx, s.auditor, audit.Filter{ActorType: string(actor.KindSystem)}, audit.Page{})
		s.Require().NoError(err)
		s.Len(result.Entries, 1)
	})

	s.Run("limit is clamped into bounds", func() {
		result, err := s.ledger.Query(s.ctx, s.auditor, audit.Filter{}, audit.Page{Limit: -5})
		s.Require().NoError(err)
		s.Len(result.Entries, 3)
	})
}

func (s *LedgerSuite) TestResourceHistory() {
	rid := uuid.NewString()
	s.Require().NoError(s.ledger.Log(s.ctx, s.writer, s.record("knowledge.create", rid)))
	s.Require().NoError(s.ledger.Log(s.ctx, s.writer, s.record("knowledge.submit", rid)))
	s.Require().NoError(s.ledger.Log(s.ctx, s.writer, s.record("knowledge.create", uuid.NewString())))

	s.Run("returns the trail oldest first", func() {
		entries, err := s.ledger.ResourceHistory(s.ctx, s.auditor, "knowledge", rid)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Equal("knowledge.create", entries[0].Action)
		s.Equal("knowledge.submit", entries[1].Action)
	})

	s.Run("requires the read permission", func() {
		_, err := s.ledger.ResourceHistory(s.ctx, s.writer, "knowledge", rid)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *LedgerSuite) TestActorHistory() {
	other := actor.NewUser(id.UserID(uuid.New()))
	s.Require().NoError(s.ledger.Log(s.ctx, s.writer, s.record("knowledge.create", "r1")))
	s.Require().NoError(s.ledger.Log(s.ctx, other, s.record("knowledge.create", "r2")))

	result, err := s.ledger.ActorHistory(s.ctx, s.auditor, s.writer.UserID(), audit.Page{})
	s.Require().NoError(err)
	s.Require().Len(result.Entries, 1)
	s.Equal("r1", result.Entries[0].ResourceID)
}

func TestPage_Clamp(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero means default", 0, audit.DefaultPageLimit},
		{"negative means default", -3, audit.DefaultPageLimit},
		{"in range is kept", 42, 42},
		{"over max is clamped", 500, audit.MaxPageLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := audit.Page{Limit: tt.in}.Clamp()
			if got.Limit != tt.want {
				t.Fatalf("Clamp() limit = %d, want %d", got.Limit, tt.want)
			}
		})
	}
}
