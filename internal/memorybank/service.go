// Package memorybank stores the long-term facts the assistant remembers
// about a user. Entries belong to exactly one user; the assistant may read
// them back while serving that user and may save new ones, but only the
// owner (or an operator) can forget them.
package memorybank

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"aide/internal/actor"
	"aide/internal/audit"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
	"aide/pkg/platform/sentinel"
	"aide/pkg/requestcontext"
)

// Entry is one remembered fact.
type Entry struct {
	ID        id.MemoryID `json:"id"`
	UserID    string      `json:"user_id"`
	Content   string      `json:"content"`
	Source    string      `json:"source,omitempty"` // conversation id or "manual"
	CreatedAt time.Time   `json:"created_at"`
}

// Store persists memory entries. Absent rows surface as sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, entryID id.MemoryID) (*Entry, error)
	ListByUser(ctx context.Context, userID string) ([]*Entry, error)
	Delete(ctx context.Context, entryID id.MemoryID) error
}

// Auditor records memory events. *audit.Ledger satisfies this.
type Auditor interface {
	Log(ctx context.Context, act actor.Context, rec audit.Record) error
}

type Service struct {
	store   Store
	auditor Auditor
	logger  *slog.Logger
}

func NewService(store Store, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{store: store, auditor: auditor, logger: logger}
}

// Save remembers a fact about userID. Users save only into their own bank;
// the assistant and system save on behalf of whoever they serve.
func (s *Service) Save(ctx context.Context, act actor.Context, userID, content, source string) (*Entry, error) {
	if strings.TrimSpace(content) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "memory content is required")
	}
	if !s.mayWrite(act, userID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot save memories for another user")
	}

	entry := &Entry{
		ID:        id.MemoryID(uuid.New()),
		UserID:    userID,
		Content:   content,
		Source:    source,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save memory")
	}
	s.audit(ctx, act, "memory.save", entry.ID.String(), map[string]any{"user_id": userID})
	return entry, nil
}

// List returns the remembered facts for userID, visible to the owner, the
// system, and the assistant serving that user.
func (s *Service) List(ctx context.Context, act actor.Context, userID string) ([]*Entry, error) {
	if !s.mayRead(act, userID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot read another user's memories")
	}
	entries, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list memories")
	}
	return entries, nil
}

// Forget deletes one remembered fact. The assistant cannot forget on its
// own: deletion is reserved for the owner, admins, and the system.
func (s *Service) Forget(ctx context.Context, act actor.Context, entryID id.MemoryID) error {
	entry, err := s.store.Get(ctx, entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "memory not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load memory")
	}
	if act.Kind == actor.KindAI {
		return dErrors.New(dErrors.CodeForbidden, "assistant actors cannot forget memories")
	}
	if act.Kind == actor.KindUser && entry.UserID != act.UserID() {
		return dErrors.New(dErrors.CodeForbidden, "cannot forget another user's memories")
	}

	if err := s.store.Delete(ctx, entryID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to forget memory")
	}
	s.audit(ctx, act, "memory.forget", entryID.String(), map[string]any{"user_id": entry.UserID})
	return nil
}

func (s *Service) mayWrite(act actor.Context, userID string) bool {
	switch act.Kind {
	case actor.KindSystem, actor.KindAI, actor.KindAdmin:
		return true
	default:
		return act.UserID() == userID
	}
}

func (s *Service) mayRead(act actor.Context, userID string) bool {
	return s.mayWrite(act, userID)
}

func (s *Service) audit(ctx context.Context, act actor.Context, action, entryID string, details map[string]any) {
	rec := audit.Record{
		Action:       action,
		ResourceType: "memory",
		ResourceID:   entryID,
		Details:      details,
	}
	if err := s.auditor.Log(ctx, act, rec); err != nil {
		s.logger.WarnContext(ctx, "audit entry lost for memory event", "action", action, "error", err)
	}
}
