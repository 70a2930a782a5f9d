package approval

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"aide/internal/actor"
	"aide/internal/governance/service"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
	"aide/pkg/platform/sentinel"
	"aide/pkg/requestcontext"
)

// ReadPermission gates inbox listings. Task creation is driven by the
// governance engine and carries its own authorization.
const ReadPermission = "approval:read"

// Service is the in-process review inbox. It satisfies the governance
// engine's ApprovalOpener port.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Open records a review task for a freshly submitted resource. A resource
// with a task already open reuses it instead of opening a duplicate.
func (s *Service) Open(ctx context.Context, act actor.Context, req service.ApprovalRequest) (service.ApprovalTicket, error) {
	existing, err := s.store.OpenTaskFor(ctx, req.ResourceID)
	if err == nil {
		return service.ApprovalTicket{ID: existing.ID}, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return service.ApprovalTicket{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up open review task")
	}

	task := &Task{
		ID:           uuid.NewString(),
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		RequestedBy:  act.UserID(),
		Notes:        req.Notes,
		Status:       TaskOpen,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, task); err != nil {
		return service.ApprovalTicket{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open review task")
	}
	return service.ApprovalTicket{ID: task.ID}, nil
}

// Inbox lists open tasks for one resource type, newest last.
func (s *Service) Inbox(ctx context.Context, act actor.Context, resourceType string) ([]*Task, error) {
	if !act.HasPermission(ReadPermission) {
		return nil, dErrors.New(dErrors.CodeForbidden, "approval inbox access requires the approval read permission")
	}
	tasks, err := s.store.ListOpen(ctx, resourceType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list review tasks")
	}
	return tasks, nil
}

// Resolve closes the task for a decided resource. Called by the review
// surfaces after approve or reject lands; a missing task is not an error
// (the submit may predate the inbox).
func (s *Service) Resolve(ctx context.Context, resourceID id.ResourceID, outcome string) {
	task, err := s.store.OpenTaskFor(ctx, resourceID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "review task lookup failed", "resource_id", resourceID.String(), "error", err)
		}
		return
	}
	if err := s.store.Close(ctx, task.ID, outcome, requestcontext.Now(ctx)); err != nil {
		s.logger.WarnContext(ctx, "review task close failed", "task_id", task.ID, "error", err)
	}
}
