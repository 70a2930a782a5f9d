// Package prompt governs the assistant's system prompt templates. Templates
// follow the same draft -> review -> approve -> publish lifecycle as
// knowledge articles; on top of that, at most one published template per
// scope is "active" and actually steers the assistant. Activation is an
// atomic swap: the previous holder is deactivated in the same store
// operation that activates the new one.
package prompt

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"aide/internal/actor"
	"aide/internal/audit"
	"aide/internal/governance/models"
	"aide/internal/governance/service"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
	"aide/pkg/platform/sentinel"
	"aide/pkg/requestcontext"
)

// ResourceType discriminates prompt rows in the shared resources table.
const ResourceType = "prompt"

// Permission strings for the prompt domain. Activate rides on the publish
// permission: whoever may make a template live may also point the assistant
// at it.
const (
	PermRead    = "prompt:read"
	PermWrite   = "prompt:write"
	PermReview  = "prompt:review"
	PermPublish = "prompt:publish"
)

func Perms() service.Permissions {
	return service.Permissions{
		Read:    PermRead,
		Write:   PermWrite,
		Review:  PermReview,
		Publish: PermPublish,
	}
}

// ActivationStore is the slice of the resource store the activation path
// uses beyond the governance engine.
type ActivationStore interface {
	ActivateExclusive(ctx context.Context, resourceID id.ResourceID, now time.Time) (*models.Resource, error)
	ActiveInScope(ctx context.Context, resourceType, scope string) (*models.Resource, error)
}

// Service fronts the governance engine for prompt templates and owns the
// activation swap.
type Service struct {
	engine      *service.Engine
	activations ActivationStore
	auditor     service.Auditor
	logger      *slog.Logger
}

func NewService(engine *service.Engine, activations ActivationStore, auditor service.Auditor, logger *slog.Logger) *Service {
	return &Service{engine: engine, activations: activations, auditor: auditor, logger: logger}
}

// TemplateInput carries the author-supplied fields for a new template.
// Scope partitions the single-active invariant (persona, channel).
type TemplateInput struct {
	Title   string
	Content string
	Scope   string
	Tags    []string
}

func (s *Service) Create(ctx context.Context, act actor.Context, input TemplateInput) (*models.Resource, error) {
	return s.engine.Create(ctx, act, service.NewResourceInput{
		Title:   input.Title,
		Content: input.Content,
		Scope:   input.Scope,
		Tags:    input.Tags,
	})
}

func (s *Service) Get(ctx context.Context, act actor.Context, templateID id.ResourceID) (*models.Resource, error) {
	return s.engine.Get(ctx, act, templateID)
}

func (s *Service) List(ctx context.Context, act actor.Context, filter service.Filter, page service.Page) (service.ListResult, error) {
	return s.engine.List(ctx, act, filter, page)
}

func (s *Service) Update(ctx context.Context, act actor.Context, templateID id.ResourceID, patch models.Patch) (*models.Resource, error) {
	return s.engine.Update(ctx, act, templateID, patch)
}

func (s *Service) SubmitForReview(ctx context.Context, act actor.Context, templateID id.ResourceID, notes string) (*models.Resource, error) {
	return s.engine.SubmitForReview(ctx, act, templateID, notes)
}

func (s *Service) Approve(ctx context.Context, act actor.Context, templateID id.ResourceID, notes string) (*models.Resource, error) {
	return s.engine.Approve(ctx, act, templateID, notes)
}

func (s *Service) Reject(ctx context.Context, act actor.Context, templateID id.ResourceID, reason string) (*models.Resource, error) {
	return s.engine.Reject(ctx, act, templateID, reason)
}

func (s *Service) Publish(ctx context.Context, act actor.Context, templateID id.ResourceID) (*models.Resource, error) {
	return s.engine.Publish(ctx, act, templateID)
}

func (s *Service) Archive(ctx context.Context, act actor.Context, templateID id.ResourceID, reason string) (*models.Resource, error) {
	return s.engine.Archive(ctx, act, templateID, reason)
}

func (s *Service) VersionHistory(ctx context.Context, act actor.Context, templateID id.ResourceID) ([]models.VersionSnapshot, error) {
	return s.engine.VersionHistory(ctx, act, templateID)
}

// Activate makes a published template the single active one in its scope.
// The swap happens in one store operation; there is never a window with two
// active templates in a scope.
func (s *Service) Activate(ctx context.Context, act actor.Context, templateID id.ResourceID) (*models.Resource, error) {
	if act.Kind == actor.KindAI {
		return nil, dErrors.New(dErrors.CodeForbidden, "assistant actors cannot perform governance mutations")
	}
	if !act.HasPermission(PermPublish) {
		return nil, dErrors.New(dErrors.CodeForbidden, "missing publish permission")
	}

	template, err := s.activations.ActivateExclusive(ctx, templateID, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "only published templates can be activated")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to activate template")
		}
	}

	rec := audit.Record{
		Action:       "prompt.activate",
		ResourceType: ResourceType,
		ResourceID:   template.ID.String(),
		Details:      map[string]any{"scope": template.Scope},
	}
	if err := s.auditor.Log(ctx, act, rec); err != nil {
		s.logger.WarnContext(ctx, "audit entry lost for prompt activation",
			"template_id", template.ID.String(),
			"error", err,
		)
	}
	return template, nil
}

// Active returns the template currently steering the assistant for a scope.
// This is the assistant runtime's read path, so ai actors are allowed.
func (s *Service) Active(ctx context.Context, scope string) (*models.Resource, error) {
	template, err := s.activations.ActiveInScope(ctx, ResourceType, scope)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active template for scope")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active template")
	}
	return template, nil
}
