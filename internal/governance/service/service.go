// Package service implements the governed-resource lifecycle engine: the
// state machine that gates every mutation behind an actor's identity and
// permission set and records every effect in the audit ledger.
//
// The engine holds no state between calls; consistency of transitions relies
// on the store's conditional status writes. One engine instance governs one
// resource type (knowledge articles, system prompts).
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"aide/internal/actor"
	"aide/internal/audit"
	"aide/internal/governance/models"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
	"aide/pkg/platform/sentinel"
	"aide/pkg/requestcontext"
)

// Engine drives the draft -> review -> approve -> publish lifecycle for one
// resource type.
type Engine struct {
	resourceType string
	perms        Permissions
	resources    ResourceStore
	approvals    ApprovalOpener
	resolver     ApprovalResolver
	auditor      Auditor
	logger       *slog.Logger
	metrics      *Metrics
	tracer       trace.Tracer
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithMetrics attaches prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithApprovalResolver closes open review tasks when approve or reject
// lands.
func WithApprovalResolver(r ApprovalResolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// NewEngine wires an engine for resourceType. All collaborators are
// required except options; nothing here is a process-wide singleton.
func NewEngine(
	resourceType string,
	perms Permissions,
	resources ResourceStore,
	approvals ApprovalOpener,
	auditor Auditor,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		resourceType: resourceType,
		perms:        perms,
		resources:    resources,
		approvals:    approvals,
		auditor:      auditor,
		logger:       logger,
		tracer:       otel.Tracer("aide/governance"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewResourceInput carries the author-supplied fields for Create.
type NewResourceInput struct {
	Title    string
	Content  string
	Category string
	Tags     []string
	Scope    string
}

// Create makes a new draft at version 1 authored by the acting identity.
// Requires the write permission; assistant actors are denied regardless of
// any permission strings they carry.
func (e *Engine) Create(ctx context.Context, act actor.Context, input NewResourceInput) (*models.Resource, error) {
	ctx, span := e.tracer.Start(ctx, "governance.create")
	defer span.End()

	if err := e.denyAssistant(act, "create"); err != nil {
		return nil, err
	}
	if !act.HasPermission(e.perms.Write) {
		return nil, e.deny(act, "create", "missing write permission")
	}

	now := requestcontext.Now(ctx)
	resource, err := models.NewResource(id.ResourceID(uuid.New()), e.resourceType, act.UserID(), input.Title, input.Content, now)
	if err != nil {
		return nil, err
	}
	resource.Category = input.Category
	resource.Tags = append([]string(nil), input.Tags...)
	resource.Scope = input.Scope

	if err := e.resources.Create(ctx, resource); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "resource already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create resource")
	}

	e.observe("create", "success")
	e.audit(ctx, act, "create", resource.ID, map[string]any{
		"title":   resource.Title,
		"version": resource.Version,
	})
	return resource, nil
}

// Get returns the resource if the visibility guard permits the actor to
// read it.
func (e *Engine) Get(ctx context.Context, act actor.Context, resourceID id.ResourceID) (*models.Resource, error) {
	resource, err := e.fetch(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !e.CanView(act, resource) {
		return nil, e.deny(act, "get", "resource is not visible to this actor")
	}
	return resource, nil
}

// List returns a page of resources, with non-viewable items filtered out
// after the store query.
func (e *Engine) List(ctx context.Context, act actor.Context, filter Filter, page Page) (ListResult, error) {
	if page.Limit <= 0 {
		page.Limit = audit.DefaultPageLimit
	}
	result, err := e.resources.List(ctx, e.resourceType, filter, page)
	if err != nil {
		return ListResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list resources")
	}
	visible := result.Items[:0]
	for _, item := range result.Items {
		if e.CanView(act, item) {
			visible = append(visible, item)
		}
	}
	result.Items = visible
	return result, nil
}

// Update applies a partial edit while the resource is still editable.
// Content-bearing changes snapshot the prior version to history and bump the
// version by exactly 1; metadata-only edits do not.
func (e *Engine) Update(ctx context.Context, act actor.Context, resourceID id.ResourceID, patch models.Patch) (*models.Resource, error) {
	ctx, span := e.tracer.Start(ctx, "governance.update")
	defer span.End()

	if err := e.denyAssistant(act, "update"); err != nil {
		return nil, err
	}
	resource, err := e.fetch(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !e.canMutate(act, resource) {
		return nil, e.deny(act, "update", "only the author, reviewers, or admins may edit")
	}
	if !resource.IsEditable() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "resource is not editable in status %s", resource.Status)
	}

	now := requestcontext.Now(ctx)
	if patch.TouchesContent(resource) {
		if err := e.resources.CreateVersionSnapshot(ctx, resource.Snapshot(now)); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot version")
		}
	}
	changed := patch.Apply(resource, now)
	if len(changed) == 0 {
		return resource, nil
	}

	if err := e.resources.Update(ctx, resource); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update resource")
	}

	e.observe("update", "success")
	e.audit(ctx, act, "update", resource.ID, map[string]any{
		"changed_fields": changed,
		"version":        resource.Version,
	})
	return resource, nil
}

// SubmitForReview moves a draft into pending_review and opens an approval
// request with the external review collaborator. Only the author (or
// system) may submit.
func (e *Engine) SubmitForReview(ctx context.Context, act actor.Context, resourceID id.ResourceID, notes string) (*models.Resource, error) {
	ctx, span := e.tracer.Start(ctx, "governance.submit")
	defer span.End()

	if err := e.denyAssistant(act, "submit"); err != nil {
		return nil, err
	}
	resource, err := e.fetch(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if act.Kind != actor.KindSystem && !resource.IsAuthoredBy(act.UserID()) {
		return nil, e.deny(act, "submit", "only the author may submit for review")
	}
	if err := resource.CanSubmit(); err != nil {
		e.observe("submit", "invalid_state")
		return nil, err
	}

	updated, err := e.transition(ctx, resource, models.StatusPendingReview, StatusChange{
		UpdatedAt: requestcontext.Now(ctx),
	})
	if err != nil {
		return nil, err
	}

	details := map[string]any{}
	if notes != "" {
		details["notes"] = notes
	}
	// The approval collaborator is external; its outage must not lose the
	// submit, which is already durable at this point.
	ticket, err := e.approvals.Open(ctx, act, ApprovalRequest{
		ResourceType: e.resourceType,
		ResourceID:   resource.ID,
		Action:       "review",
		Notes:        notes,
	})
	if err != nil {
		e.logger.WarnContext(ctx, "approval request failed to open",
			"resource_id", resource.ID.String(),
			"error", err,
		)
	} else {
		details["approval_request_id"] = ticket.ID
	}

	e.observe("submit", "success")
	e.audit(ctx, act, "submit", resource.ID, details)
	return updated, nil
}

// Approve moves pending_review to approved and records the reviewer.
// Authors cannot approve their own submission - holding the review
// permission does not override ownership - except the system actor.
func (e *Engine) Approve(ctx context.Context, act actor.Context, resourceID id.ResourceID, notes string) (*models.Resource, error) {
	ctx, span := e.tracer.Start(ctx, "governance.approve")
	defer span.End()

	if err := e.denyAssistant(act, "approve"); err != nil {
		return nil, err
	}
	resource, err := e.fetch(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !act.HasPermission(e.perms.Review) {
		return nil, e.deny(act, "approve", "missing review permission")
	}
	if err := resource.CanApprove(); err != nil {
		e.observe("approve", "invalid_state")
		return nil, err
	}
	if act.Kind != actor.KindSystem && resource.IsAuthoredBy(act.UserID()) {
		e.observe("approve", "self_approval")
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot approve own item")
	}

	reviewer := act.UserID()
	updated, err := e.transition(ctx, resource, models.StatusApproved, StatusChange{
		ReviewerID: &reviewer,
		UpdatedAt:  requestcontext.Now(ctx),
	})
	if err != nil {
		return nil, err
	}

	details := map[string]any{"reviewer_id": reviewer}
	if notes != "" {
		details["notes"] = notes
	}
	e.observe("approve", "success")
	e.audit(ctx, act, "approve", resource.ID, details)
	if e.resolver != nil {
		e.resolver.Resolve(ctx, resource.ID, "approved")
	}
	return updated, nil
}

// Reject returns a pending_review resource to draft and clears the
// reviewer. A non-empty reason is required; it goes to the author via the
// audit trail.
func (e *Engine) Reject(ctx context.Context, act actor.Context, resourceID id.ResourceID, reason string) (*models.Resource, error) {
	ctx, span := e.tracer.Start(ctx, "governance.reject")
	defer span.End()

	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	if err := e.denyAssistant(act, "reject"); err != nil {
		return nil, err
	}
	resource, err := e.fetch(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !act.HasPermission(e.perms.Review) {
		return nil, e.deny(act, "reject", "missing review permission")
	}
	if err := resource.CanReject(); err != nil {
		e.observe("reject", "invalid_state")
		return nil, err
	}

	clearReviewer := ""
	updated, err := e.transition(ctx, resource, models.StatusDraft, StatusChange{
		ReviewerID: &clearReviewer,
		UpdatedAt:  requestcontext.Now(ctx),
	})
	if err != nil {
		return nil, err
	}

	e.observe("reject", "success")
	e.audit(ctx, act, "reject", resource.ID, map[string]any{"reason": reason})
	if e.resolver != nil {
		e.resolver.Resolve(ctx, resource.ID, "rejected")
	}
	return updated, nil
}

// Publish makes an approved resource live and stamps publishedAt.
func (e *Engine) Publish(ctx context.Context, act actor.Context, resourceID id.ResourceID) (*models.Resource, error) {
	ctx, span := e.tracer.Start(ctx, "governance.publish")
	defer span.End()

	if err := e.denyAssistant(act, "publish"); err != nil {
		return nil, err
	}
	resource, err := e.fetch(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !act.HasPermission(e.perms.Publish) {
		return nil, e.deny(act, "publish", "missing publish permission")
	}
	if err := resource.CanPublish(); err != nil {
		e.observe("publish", "invalid_state")
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := e.transition(ctx, resource, models.StatusPublished, StatusChange{
		PublishedAt: &now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	e.observe("publish", "success")
	e.audit(ctx, act, "publish", resource.ID, nil)
	return updated, nil
}

// Archive retires a resource from any non-archived status. Archived is
// terminal: archiving twice is INVALID_STATE, not a silent no-op. There is
// no kind-based gate here; the ownership check is what keeps assistant
// actors out (they never author resources).
func (e *Engine) Archive(ctx context.Context, act actor.Context, resourceID id.ResourceID, reason string) (*models.Resource, error) {
	ctx, span := e.tracer.Start(ctx, "governance.archive")
	defer span.End()

	resource, err := e.fetch(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !e.canMutate(act, resource) {
		return nil, e.deny(act, "archive", "only the author, reviewers, or admins may archive")
	}
	if err := resource.CanArchive(); err != nil {
		e.observe("archive", "invalid_state")
		return nil, err
	}

	updated, err := e.transition(ctx, resource, models.StatusArchived, StatusChange{
		UpdatedAt: requestcontext.Now(ctx),
	})
	if err != nil {
		return nil, err
	}

	details := map[string]any{}
	if reason != "" {
		details["reason"] = reason
	}
	e.observe("archive", "success")
	e.audit(ctx, act, "archive", resource.ID, details)
	return updated, nil
}

// VersionHistory lists the content snapshots taken before each content
// change, gated by the same visibility rules as Get.
func (e *Engine) VersionHistory(ctx context.Context, act actor.Context, resourceID id.ResourceID) ([]models.VersionSnapshot, error) {
	resource, err := e.fetch(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !e.CanView(act, resource) {
		return nil, e.deny(act, "history", "resource is not visible to this actor")
	}
	snapshots, err := e.resources.ListVersionHistory(ctx, resourceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list version history")
	}
	return snapshots, nil
}

// -----------------------------------------------------------------------------
// internals
// -----------------------------------------------------------------------------

func (e *Engine) fetch(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	resource, err := e.resources.Get(ctx, resourceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resource")
	}
	return resource, nil
}

// transition performs the conditional status write. A concurrent writer that
// changed the status first surfaces as CONFLICT, not as a double-apply.
func (e *Engine) transition(ctx context.Context, resource *models.Resource, to models.Status, change StatusChange) (*models.Resource, error) {
	updated, err := e.resources.UpdateStatus(ctx, resource.ID, resource.Status, to, change)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrStaleStatus):
			e.observe(string(to), "conflict")
			return nil, dErrors.Newf(dErrors.CodeConflict, "resource status changed concurrently (expected %s)", resource.Status)
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to transition resource")
		}
	}
	return updated, nil
}

// canMutate is the shared author/admin/reviewer ownership rule for update
// and archive.
func (e *Engine) canMutate(act actor.Context, resource *models.Resource) bool {
	if act.Kind == actor.KindSystem {
		return true
	}
	if resource.IsAuthoredBy(act.UserID()) {
		return true
	}
	return act.Kind == actor.KindAdmin || act.HasPermission(e.perms.Review)
}

// denyAssistant rejects ai-kind actors on mutating operations regardless of
// any permission strings present on the actor.
func (e *Engine) denyAssistant(act actor.Context, op string) error {
	if act.Kind == actor.KindAI {
		return e.deny(act, op, "assistant actors cannot perform governance mutations")
	}
	return nil
}

func (e *Engine) deny(act actor.Context, op, reason string) error {
	e.observe(op, "denied")
	e.logger.Debug("governance permission denied",
		"resource_type", e.resourceType,
		"op", op,
		"actor_kind", string(act.Kind),
		"reason", reason,
	)
	return dErrors.New(dErrors.CodeForbidden, reason)
}

// audit records the transition. Audit failures are absorbed: the primary
// mutation is already durable and must not be rolled back by a logging
// outage.
func (e *Engine) audit(ctx context.Context, act actor.Context, verb string, resourceID id.ResourceID, details map[string]any) {
	rec := audit.Record{
		Action:       e.resourceType + "." + verb,
		ResourceType: e.resourceType,
		ResourceID:   resourceID.String(),
		Details:      details,
	}
	if err := e.auditor.Log(ctx, act, rec); err != nil {
		e.logger.WarnContext(ctx, "audit entry lost for governance transition",
			"action", rec.Action,
			"resource_id", rec.ResourceID,
			"error", err,
		)
	}
}

func (e *Engine) observe(op, outcome string) {
	if e.metrics != nil {
		e.metrics.ObserveTransition(e.resourceType, op, outcome)
	}
}
