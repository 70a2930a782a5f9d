package models

import (
	"time"

	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
)

// Status is the lifecycle state of a governed resource.
//
// The legal transitions:
//
//	draft -> pending_review          (submit)
//	pending_review -> approved       (approve)
//	pending_review -> draft          (reject)
//	approved -> published            (publish)
//	any non-archived -> archived     (archive, terminal)
//
// Archived is terminal: archiving an archived resource is an error, not a
// no-op. Reject is only legal from pending_review; an approved resource
// cannot be rejected.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusPublished     Status = "published"
	StatusArchived      Status = "archived"
)

var statusTransitions = map[Status][]Status{
	StatusDraft:         {StatusPendingReview, StatusArchived},
	StatusPendingReview: {StatusApproved, StatusDraft, StatusArchived},
	StatusApproved:      {StatusPublished, StatusArchived},
	StatusPublished:     {StatusArchived},
	StatusArchived:      {},
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsValid checks the status is one of the known lifecycle states.
func (s Status) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Resource is a governed entity subject to the draft -> review -> approve ->
// publish lifecycle. Knowledge articles and system prompts are both stored in
// this shape; Type discriminates.
//
// Invariants:
//   - Version starts at 1 and bumps by exactly 1 when a content-bearing field
//     (title, content) changes; metadata-only edits never bump it
//   - ReviewerID is empty except immediately after approve, and is cleared on
//     reject
//   - resources are never physically deleted; archived is terminal
//   - for prompts, at most one resource per Scope holds Active=true
type Resource struct {
	ID         id.ResourceID `json:"id"`
	Type       string        `json:"type"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Category   string        `json:"category,omitempty"`
	Tags       []string      `json:"tags,omitempty"`
	AuthorID   string        `json:"author_id"`
	ReviewerID string        `json:"reviewer_id,omitempty"`
	Status     Status        `json:"status"`
	Version    int           `json:"version"`

	// Prompt-only fields. Scope partitions the single-active invariant
	// (e.g. one active default prompt per assistant persona).
	Active      bool       `json:"active,omitempty"`
	Scope       string     `json:"scope,omitempty"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewResource constructs a draft at version 1 authored by authorID.
func NewResource(resourceID id.ResourceID, resourceType, authorID, title, content string, now time.Time) (*Resource, error) {
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if content == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "content is required")
	}
	return &Resource{
		ID:        resourceID,
		Type:      resourceType,
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		Status:    StatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsEditable reports whether content edits are legal in the current status.
// Approved and published content is frozen; changing it means a new cycle.
func (r *Resource) IsEditable() bool {
	return r.Status == StatusDraft || r.Status == StatusPendingReview
}

// IsAuthoredBy compares the given actor identity against the author field.
func (r *Resource) IsAuthoredBy(actorID string) bool {
	return r.AuthorID == actorID
}

// CanSubmit checks the submit-for-review precondition.
func (r *Resource) CanSubmit() error {
	if r.Status != StatusDraft {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "only draft resources can be submitted for review (status is %s)", r.Status)
	}
	return nil
}

// CanApprove checks the approve precondition.
func (r *Resource) CanApprove() error {
	if r.Status != StatusPendingReview {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "only resources pending review can be approved (status is %s)", r.Status)
	}
	return nil
}

// CanReject checks the reject precondition. Reject is deliberately narrower
// than archive: an approved resource cannot be sent back to draft.
func (r *Resource) CanReject() error {
	if r.Status != StatusPendingReview {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "only resources pending review can be rejected (status is %s)", r.Status)
	}
	return nil
}

// CanPublish checks the publish precondition.
func (r *Resource) CanPublish() error {
	if r.Status != StatusApproved {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "only approved resources can be published (status is %s)", r.Status)
	}
	return nil
}

// CanArchive checks the archive precondition. Double-archive is an error by
// product decision, not a silent no-op.
func (r *Resource) CanArchive() error {
	if r.Status == StatusArchived {
		return dErrors.New(dErrors.CodeInvariantViolation, "resource is already archived")
	}
	return nil
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Title    *string
	Content  *string
	Category *string
	Tags     *[]string
}

// TouchesContent reports whether applying the patch changes a
// content-bearing field on r. Category and tags are metadata; editing them
// alone never bumps the version.
func (p Patch) TouchesContent(r *Resource) bool {
	if p.Title != nil && *p.Title != r.Title {
		return true
	}
	if p.Content != nil && *p.Content != r.Content {
		return true
	}
	return false
}

// Apply writes the patch onto r, bumping the version by exactly 1 when a
// content-bearing field changed. Returns the names of changed fields for the
// audit trail.
func (p Patch) Apply(r *Resource, now time.Time) []string {
	var changed []string
	bump := p.TouchesContent(r)
	if p.Title != nil && *p.Title != r.Title {
		r.Title = *p.Title
		changed = append(changed, "title")
	}
	if p.Content != nil && *p.Content != r.Content {
		r.Content = *p.Content
		changed = append(changed, "content")
	}
	if p.Category != nil && *p.Category != r.Category {
		r.Category = *p.Category
		changed = append(changed, "category")
	}
	if p.Tags != nil {
		r.Tags = append([]string(nil), (*p.Tags)...)
		changed = append(changed, "tags")
	}
	if bump {
		r.Version++
	}
	if len(changed) > 0 {
		r.UpdatedAt = now
	}
	return changed
}

// VersionSnapshot is a frozen copy of a resource's content-bearing fields, taken
// immediately before a content change overwrites them.
type VersionSnapshot struct {
	ResourceID id.ResourceID `json:"resource_id"`
	Version    int           `json:"version"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Snapshot captures the resource's current content at its current version.
func (r *Resource) Snapshot(now time.Time) VersionSnapshot {
	return VersionSnapshot{
		ResourceID: r.ID,
		Version:    r.Version,
		Title:      r.Title,
		Content:    r.Content,
		CreatedAt:  now,
	}
}
