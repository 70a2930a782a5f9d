package service

import (
	"context"
	"time"

	"aide/internal/actor"
	"aide/internal/audit"
	"aide/internal/governance/models"
	id "aide/pkg/domain"
)

// Permissions names the capability strings one resource type is governed by.
// Each engine instance is configured with its own set (knowledge:*, prompt:*).
type Permissions struct {
	Read    string
	Write   string
	Review  string
	Publish string
}

// StatusChange is the write half of a conditional status transition.
type StatusChange struct {
	// ReviewerID: nil leaves the column untouched; a pointer (possibly to
	// the empty string) overwrites it. Reject clears by pointing at "".
	ReviewerID  *string
	PublishedAt *time.Time
	UpdatedAt   time.Time
}

// Filter narrows resource listings. Zero fields match everything; Type is
// fixed by the engine instance and not part of the filter.
type Filter struct {
	Status   models.Status
	AuthorID string
	Category string
}

// Page is cursor pagination, same conventions as the audit ledger.
type Page struct {
	Limit  int
	Cursor string
}

// ListResult is one page of resources.
type ListResult struct {
	Items      []*models.Resource `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
	HasMore    bool               `json:"has_more"`
}

// ResourceStore is the persistence port the engine mutates through.
//
// Implementations signal facts with pkg/platform/sentinel errors:
// ErrNotFound for absent rows, ErrStaleStatus when a conditional status
// write observes a different current status than the caller read. The
// engine translates those into its error taxonomy.
type ResourceStore interface {
	Create(ctx context.Context, resource *models.Resource) error
	Get(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error)
	// Update persists content and metadata fields. Lifecycle columns are
	// only ever written through UpdateStatus.
	Update(ctx context.Context, resource *models.Resource) error
	// UpdateStatus transitions status from -> to as a conditional write:
	// the row must still hold the from status or ErrStaleStatus is
	// returned and nothing changes. This is what closes the
	// read-check/write race on transitions.
	UpdateStatus(ctx context.Context, resourceID id.ResourceID, from, to models.Status, change StatusChange) (*models.Resource, error)
	CreateVersionSnapshot(ctx context.Context, snapshot models.VersionSnapshot) error
	ListVersionHistory(ctx context.Context, resourceID id.ResourceID) ([]models.VersionSnapshot, error)
	List(ctx context.Context, resourceType string, filter Filter, page Page) (ListResult, error)
}

// ApprovalRequest is handed to the external review workflow when a resource
// is submitted.
type ApprovalRequest struct {
	ResourceType string
	ResourceID   id.ResourceID
	Action       string
	Notes        string
}

// ApprovalTicket identifies the opened request in the external system.
type ApprovalTicket struct {
	ID string
}

// ApprovalOpener is the collaborator that tracks pending reviews outside the
// engine (ticketing, notifications). Invoked on submit.
type ApprovalOpener interface {
	Open(ctx context.Context, act actor.Context, req ApprovalRequest) (ApprovalTicket, error)
}

// ApprovalResolver closes the open task for a resource once a reviewer has
// acted. Best-effort: the engine never fails a transition over it.
type ApprovalResolver interface {
	Resolve(ctx context.Context, resourceID id.ResourceID, outcome string)
}

// Auditor records one entry per effectful engine call. *audit.Ledger
// satisfies this.
type Auditor interface {
	Log(ctx context.Context, act actor.Context, rec audit.Record) error
}
