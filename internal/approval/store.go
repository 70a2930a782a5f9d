package approval

import (
	"context"
	"time"

	id "aide/pkg/domain"
)

// Store persists review tasks. Absent rows surface as sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, task *Task) error
	Get(ctx context.Context, taskID string) (*Task, error)
	// Close marks the task closed with the given outcome; closing a closed
	// task returns sentinel.ErrInvalidState.
	Close(ctx context.Context, taskID, outcome string, closedAt time.Time) error
	ListOpen(ctx context.Context, resourceType string) ([]*Task, error)
	// OpenTaskFor returns the open task for a resource, if any.
	OpenTaskFor(ctx context.Context, resourceID id.ResourceID) (*Task, error)
}
