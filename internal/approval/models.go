// Package approval tracks the review inbox: one open task per submitted
// resource, closed when a reviewer decides. The governance engine only ever
// opens tasks; closing happens from the review surfaces.
package approval

import (
	"time"

	id "aide/pkg/domain"
)

// TaskStatus is open until a reviewer acts on the submission.
type TaskStatus string

const (
	TaskOpen   TaskStatus = "open"
	TaskClosed TaskStatus = "closed"
)

// Task is one pending review request.
type Task struct {
	ID           string        `json:"id"`
	ResourceType string        `json:"resource_type"`
	ResourceID   id.ResourceID `json:"resource_id"`
	RequestedBy  string        `json:"requested_by"`
	Notes        string        `json:"notes,omitempty"`
	Status       TaskStatus    `json:"status"`
	Outcome      string        `json:"outcome,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	ClosedAt     *time.Time    `json:"closed_at,omitempty"`
}
