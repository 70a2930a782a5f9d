// Package memory holds the in-memory review task store.
package memory

import (
	"context"
	"sync"
	"time"

	"aide/internal/approval"
	id "aide/pkg/domain"
	"aide/pkg/platform/sentinel"
)

type Store struct {
	mu    sync.RWMutex
	tasks map[string]*approval.Task
	order []string
}

func New() *Store {
	return &Store{tasks: make(map[string]*approval.Task)}
}

func (s *Store) Create(_ context.Context, task *approval.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; exists {
		return sentinel.ErrConflict
	}
	c := *task
	s.tasks[task.ID] = &c
	s.order = append(s.order, task.ID)
	return nil
}

func (s *Store) Get(_ context.Context, taskID string) (*approval.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *task
	return &c, nil
}

func (s *Store) Close(_ context.Context, taskID, outcome string, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if task.Status == approval.TaskClosed {
		return sentinel.ErrInvalidState
	}
	task.Status = approval.TaskClosed
	task.Outcome = outcome
	t := closedAt
	task.ClosedAt = &t
	return nil
}

func (s *Store) ListOpen(_ context.Context, resourceType string) ([]*approval.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*approval.Task
	for _, taskID := range s.order {
		task := s.tasks[taskID]
		if task.Status == approval.TaskOpen && task.ResourceType == resourceType {
			c := *task
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) OpenTaskFor(_ context.Context, resourceID id.ResourceID) (*approval.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, taskID := range s.order {
		task := s.tasks[taskID]
		if task.Status == approval.TaskOpen && task.ResourceID == resourceID {
			c := *task
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
