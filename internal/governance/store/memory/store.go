// Package memory holds the in-memory resource store used by unit tests and
// local development. Conditional status writes are enforced under the same
// lock that applies them, mirroring what the postgres store gets from
// conditional UPDATEs.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"aide/internal/governance/models"
	"aide/internal/governance/service"
	id "aide/pkg/domain"
	"aide/pkg/platform/sentinel"
)

type Store struct {
	mu        sync.RWMutex
	resources map[id.ResourceID]*models.Resource
	snapshots map[id.ResourceID][]models.VersionSnapshot
	order     []id.ResourceID
}

func New() *Store {
	return &Store{
		resources: make(map[id.ResourceID]*models.Resource),
		snapshots: make(map[id.ResourceID][]models.VersionSnapshot),
	}
}

func (s *Store) Create(_ context.Context, resource *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.resources[resource.ID]; exists {
		return sentinel.ErrConflict
	}
	s.resources[resource.ID] = clone(resource)
	s.order = append(s.order, resource.ID)
	return nil
}

func (s *Store) Get(_ context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resource, ok := s.resources[resourceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(resource), nil
}

func (s *Store) Update(_ context.Context, resource *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.resources[resource.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	// Lifecycle columns are owned by UpdateStatus; preserve them.
	next := clone(resource)
	next.Status = stored.Status
	next.ReviewerID = stored.ReviewerID
	next.PublishedAt = stored.PublishedAt
	next.Active = stored.Active
	next.ActivatedAt = stored.ActivatedAt
	s.resources[resource.ID] = next
	return nil
}

func (s *Store) UpdateStatus(_ context.Context, resourceID id.ResourceID, from, to models.Status, change service.StatusChange) (*models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.resources[resourceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if stored.Status != from {
		return nil, sentinel.ErrStaleStatus
	}
	stored.Status = to
	if change.ReviewerID != nil {
		stored.ReviewerID = *change.ReviewerID
	}
	if change.PublishedAt != nil {
		t := *change.PublishedAt
		stored.PublishedAt = &t
	}
	stored.UpdatedAt = change.UpdatedAt
	return clone(stored), nil
}

func (s *Store) CreateVersionSnapshot(_ context.Context, snapshot models.VersionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.ResourceID] = append(s.snapshots[snapshot.ResourceID], snapshot)
	return nil
}

func (s *Store) ListVersionHistory(_ context.Context, resourceID id.ResourceID) ([]models.VersionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := append([]models.VersionSnapshot(nil), s.snapshots[resourceID]...)
	sort.Slice(history, func(i, j int) bool { return history[i].Version < history[j].Version })
	return history, nil
}

func (s *Store) List(_ context.Context, resourceType string, filter service.Filter, page service.Page) (service.ListResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Resource
	for _, rid := range s.order {
		r := s.resources[rid]
		if r.Type != resourceType {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.AuthorID != "" && r.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		matched = append(matched, clone(r))
	}

	offset := 0
	if page.Cursor != "" {
		if n, err := strconv.Atoi(page.Cursor); err == nil && n > 0 {
			offset = n
		}
	}
	if offset >= len(matched) {
		return service.ListResult{}, nil
	}
	end := offset + page.Limit
	hasMore := end < len(matched)
	if !hasMore {
		end = len(matched)
	}
	result := service.ListResult{Items: matched[offset:end], HasMore: hasMore}
	if hasMore {
		result.NextCursor = strconv.Itoa(end)
	}
	return result, nil
}

// ActivateExclusive flips the active flag to the given published resource,
// atomically clearing the previous holder in the same scope. Returns the
// updated resource.
func (s *Store) ActivateExclusive(_ context.Context, resourceID id.ResourceID, now time.Time) (*models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.resources[resourceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if target.Status != models.StatusPublished {
		return nil, sentinel.ErrInvalidState
	}
	for _, r := range s.resources {
		if r.Type == target.Type && r.Scope == target.Scope && r.Active && r.ID != target.ID {
			r.Active = false
			r.UpdatedAt = now
		}
	}
	target.Active = true
	t := now
	target.ActivatedAt = &t
	target.UpdatedAt = now
	return clone(target), nil
}

// ActiveInScope returns the current active holder for a type and scope, or
// ErrNotFound when the scope has none.
func (s *Store) ActiveInScope(_ context.Context, resourceType, scope string) (*models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.resources {
		if r.Type == resourceType && r.Scope == scope && r.Active {
			return clone(r), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func clone(r *models.Resource) *models.Resource {
	c := *r
	c.Tags = append([]string(nil), r.Tags...)
	if r.PublishedAt != nil {
		t := *r.PublishedAt
		c.PublishedAt = &t
	}
	if r.ActivatedAt != nil {
		t := *r.ActivatedAt
		c.ActivatedAt = &t
	}
	return &c
}
