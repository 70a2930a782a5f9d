// Package knowledge is the curated help-content domain: articles written by
// support staff, walked through review, and served to assistant sessions once
// published. Lifecycle semantics live in the governance engine; this layer
// binds the knowledge permission set and keeps a read-through cache of
// published articles in front of the store.
package knowledge

import (
	"context"
	"log/slog"

	"aide/internal/actor"
	"aide/internal/governance/models"
	"aide/internal/governance/service"
	id "aide/pkg/domain"
)

// ResourceType discriminates knowledge rows in the shared resources table.
const ResourceType = "knowledge"

// Permission strings for the knowledge domain.
const (
	PermRead    = "knowledge:read"
	PermWrite   = "knowledge:write"
	PermReview  = "knowledge:review"
	PermPublish = "knowledge:publish"
)

// Perms is the capability set the governance engine is configured with.
func Perms() service.Permissions {
	return service.Permissions{
		Read:    PermRead,
		Write:   PermWrite,
		Review:  PermReview,
		Publish: PermPublish,
	}
}

// Service fronts the governance engine for knowledge articles.
type Service struct {
	engine *service.Engine
	cache  *Cache
	logger *slog.Logger
}

// NewService wires the knowledge domain. cache may be nil when redis is not
// configured.
func NewService(engine *service.Engine, cache *Cache, logger *slog.Logger) *Service {
	return &Service{engine: engine, cache: cache, logger: logger}
}

// ArticleInput carries the author-supplied fields for a new article.
type ArticleInput struct {
	Title    string
	Content  string
	Category string
	Tags     []string
}

func (s *Service) Create(ctx context.Context, act actor.Context, input ArticleInput) (*models.Resource, error) {
	return s.engine.Create(ctx, act, service.NewResourceInput{
		Title:    input.Title,
		Content:  input.Content,
		Category: input.Category,
		Tags:     input.Tags,
	})
}

// Get serves published articles from the cache when possible. Non-published
// statuses always go to the store so review surfaces never see stale content.
func (s *Service) Get(ctx context.Context, act actor.Context, articleID id.ResourceID) (*models.Resource, error) {
	if s.cache != nil {
		if article, ok := s.cache.Get(ctx, articleID); ok && article.Status == models.StatusPublished {
			if s.engine.CanView(act, article) {
				return article, nil
			}
		}
	}
	article, err := s.engine.Get(ctx, act, articleID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && article.Status == models.StatusPublished {
		s.cache.Put(ctx, article)
	}
	return article, nil
}

func (s *Service) List(ctx context.Context, act actor.Context, filter service.Filter, page service.Page) (service.ListResult, error) {
	return s.engine.List(ctx, act, filter, page)
}

func (s *Service) Update(ctx context.Context, act actor.Context, articleID id.ResourceID, patch models.Patch) (*models.Resource, error) {
	return s.engine.Update(ctx, act, articleID, patch)
}

func (s *Service) SubmitForReview(ctx context.Context, act actor.Context, articleID id.ResourceID, notes string) (*models.Resource, error) {
	return s.engine.SubmitForReview(ctx, act, articleID, notes)
}

func (s *Service) Approve(ctx context.Context, act actor.Context, articleID id.ResourceID, notes string) (*models.Resource, error) {
	return s.engine.Approve(ctx, act, articleID, notes)
}

func (s *Service) Reject(ctx context.Context, act actor.Context, articleID id.ResourceID, reason string) (*models.Resource, error) {
	return s.engine.Reject(ctx, act, articleID, reason)
}

func (s *Service) Publish(ctx context.Context, act actor.Context, articleID id.ResourceID) (*models.Resource, error) {
	article, err := s.engine.Publish(ctx, act, articleID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Put(ctx, article)
	}
	return article, nil
}

// Archive retires an article and drops it from the published cache.
func (s *Service) Archive(ctx context.Context, act actor.Context, articleID id.ResourceID, reason string) (*models.Resource, error) {
	article, err := s.engine.Archive(ctx, act, articleID, reason)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Drop(ctx, articleID)
	}
	return article, nil
}

func (s *Service) VersionHistory(ctx context.Context, act actor.Context, articleID id.ResourceID) ([]models.VersionSnapshot, error) {
	return s.engine.VersionHistory(ctx, act, articleID)
}
