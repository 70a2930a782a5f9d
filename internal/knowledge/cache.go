package knowledge

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"aide/internal/governance/models"
	id "aide/pkg/domain"
)

// DefaultCacheTTL bounds staleness of the published-article cache. Archive
// drops entries eagerly; the TTL is the backstop for missed invalidations.
const DefaultCacheTTL = 5 * time.Minute

// Cache is a best-effort redis read-through for published articles. Every
// miss or redis failure falls back to the store; no caller ever sees a cache
// error.
type Cache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(articleID id.ResourceID) string {
	return "aide:knowledge:published:" + articleID.String()
}

func (c *Cache) Get(ctx context.Context, articleID id.ResourceID) (*models.Resource, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(articleID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "knowledge cache read failed", "article_id", articleID.String(), "error", err)
		}
		return nil, false
	}
	var article models.Resource
	if err := json.Unmarshal(raw, &article); err != nil {
		c.logger.WarnContext(ctx, "knowledge cache entry corrupt", "article_id", articleID.String(), "error", err)
		return nil, false
	}
	return &article, true
}

func (c *Cache) Put(ctx context.Context, article *models.Resource) {
	raw, err := json.Marshal(article)
	if err != nil {
		c.logger.WarnContext(ctx, "knowledge cache encode failed", "article_id", article.ID.String(), "error", err)
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(article.ID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "knowledge cache write failed", "article_id", article.ID.String(), "error", err)
	}
}

func (c *Cache) Drop(ctx context.Context, articleID id.ResourceID) {
	if err := c.rdb.Del(ctx, cacheKey(articleID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "knowledge cache invalidation failed", "article_id", articleID.String(), "error", err)
	}
}
