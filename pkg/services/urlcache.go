package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/labelforge/labelforge-engine/pkg/storage"
)

// URLCache serves presigned object URLs through a read-through cache. Cached
// entries expire before the underlying URL does, so a cache hit is always
// still usable by the client. A cache outage degrades to signing on every
// request, never to a failure.
type URLCache interface {
	// SignedURL returns a presigned read URL for the object at path, cached
	// under kind and id.
	SignedURL(ctx context.Context, kind, id, path string) (string, error)
	// Invalidate drops the cached URL for kind and id.
	Invalidate(ctx context.Context, kind, id string)
}

// Cache key kinds.
const (
	URLKindDataset = "dataset"
	URLKindImage   = "image"
)

// redisURLCache caches signed URLs in Redis under "signed_url:<kind>:<id>".
type redisURLCache struct {
	client   *redis.Client
	store    storage.ObjectStore
	urlTTL   time.Duration
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewRedisURLCache creates a Redis-backed signed URL cache. cacheTTL must be
// shorter than urlTTL; config validation enforces that upstream.
func NewRedisURLCache(
	client *redis.Client,
	store storage.ObjectStore,
	urlTTL, cacheTTL time.Duration,
	logger *zap.Logger,
) URLCache {
	return &redisURLCache{
		client:   client,
		store:    store,
		urlTTL:   urlTTL,
		cacheTTL: cacheTTL,
		logger:   logger.Named("urlcache"),
	}
}

func urlCacheKey(kind, id string) string {
	return fmt.Sprintf("signed_url:%s:%s", kind, id)
}

func (c *redisURLCache) SignedURL(ctx context.Context, kind, id, path string) (string, error) {
	key := urlCacheKey(kind, id)

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("URL cache read failed, signing directly",
			zap.String("key", key),
			zap.Error(err))
	}

	signed, err := c.store.SignedURL(ctx, path, c.urlTTL)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, signed, c.cacheTTL).Err(); err != nil {
		c.logger.Warn("URL cache write failed",
			zap.String("key", key),
			zap.Error(err))
	}

	return signed, nil
}

func (c *redisURLCache) Invalidate(ctx context.Context, kind, id string) {
	key := urlCacheKey(kind, id)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("URL cache invalidation failed",
			zap.String("key", key),
			zap.Error(err))
	}
}

// passthroughURLCache signs every request directly. Used when Redis is not
// configured.
type passthroughURLCache struct {
	store  storage.ObjectStore
	urlTTL time.Duration
}

// NewPassthroughURLCache creates a URLCache that never caches.
func NewPassthroughURLCache(store storage.ObjectStore, urlTTL time.Duration) URLCache {
	return &passthroughURLCache{store: store, urlTTL: urlTTL}
}

func (c *passthroughURLCache) SignedURL(ctx context.Context, _, _, path string) (string, error) {
	return c.store.SignedURL(ctx, path, c.urlTTL)
}

func (c *passthroughURLCache) Invalidate(context.Context, string, string) {}

// Ensure implementations satisfy URLCache at compile time.
var (
	_ URLCache = (*redisURLCache)(nil)
	_ URLCache = (*passthroughURLCache)(nil)
)
