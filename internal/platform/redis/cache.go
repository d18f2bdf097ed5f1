package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// ViewCache is a JSON-backed Redis cache for one view type T. A ttl of 0
// stores keys without expiry.
type ViewCache[T any] struct {
	client *goredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewViewCache creates a ViewCache backed by client.
func NewViewCache[T any](client *goredis.Client, ttl time.Duration, logger *slog.Logger) *ViewCache[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewCache[T]{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "view_cache")),
	}
}

// Get returns the cached value. Any miss or decode failure reports false.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("cache decode failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	return &v, true
}

// Set stores value under key. Write failures are logged, not returned.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Delete removes keys. Failures are logged.
func (c *ViewCache[T]) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache delete failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// ProfileCache caches public user profiles by user ID.
type ProfileCache struct {
	views *ViewCache[domain.User]
}

// NewProfileCache creates a ProfileCache with the given entry lifetime.
func NewProfileCache(client *goredis.Client, ttl time.Duration, logger *slog.Logger) *ProfileCache {
	return &ProfileCache{views: NewViewCache[domain.User](client, ttl, logger)}
}

// ProfileKey returns the cache key of a user's profile.
func ProfileKey(id uuid.UUID) string {
	return "user:profile:" + id.String()
}

// Get returns the cached profile of id.
func (c *ProfileCache) Get(ctx context.Context, id uuid.UUID) (*domain.User, bool) {
	return c.views.Get(ctx, ProfileKey(id))
}

// Set caches user's profile.
func (c *ProfileCache) Set(ctx context.Context, user *domain.User) {
	c.views.Set(ctx, ProfileKey(user.ID), user)
}

// Invalidate drops the cached profiles of ids.
func (c *ProfileCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ProfileKey(id))
	}
	c.views.Delete(ctx, keys...)
}
