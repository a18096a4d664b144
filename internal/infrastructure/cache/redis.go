package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/biterank/backend/internal/domain"
)

const redisKeyPrefix = "biterank:recommendations:"

type redisEntry struct {
	Listings []domain.RestaurantListing `json:"listings"`
	StoredAt time.Time                  `json:"storedAt"`
}

// RedisCache keeps listings in Redis with the TTL as key expiry, so several
// backend instances share one cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisCache wraps an existing client; a non-positive ttl means DefaultTTL
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl, now: time.Now}
}

// NewRedisClient builds a client from a redis:// URL
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.RestaurantListing, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: redis get: %v", domain.ErrCacheUnavailable, err)
	}

	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal cache: %w", err)
	}
	// Redis expiry has second granularity; do not serve a stale tail.
	if c.now().Sub(entry.StoredAt) > c.ttl {
		return nil, domain.ErrCacheMiss
	}
	return entry.Listings, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, listings []domain.RestaurantListing) error {
	raw, err := json.Marshal(redisEntry{Listings: listings, StoredAt: c.now()})
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// SweepExpired is a no-op: Redis evicts keys when their TTL runs out.
func (c *RedisCache) SweepExpired(ctx context.Context) error {
	return nil
}

// Ping reports whether the Redis server is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}
