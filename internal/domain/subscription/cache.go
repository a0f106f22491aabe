package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// EntitlementCache holds subscription snapshots for hot-path feature and limit checks.
type EntitlementCache interface {
	Get(ctx context.Context, id string) (Subscription, bool, error)
	Set(ctx context.Context, sub Subscription) error
	Invalidate(ctx context.Context, id string) error
}

const defaultEntitlementTTL = 5 * time.Minute

type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultEntitlementTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func CacheKey(id string) string {
	return "subscription:entitlement:" + id
}

func (c *RedisCache) Get(ctx context.Context, id string) (Subscription, bool, error) {
	raw, err := c.client.Get(ctx, CacheKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return Subscription{}, false, nil
	}
	if err != nil {
		return Subscription{}, false, err
	}
	var sub Subscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return Subscription{}, false, err
	}
	return sub, true, nil
}

func (c *RedisCache) Set(ctx context.Context, sub Subscription) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, CacheKey(sub.ID), payload, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, CacheKey(id)).Err()
}
