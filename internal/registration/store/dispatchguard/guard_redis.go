package dispatchguard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const guardKeyPrefix = "fanout:guard:"

// Redis is the distributed guard for multi-instance deployments. SET NX with
// TTL gives the atomic acquire; expiry cleans up after crashed holders.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed dispatch guard.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (g *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	// Store "1" as a simple marker; the key existence is what matters.
	return g.client.SetNX(ctx, guardKeyPrefix+key, "1", ttl).Result()
}

func (g *Redis) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, guardKeyPrefix+key).Err()
}
