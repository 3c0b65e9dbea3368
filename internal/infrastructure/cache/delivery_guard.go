package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const deliveryKeyPrefix = "webhook:delivery:"

// RedisDeliveryGuard remembers webhook delivery ids in Redis for a fixed TTL
type RedisDeliveryGuard struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisDeliveryGuard creates a guard over an existing client
func NewRedisDeliveryGuard(client redis.UniversalClient, ttl time.Duration) *RedisDeliveryGuard {
	return &RedisDeliveryGuard{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// FirstDelivery records the id and reports whether it had not been seen before.
// An empty id is always treated as a first delivery.
func (g *RedisDeliveryGuard) FirstDelivery(ctx context.Context, webhookID string) (bool, error) {
	if webhookID == "" {
		return true, nil
	}

	ok, err := g.client.SetNX(ctx, deliveryKeyPrefix+webhookID, time.Now().UTC().Unix(), g.ttl).Result()
	if err != nil {
		return true, fmt.Errorf("failed to record webhook delivery: %w", err)
	}
	return ok, nil
}

// NoopDeliveryGuard treats every delivery as new
type NoopDeliveryGuard struct{}

// FirstDelivery always reports true
func (NoopDeliveryGuard) FirstDelivery(context.Context, string) (bool, error) {
	return true, nil
}
