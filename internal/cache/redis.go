package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "idem:"

// Redis backs the idempotency cache with a Redis instance so multiple
// replicas behind one load balancer share keys. Entries carry a Redis TTL
// instead of in-process eviction.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// Ensure Redis implements IdempotencyCache at compile time.
var _ IdempotencyCache = (*Redis)(nil)

func NewRedis(redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	path, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get idempotency key: %w", err)
	}

	// Paths are only valid on the replica that wrote the file; a missing file
	// means it was cleaned up or belongs to another host, so drop the entry.
	if _, statErr := os.Stat(path); statErr != nil {
		_ = r.client.Del(ctx, redisKeyPrefix+key).Err()
		return "", false, nil
	}

	return path, true, nil
}

func (r *Redis) Set(ctx context.Context, key, path string) error {
	if err := r.client.Set(ctx, redisKeyPrefix+key, path, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return nil
}
