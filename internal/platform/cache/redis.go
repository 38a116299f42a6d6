package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultOpTimeout bounds every Redis round trip so a slow cache cannot stall a request.
const defaultOpTimeout = 500 * time.Millisecond

// RedisCache implements Cache on top of a Redis server.
type RedisCache struct {
	client    *redis.Client
	logger    *slog.Logger
	opTimeout time.Duration
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to the server described by a redis:// URL.
// The connection is established lazily; call Ping to verify it.
func NewRedisCache(redisURL string, logger *slog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RedisCache{
		client:    redis.NewClient(opts),
		logger:    logger.With(slog.String("component", "redis_cache")),
		opTimeout: defaultOpTimeout,
	}, nil
}

// Get implements Cache.Get
func (r *RedisCache) Get(ctx context.Context, key string, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return nil
}

// Set implements Cache.Set
func (r *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Delete implements Cache.Delete
func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	return r.client.Del(ctx, keys...).Err()
}

// Ping implements Cache.Ping
func (r *RedisCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

// Close implements Cache.Close
func (r *RedisCache) Close() error {
	r.logger.Debug("closing redis connection")
	return r.client.Close()
}
