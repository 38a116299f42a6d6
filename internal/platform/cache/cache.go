// Package cache provides the optional cache-aside layer in front of the stores.
// Values are stored as JSON. A cache failure never fails a request: readers
// fall back to the loader and writers only log.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a key/value store with per-entry expiry.
type Cache interface {
	// Get decodes the value stored under key into dest.
	// Returns ErrCacheMiss if the key does not exist.
	Get(ctx context.Context, key string, dest any) error

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Ping checks connectivity to the backend.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// GetOrLoad returns the cached value for key, or calls load and caches its result.
// Backend errors are logged and treated as a miss. Load errors are returned as is
// and nothing is cached.
func GetOrLoad[T any](
	ctx context.Context,
	c Cache,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (T, error),
) (T, error) {
	log := logger.FromContext(ctx)

	var cached T
	err := c.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		log.Warn("cache read failed, loading from store",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		log.Warn("cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	return value, nil
}

// Invalidate deletes keys and logs rather than returns a failure.
func Invalidate(ctx context.Context, c Cache, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		logger.FromContext(ctx).Warn("cache invalidation failed",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
	}
}

// NoopCache never stores anything. It is used when caching is disabled.
type NoopCache struct{}

var _ Cache = NoopCache{}

// Get always reports a miss.
func (NoopCache) Get(context.Context, string, any) error { return ErrCacheMiss }

// Set discards the value.
func (NoopCache) Set(context.Context, string, any, time.Duration) error { return nil }

// Delete does nothing.
func (NoopCache) Delete(context.Context, ...string) error { return nil }

// Ping always succeeds.
func (NoopCache) Ping(context.Context) error { return nil }

// Close does nothing.
func (NoopCache) Close() error { return nil }
