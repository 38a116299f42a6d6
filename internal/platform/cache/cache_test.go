package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Total   int    `json:"total"`
	Comment string `json:"comment"`
}

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRedisCache("redis://"+mr.Addr()+"/0", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisCache("not a url", nil)
	assert.Error(t, err)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	t.Parallel()
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	var out payload
	assert.ErrorIs(t, c.Get(ctx, "stats", &out), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "stats", payload{Total: 3, Comment: "ok"}, time.Minute))
	require.NoError(t, c.Get(ctx, "stats", &out))
	assert.Equal(t, payload{Total: 3, Comment: "ok"}, out)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "stats", &out), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Delete(ctx, "a", "b", "missing"))
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
	require.NoError(t, c.Delete(ctx))
}

func TestRedisCache_CorruptValue(t *testing.T) {
	t.Parallel()
	c, mr := setupTestRedis(t)

	require.NoError(t, mr.Set("stats", "{not json"))

	var out payload
	err := c.Get(context.Background(), "stats", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestGetOrLoad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("loads once then serves from cache", func(t *testing.T) {
		t.Parallel()
		c, _ := setupTestRedis(t)

		calls := 0
		load := func(context.Context) (payload, error) {
			calls++
			return payload{Total: calls}, nil
		}

		first, err := GetOrLoad(ctx, c, "k", time.Minute, load)
		require.NoError(t, err)
		second, err := GetOrLoad(ctx, c, "k", time.Minute, load)
		require.NoError(t, err)

		assert.Equal(t, 1, calls)
		assert.Equal(t, first, second)

		Invalidate(ctx, c, "k")
		third, err := GetOrLoad(ctx, c, "k", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, 2, third.Total)
	})

	t.Run("load errors are returned and not cached", func(t *testing.T) {
		t.Parallel()
		c, mr := setupTestRedis(t)

		loadErr := errors.New("db down")
		_, err := GetOrLoad(ctx, c, "k", time.Minute, func(context.Context) (payload, error) {
			return payload{}, loadErr
		})
		assert.ErrorIs(t, err, loadErr)
		assert.False(t, mr.Exists("k"))
	})

	t.Run("unavailable backend degrades to loader", func(t *testing.T) {
		t.Parallel()
		c, mr := setupTestRedis(t)
		mr.Close()

		got, err := GetOrLoad(ctx, c, "k", time.Minute, func(context.Context) (payload, error) {
			return payload{Total: 7}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, got.Total)
	})

	t.Run("noop cache always loads", func(t *testing.T) {
		t.Parallel()

		calls := 0
		for i := 0; i < 2; i++ {
			_, err := GetOrLoad(ctx, NoopCache{}, "k", time.Minute, func(context.Context) (int, error) {
				calls++
				return calls, nil
			})
			require.NoError(t, err)
		}
		assert.Equal(t, 2, calls)
		assert.NoError(t, NoopCache{}.Ping(ctx))
		assert.NoError(t, NoopCache{}.Close())
	})
}
