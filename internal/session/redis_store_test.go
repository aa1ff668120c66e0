package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save then load", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		store := NewRedisStore(rdb, "", 0)

		require.NoError(t, store.Save(ctx, &Session{Token: "abc", UserID: 9}))
		assert.True(t, mr.Exists(DefaultRedisKey))

		sess, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc", sess.Token)
		assert.Equal(t, int64(9), sess.UserID)
		assert.Equal(t, []string{}, sess.Permissions)
	})

	t.Run("load without record", func(t *testing.T) {
		_, rdb := newTestRedis(t)
		store := NewRedisStore(rdb, "test:session", 0)

		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("patch merges and keeps ttl", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		store := NewRedisStore(rdb, "test:session", time.Hour)

		require.NoError(t, store.Save(ctx, &Session{Token: "abc"}))
		require.NoError(t, store.Patch(ctx, Patch{Permissions: []string{"terms:manage"}}))

		sess, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc", sess.Token)
		assert.Equal(t, []string{"terms:manage"}, sess.Permissions)
		assert.Equal(t, time.Hour, mr.TTL("test:session"))
	})

	t.Run("patch without record is a no-op", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		store := NewRedisStore(rdb, "test:session", 0)

		token := "abc"
		require.NoError(t, store.Patch(ctx, Patch{Token: &token}))
		assert.False(t, mr.Exists("test:session"))
	})

	t.Run("clear deletes the key", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		store := NewRedisStore(rdb, "test:session", 0)

		require.NoError(t, store.Save(ctx, &Session{Token: "abc"}))
		require.NoError(t, store.Clear(ctx))
		assert.False(t, mr.Exists("test:session"))

		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("corrupt value", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		store := NewRedisStore(rdb, "test:session", 0)

		require.NoError(t, mr.Set("test:session", "nope"))

		_, err := store.Load(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse session")
	})
}
