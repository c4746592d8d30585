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

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewCache(rdb, "ac"), mr
}

func TestCachePutGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "tok-1", Entry{SubjectID: 7}, 0))

	e, err := cache.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), e.SubjectID)
}

func TestCacheGetMissing(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.Get(context.Background(), "never-stored")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestCacheDeleteReportsRemoval(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "tok-1", Entry{SubjectID: 7}, 0))

	removed, err := cache.Delete(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, removed)

	// Second delete of the same key finds nothing; this asymmetry is what
	// logout success reporting and single-use rotation are built on.
	removed, err = cache.Delete(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = cache.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestCachePutOverwrites(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "tok-1", Entry{SubjectID: 1}, 0))
	require.NoError(t, cache.Put(ctx, "tok-1", Entry{SubjectID: 2}, 0))

	e, err := cache.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), e.SubjectID)
}

func TestCacheTTLExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "short", Entry{SubjectID: 3}, 30*time.Second))
	require.NoError(t, cache.Put(ctx, "forever", Entry{SubjectID: 4}, 0))

	mr.FastForward(31 * time.Second)

	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	e, err := cache.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, int64(4), e.SubjectID)
}

func TestCacheKeysAreHashed(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	token := "raw-token-material-should-not-hit-redis"
	require.NoError(t, cache.Put(ctx, token, Entry{SubjectID: 5}, 0))

	for _, key := range mr.Keys() {
		assert.NotContains(t, key, token)
	}
}

func TestCacheUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	cache := NewCache(rdb, "ac")
	mr.Close()

	ctx := context.Background()
	assert.ErrorIs(t, cache.Put(ctx, "tok", Entry{SubjectID: 1}, 0), ErrRedisUnavailable)

	_, err = cache.Get(ctx, "tok")
	assert.ErrorIs(t, err, ErrRedisUnavailable)

	_, err = cache.Delete(ctx, "tok")
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}
