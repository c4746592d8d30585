package authcore

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequiresDependencies(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	provider := &fakeProvider{creds: map[string]Credential{}}

	_, err = New().WithRedis(rdb).WithCredentialProvider(provider).Build()
	assert.Error(t, err, "secrets missing")

	_, err = New().WithConfig(validTestConfig()).WithCredentialProvider(provider).Build()
	assert.Error(t, err, "redis missing")

	_, err = New().WithConfig(validTestConfig()).WithRedis(rdb).Build()
	assert.Error(t, err, "provider missing")

	authority, err := New().
		WithConfig(validTestConfig()).
		WithRedis(rdb).
		WithCredentialProvider(provider).
		Build()
	require.NoError(t, err)
	assert.NotNil(t, authority)
}

func TestBuildRejectsSharedSecrets(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := validTestConfig()
	cfg.RefreshSecret = cfg.AccessSecret

	_, err = New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialProvider(&fakeProvider{}).
		Build()
	assert.Error(t, err)
}

// Concurrent refreshes of the same token must produce exactly one winner;
// every loser observes a failure, never a partial state.
func TestConcurrentRefreshSingleWinner(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	pair, err := fx.authority.CreateSession(ctx, 1)
	require.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)
	tokens := make([]string, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], results[i] = fx.authority.RefreshSession(ctx, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	var winners int
	for i := 0; i < attempts; i++ {
		if results[i] == nil {
			winners++
			assert.True(t, fx.authority.VerifySession(ctx, tokens[i]))
		} else {
			assert.ErrorIs(t, results[i], ErrRefreshInvalid)
		}
	}
	assert.Equal(t, 1, winners)
}
