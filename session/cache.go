// Package session is the cache adapter holding the authoritative "this
// token is currently live" record, keyed by a hash of the token string.
//
// Cache membership is deliberately redundant with the token's own signed
// expiry: absence is an immediate revocation signal that needs no
// cryptographic verification, which is what makes logout work before a
// token's natural expiry.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrEntryNotFound is returned by Get for a key with no live entry.
	ErrEntryNotFound = errors.New("session entry not found")
	// ErrRedisUnavailable wraps transport-level cache failures so callers
	// can tell a miss from an outage.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrEntryCorrupt is returned when a stored entry fails to decode.
	ErrEntryCorrupt = errors.New("session entry corrupt")
)

// Cache stores Entry records in Redis with per-key TTLs. It is the only
// mutable shared resource in the module; Redis per-key atomicity is the
// only ordering guarantee between concurrent operations on the same token.
type Cache struct {
	redis  redis.UniversalClient
	prefix string
}

// NewCache wraps a Redis client. prefix namespaces all keys.
func NewCache(client redis.UniversalClient, prefix string) *Cache {
	if prefix == "" {
		prefix = "ac"
	}
	return &Cache{redis: client, prefix: prefix}
}

// key derives the storage key from the raw token string. Tokens are hashed
// so key length stays bounded and token material never appears in Redis.
func (c *Cache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.prefix + ":" + hex.EncodeToString(sum[:])
}

// Put registers a token as live. ttl <= 0 stores the entry without an
// explicit expiry, leaving staleness to the token's own signed expiry.
// Re-putting the same token overwrites.
func (c *Cache) Put(ctx context.Context, token string, e Entry, ttl time.Duration) error {
	data, err := EncodeEntry(e)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.redis.Set(ctx, c.key(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the live entry for a token, ErrEntryNotFound when absent.
func (c *Cache) Get(ctx context.Context, token string) (Entry, error) {
	data, err := c.redis.Get(ctx, c.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	e, err := DecodeEntry(data)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrEntryCorrupt, err)
	}
	return e, nil
}

// Delete removes a token's entry and reports whether one was actually
// removed. Deleting an absent entry is not an error, but the caller needs
// the distinction: logout of an unknown token is a reported failure, and
// refresh rotation relies on exactly one concurrent deleter winning.
func (c *Cache) Delete(ctx context.Context, token string) (bool, error) {
	removed, err := c.redis.Del(ctx, c.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return removed > 0, nil
}
