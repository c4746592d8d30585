package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(now func() time.Time) Config {
	return Config{
		AccessSecret:  []byte("access-secret-0123456789abcdef00"),
		RefreshSecret: []byte("refresh-secret-0123456789abcdef0"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Now:           now,
	}
}

func TestNewCodecValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing access secret", func(c *Config) { c.AccessSecret = nil }},
		{"missing refresh secret", func(c *Config) { c.RefreshSecret = nil }},
		{"identical secrets", func(c *Config) { c.RefreshSecret = c.AccessSecret }},
		{"zero access TTL", func(c *Config) { c.AccessTTL = 0 }},
		{"negative refresh TTL", func(c *Config) { c.RefreshTTL = -time.Hour }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(nil)
			tt.mutate(&cfg)
			_, err := NewCodec(cfg)
			assert.Error(t, err)
		})
	}
}

func TestIssueParseRoundTrip(t *testing.T) {
	codec, err := NewCodec(testConfig(nil))
	require.NoError(t, err)

	for _, kind := range []Kind{KindAccess, KindRefresh} {
		t.Run(kind.String(), func(t *testing.T) {
			raw, err := codec.Issue(kind, 42)
			require.NoError(t, err)
			require.NotEmpty(t, raw)

			tok, err := codec.Parse(raw, kind)
			require.NoError(t, err)
			assert.Equal(t, int64(42), tok.SubjectID)
			assert.True(t, tok.ExpiresAt.After(tok.IssuedAt))
		})
	}
}

func TestParseRejectsCrossKind(t *testing.T) {
	codec, err := NewCodec(testConfig(nil))
	require.NoError(t, err)

	access, err := codec.Issue(KindAccess, 7)
	require.NoError(t, err)
	refresh, err := codec.Issue(KindRefresh, 7)
	require.NoError(t, err)

	_, err = codec.Parse(access, KindRefresh)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = codec.Parse(refresh, KindAccess)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsExpired(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := t0
	codec, err := NewCodec(testConfig(func() time.Time { return current }))
	require.NoError(t, err)

	raw, err := codec.Issue(KindAccess, 9)
	require.NoError(t, err)

	// Still valid one second before the embedded expiry.
	current = t0.Add(15*time.Minute - time.Second)
	_, err = codec.Parse(raw, KindAccess)
	require.NoError(t, err)

	current = t0.Add(15*time.Minute + time.Second)
	_, err = codec.Parse(raw, KindAccess)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsTampered(t *testing.T) {
	codec, err := NewCodec(testConfig(nil))
	require.NoError(t, err)

	raw, err := codec.Issue(KindAccess, 11)
	require.NoError(t, err)

	tampered := []byte(raw)
	mid := len(tampered) / 2
	if tampered[mid] == 'a' {
		tampered[mid] = 'b'
	} else {
		tampered[mid] = 'a'
	}
	_, err = codec.Parse(string(tampered), KindAccess)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsGarbage(t *testing.T) {
	codec, err := NewCodec(testConfig(nil))
	require.NoError(t, err)

	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := codec.Parse(raw, KindAccess)
		assert.ErrorIs(t, err, ErrInvalid, "input %q", raw)
	}
}

func TestIssueRejectsNonPositiveSubject(t *testing.T) {
	codec, err := NewCodec(testConfig(nil))
	require.NoError(t, err)

	for _, id := range []int64{0, -1} {
		_, err := codec.Issue(KindAccess, id)
		assert.Error(t, err)
	}
}

func TestIssuedTokensAreDistinct(t *testing.T) {
	codec, err := NewCodec(testConfig(nil))
	require.NoError(t, err)

	first, err := codec.Issue(KindAccess, 3)
	require.NoError(t, err)
	second, err := codec.Issue(KindAccess, 3)
	require.NoError(t, err)
	// The random jti keeps tokens for the same subject from colliding.
	assert.NotEqual(t, first, second)
}
