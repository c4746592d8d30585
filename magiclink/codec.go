// Package magiclink implements the stateless, HMAC-signed capability token
// proving control of an email address.
//
// A token is four dot-joined fields:
//
//	base64url(email) . issuedAtMillis . expiresAtMillis . hex(HMAC-SHA256)
//
// The MAC covers exactly the first three fields as transmitted. No server
// side record exists until the link is exchanged for a session; validity is
// fully determined by recomputing the MAC and checking the embedded expiry.
package magiclink

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid covers every redemption failure: wrong part count, bad
// encoding, expired window, and MAC mismatch. The wrapped cause is for logs.
var ErrInvalid = errors.New("invalid magic link token")

const partCount = 4

// DefaultTTL is the validity window when none is configured.
const DefaultTTL = 15 * time.Minute

// Codec issues and redeems magic-link tokens with a single HMAC key.
type Codec struct {
	key []byte
	ttl time.Duration
}

// NewCodec fails when the key is missing so a misconfigured deployment is a
// loud startup error, never a silent per-call fallback. ttl <= 0 selects
// DefaultTTL.
func NewCodec(key []byte, ttl time.Duration) (*Codec, error) {
	if len(key) == 0 {
		return nil, errors.New("magiclink: signing key is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{key: key, ttl: ttl}, nil
}

// Issue creates a token for email valid from now for the configured window.
func (c *Codec) Issue(email string, now time.Time) (string, error) {
	if email == "" {
		return "", errors.New("magiclink: email is required")
	}
	issuedAt := now.UnixMilli()
	expiresAt := now.Add(c.ttl).UnixMilli()

	payload := base64.RawURLEncoding.EncodeToString([]byte(email)) +
		"." + strconv.FormatInt(issuedAt, 10) +
		"." + strconv.FormatInt(expiresAt, 10)

	return payload + "." + c.sign(payload), nil
}

// Redeem validates a token against now and returns the embedded email.
// Any mutation of the email, either timestamp, or the MAC itself fails.
func (c *Codec) Redeem(token string, now time.Time) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != partCount {
		return "", fmt.Errorf("%w: expected %d parts, got %d", ErrInvalid, partCount, len(parts))
	}

	payload := parts[0] + "." + parts[1] + "." + parts[2]
	// Exact equality over the hex encoding, not over decoded bytes: a
	// non-canonical spelling of the right digest is still a mismatch.
	if !hmac.Equal([]byte(parts[3]), []byte(c.sign(payload))) {
		return "", fmt.Errorf("%w: signature mismatch", ErrInvalid)
	}

	issuedAt, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: malformed issue timestamp", ErrInvalid)
	}
	expiresAt, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: malformed expiry timestamp", ErrInvalid)
	}
	if expiresAt < issuedAt {
		return "", fmt.Errorf("%w: expiry precedes issuance", ErrInvalid)
	}
	if now.UnixMilli() > expiresAt {
		return "", fmt.Errorf("%w: expired", ErrInvalid)
	}

	email, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(email) == 0 {
		return "", fmt.Errorf("%w: malformed email", ErrInvalid)
	}
	return string(email), nil
}

func (c *Codec) mac(payload string) []byte {
	h := hmac.New(sha256.New, c.key)
	h.Write([]byte(payload))
	return h.Sum(nil)
}

func (c *Codec) sign(payload string) string {
	return hex.EncodeToString(c.mac(payload))
}
