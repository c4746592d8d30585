// Package token creates and parses the signed access and refresh tokens.
//
// The two kinds are signed with distinct secrets so that a refresh token
// can never be accepted where an access token is expected, and vice versa.
// Expiry travels inside the signed payload; the session cache decides
// whether a structurally valid token is still live.
package token

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects the signing secret and lifetime for a token.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// ErrInvalid is the single externally relevant parse failure. The wrapped
// cause (bad signature, wrong kind, malformed, expired) is preserved for
// logging but callers only branch on valid-or-not.
var ErrInvalid = errors.New("invalid token")

// Token is the decoded, verified content of a parsed token.
type Token struct {
	SubjectID int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Config for a Codec. Both secrets are required and must be distinct.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Now overrides the clock used for issuance and expiry validation.
	// Nil means time.Now.
	Now func() time.Time
}

// Codec issues and parses both token kinds.
type Codec struct {
	config Config
	now    func() time.Time
}

type sessionClaims struct {
	Kind string `json:"tkn"`
	jwt.RegisteredClaims
}

func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token: both signing secrets are required")
	}
	if len(cfg.AccessSecret) == len(cfg.RefreshSecret) &&
		subtle.ConstantTimeCompare(cfg.AccessSecret, cfg.RefreshSecret) == 1 {
		return nil, errors.New("token: access and refresh secrets must be distinct")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: TTLs must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{config: cfg, now: now}, nil
}

// Issue signs a new token of the given kind for subjectID. The embedded
// expiry is the kind's TTL from the codec clock.
func (c *Codec) Issue(kind Kind, subjectID int64) (string, error) {
	if subjectID <= 0 {
		return "", errors.New("token: subject id must be positive")
	}
	secret, ttl, err := c.kindParams(kind)
	if err != nil {
		return "", err
	}

	now := c.now()
	claims := sessionClaims{
		Kind: kind.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Parse verifies signature, kind, and embedded expiry. Every failure wraps
// ErrInvalid.
func (c *Codec) Parse(tokenStr string, kind Kind) (*Token, error) {
	secret, _, err := c.kindParams(kind)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: claims of unexpected shape", ErrInvalid)
	}
	// The distinct secrets already reject cross-kind tokens; the embedded
	// kind claim catches a future secret-reuse misconfiguration.
	if claims.Kind != kind.String() {
		return nil, fmt.Errorf("%w: kind mismatch: got %q", ErrInvalid, claims.Kind)
	}
	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subjectID <= 0 {
		return nil, fmt.Errorf("%w: bad subject %q", ErrInvalid, claims.Subject)
	}

	tok := &Token{SubjectID: subjectID}
	if claims.IssuedAt != nil {
		tok.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		tok.ExpiresAt = claims.ExpiresAt.Time
	}
	return tok, nil
}

func (c *Codec) kindParams(kind Kind) ([]byte, time.Duration, error) {
	switch kind {
	case KindAccess:
		return c.config.AccessSecret, c.config.AccessTTL, nil
	case KindRefresh:
		return c.config.RefreshSecret, c.config.RefreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("token: unknown kind %d", kind)
	}
}
