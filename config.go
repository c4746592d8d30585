package authcore

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Default lifetimes. Access tokens are short-lived and re-minted through
// refresh; refresh tokens bound how long a session can survive without
// re-authentication; magic links are valid for a single short window.
const (
	DefaultAccessTTL    = 15 * time.Minute
	DefaultRefreshTTL   = 7 * 24 * time.Hour
	DefaultMagicLinkTTL = 15 * time.Minute
	DefaultRedisPrefix  = "ac"
)

const minSecretBytes = 16

// Config carries everything the Authority needs beyond its injected
// dependencies. It is constructed once at process start and validated in
// Build; a missing or reused secret is a construction error, never a
// deferred per-call fallback.
type Config struct {
	// AccessSecret signs short-lived access tokens.
	AccessSecret []byte
	// RefreshSecret signs long-lived refresh tokens. It must differ from
	// AccessSecret so a refresh token can never pass as an access token.
	RefreshSecret []byte
	// MagicLinkSecret keys the magic-link HMAC.
	MagicLinkSecret []byte

	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	MagicLinkTTL time.Duration

	// RedisPrefix namespaces session cache keys.
	RedisPrefix string
}

// DefaultConfig returns a Config with default lifetimes and prefix. Secrets
// have no defaults; the zero values fail validation.
func DefaultConfig() Config {
	return Config{
		AccessTTL:    DefaultAccessTTL,
		RefreshTTL:   DefaultRefreshTTL,
		MagicLinkTTL: DefaultMagicLinkTTL,
		RedisPrefix:  DefaultRedisPrefix,
	}
}

func (c *Config) applyDefaults() {
	if c.AccessTTL == 0 {
		c.AccessTTL = DefaultAccessTTL
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = DefaultRefreshTTL
	}
	if c.MagicLinkTTL == 0 {
		c.MagicLinkTTL = DefaultMagicLinkTTL
	}
	if c.RedisPrefix == "" {
		c.RedisPrefix = DefaultRedisPrefix
	}
}

func (c *Config) validate() error {
	secrets := []struct {
		name  string
		value []byte
	}{
		{"access secret", c.AccessSecret},
		{"refresh secret", c.RefreshSecret},
		{"magic link secret", c.MagicLinkSecret},
	}
	for _, s := range secrets {
		if len(s.value) == 0 {
			return fmt.Errorf("config: %s is required", s.name)
		}
		if len(s.value) < minSecretBytes {
			return fmt.Errorf("config: %s must be at least %d bytes", s.name, minSecretBytes)
		}
	}
	// The three signing roles must never share key material.
	for i := 0; i < len(secrets); i++ {
		for j := i + 1; j < len(secrets); j++ {
			if len(secrets[i].value) == len(secrets[j].value) &&
				subtle.ConstantTimeCompare(secrets[i].value, secrets[j].value) == 1 {
				return fmt.Errorf("config: %s and %s must be distinct", secrets[i].name, secrets[j].name)
			}
		}
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.MagicLinkTTL <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}
	if c.AccessTTL >= c.RefreshTTL {
		return errors.New("config: access TTL must be shorter than refresh TTL")
	}
	return nil
}

// Environment variable names read by ConfigFromEnv.
const (
	EnvAccessSecret    = "AUTHCORE_ACCESS_SECRET"
	EnvRefreshSecret   = "AUTHCORE_REFRESH_SECRET"
	EnvMagicLinkSecret = "AUTHCORE_MAGIC_LINK_SECRET"
	EnvAccessTTL       = "AUTHCORE_ACCESS_TTL"
	EnvRefreshTTL      = "AUTHCORE_REFRESH_TTL"
	EnvMagicLinkTTL    = "AUTHCORE_MAGIC_LINK_TTL"
	EnvRedisPrefix     = "AUTHCORE_REDIS_PREFIX"
)

// ConfigFromEnv builds a Config from process environment variables,
// optionally loading dotenv files first. It exists so a composition root
// can construct the one explicit Config at startup; validation still
// happens in Build.
func ConfigFromEnv(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) > 0 {
		if err := godotenv.Load(dotenvFiles...); err != nil {
			return Config{}, fmt.Errorf("config: load dotenv: %w", err)
		}
	}

	cfg := DefaultConfig()
	cfg.AccessSecret = []byte(os.Getenv(EnvAccessSecret))
	cfg.RefreshSecret = []byte(os.Getenv(EnvRefreshSecret))
	cfg.MagicLinkSecret = []byte(os.Getenv(EnvMagicLinkSecret))

	for _, ttl := range []struct {
		env string
		dst *time.Duration
	}{
		{EnvAccessTTL, &cfg.AccessTTL},
		{EnvRefreshTTL, &cfg.RefreshTTL},
		{EnvMagicLinkTTL, &cfg.MagicLinkTTL},
	} {
		raw := os.Getenv(ttl.env)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", ttl.env, err)
		}
		*ttl.dst = d
	}

	if prefix := os.Getenv(EnvRedisPrefix); prefix != "" {
		cfg.RedisPrefix = prefix
	}

	return cfg, nil
}
