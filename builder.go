package authcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arlogy/authcore/magiclink"
	"github.com/arlogy/authcore/session"
	"github.com/arlogy/authcore/token"
)

// Builder assembles an Authority. The composition root owns the resulting
// instance; nothing in this package keeps process-wide state.
type Builder struct {
	config   Config
	redis    redis.UniversalClient
	provider CredentialProvider
	logger   *zap.Logger
	now      func() time.Time
}

// New starts a Builder with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithCredentialProvider(provider CredentialProvider) *Builder {
	b.provider = provider
	return b
}

// WithLogger sets the structured logger. Without one the Authority logs
// nowhere (zap.NewNop), it never falls back to a global logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source for token issuance and expiry
// validation. Intended for tests exercising lifetime boundaries.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the Authority. Missing or
// reused secrets, a missing Redis client, or a missing credential provider
// fail here, at process start, rather than on first use.
func (b *Builder) Build() (*Authority, error) {
	cfg := b.config
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("authcore: redis client is required")
	}
	if b.provider == nil {
		return nil, errors.New("authcore: credential provider is required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	magic, err := magiclink.NewCodec(cfg.MagicLinkSecret, cfg.MagicLinkTTL)
	if err != nil {
		return nil, err
	}

	return &Authority{
		config:   cfg,
		tokens:   codec,
		cache:    session.NewCache(b.redis, cfg.RedisPrefix),
		magic:    magic,
		provider: b.provider,
		metrics:  NewMetrics(),
		log:      logger,
		now:      now,
	}, nil
}
