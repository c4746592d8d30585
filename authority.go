package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arlogy/authcore/magiclink"
	"github.com/arlogy/authcore/password"
	"github.com/arlogy/authcore/session"
	"github.com/arlogy/authcore/token"
)

// Authority orchestrates credential verification, token minting, cache
// registration, and revocation. Construct one with [New] and [Builder.Build]
// and share it freely; every method is safe for concurrent use, and no
// in-process locking serializes operations on the same token. Redis
// per-key atomicity is the only ordering guarantee.
//
// Domain failures surface as the package sentinels or as boolean false;
// upstream faults (credential store, Redis) are logged with their cause and
// collapsed into the same generic failures. Nothing is retried here.
type Authority struct {
	config   Config
	tokens   *token.Codec
	cache    *session.Cache
	magic    *magiclink.Codec
	provider CredentialProvider
	metrics  *Metrics
	log      *zap.Logger
	now      func() time.Time
}

// MetricsSnapshot exposes the in-process counters for export.
func (a *Authority) MetricsSnapshot() MetricsSnapshot {
	if a == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return a.metrics.Snapshot()
}

// Login verifies a password against the stored hash and creates a session.
// An unknown identifier and a wrong password return the identical
// ErrInvalidCredentials: callers cannot enumerate identifiers through this
// method, and neither can anyone reading its logs at Warn or above.
func (a *Authority) Login(ctx context.Context, identifier, secret string) (*TokenPair, error) {
	if a == nil || a.provider == nil {
		return nil, ErrAuthorityNotReady
	}
	if identifier == "" || secret == "" {
		a.metrics.Inc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	cred, err := a.provider.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			a.metrics.Inc(MetricLoginFailure)
			a.log.Debug("login rejected", zap.String("reason", "unknown_identifier"))
			return nil, ErrInvalidCredentials
		}
		a.metrics.Inc(MetricUpstreamFault)
		a.metrics.Inc(MetricLoginFailure)
		a.log.Error("credential store unavailable", zap.Error(err))
		return nil, ErrInvalidCredentials
	}

	ok, err := password.Verify(secret, cred.PasswordHash)
	if err != nil {
		// A hash that fails to parse is a data fault, not a caller mistake,
		// but the caller still sees the merged failure.
		a.metrics.Inc(MetricUpstreamFault)
		a.metrics.Inc(MetricLoginFailure)
		a.log.Error("stored credential hash unreadable", zap.Int64("subject", cred.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		a.metrics.Inc(MetricLoginFailure)
		a.log.Debug("login rejected", zap.String("reason", "password_mismatch"))
		return nil, ErrInvalidCredentials
	}

	pair, err := a.CreateSession(ctx, cred.ID)
	if err != nil {
		// Credentials were fine but the session never materialized; the
		// login as a whole still failed and is accounted as such.
		a.metrics.Inc(MetricLoginFailure)
		return nil, err
	}
	a.metrics.Inc(MetricLoginSuccess)
	return pair, nil
}

// CreateSession mints one access and one refresh token for subjectID and
// registers both in the session cache. This is the only path that produces
// a refresh token. The access entry carries no cache TTL (the token's own
// signed expiry bounds it); the refresh entry self-expires alongside its
// signature.
func (a *Authority) CreateSession(ctx context.Context, subjectID int64) (*TokenPair, error) {
	if a == nil || a.tokens == nil {
		return nil, ErrAuthorityNotReady
	}

	access, err := a.tokens.Issue(token.KindAccess, subjectID)
	if err != nil {
		a.log.Error("access token issuance failed", zap.Int64("subject", subjectID), zap.Error(err))
		return nil, ErrSessionCreationFailed
	}
	refresh, err := a.tokens.Issue(token.KindRefresh, subjectID)
	if err != nil {
		a.log.Error("refresh token issuance failed", zap.Int64("subject", subjectID), zap.Error(err))
		return nil, ErrSessionCreationFailed
	}

	entry := session.Entry{SubjectID: subjectID}
	if err := a.cache.Put(ctx, access, entry, 0); err != nil {
		a.metrics.Inc(MetricUpstreamFault)
		a.log.Error("access entry registration failed", zap.Int64("subject", subjectID), zap.Error(err))
		return nil, ErrSessionCreationFailed
	}
	if err := a.cache.Put(ctx, refresh, entry, a.config.RefreshTTL); err != nil {
		a.metrics.Inc(MetricUpstreamFault)
		a.log.Error("refresh entry registration failed", zap.Int64("subject", subjectID), zap.Error(err))
		// Best effort: do not leave a live access entry behind a failed pair.
		if _, delErr := a.cache.Delete(ctx, access); delErr != nil {
			a.log.Warn("orphaned access entry cleanup failed", zap.Error(delErr))
		}
		return nil, ErrSessionCreationFailed
	}

	a.metrics.Inc(MetricSessionCreated)
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifySession reports whether an access token is currently active:
// structurally valid under the access secret AND still present in the
// session cache. It deliberately does not return the subject identity;
// callers needing it decode the token separately.
func (a *Authority) VerifySession(ctx context.Context, accessToken string) bool {
	if a == nil || a.tokens == nil {
		return false
	}

	if _, err := a.tokens.Parse(accessToken, token.KindAccess); err != nil {
		a.metrics.Inc(MetricSessionRejected)
		a.log.Debug("access token rejected", zap.Error(err))
		return false
	}

	if _, err := a.cache.Get(ctx, accessToken); err != nil {
		a.metrics.Inc(MetricSessionRejected)
		if errors.Is(err, session.ErrEntryNotFound) {
			a.log.Debug("access token revoked or never registered")
		} else {
			a.metrics.Inc(MetricUpstreamFault)
			a.log.Error("session cache unavailable during verification", zap.Error(err))
		}
		return false
	}

	a.metrics.Inc(MetricSessionVerified)
	return true
}

// DeleteSession revokes an access token before its natural expiry by
// removing its cache entry. It returns true only when an entry was actually
// removed; deleting an absent entry is a reported failure, not a no-op
// success.
func (a *Authority) DeleteSession(ctx context.Context, accessToken string) bool {
	if a == nil || a.cache == nil {
		return false
	}

	removed, err := a.cache.Delete(ctx, accessToken)
	if err != nil {
		a.metrics.Inc(MetricUpstreamFault)
		a.log.Error("session cache unavailable during logout", zap.Error(err))
		return false
	}
	if !removed {
		a.log.Debug("logout for token with no live entry")
		return false
	}

	a.metrics.Inc(MetricSessionDeleted)
	return true
}

// RefreshSession exchanges a live refresh token for exactly one new,
// cache-registered access token. The refresh entry is deleted first, so a
// refresh token rotates at most once: when two calls race, Redis DEL picks
// the single winner and the loser fails. No new refresh token is minted;
// that asymmetry stops refresh lifetime from being extended indefinitely.
func (a *Authority) RefreshSession(ctx context.Context, refreshToken string) (string, error) {
	if a == nil || a.tokens == nil {
		return "", ErrAuthorityNotReady
	}

	if _, err := a.tokens.Parse(refreshToken, token.KindRefresh); err != nil {
		a.metrics.Inc(MetricRefreshFailure)
		a.log.Debug("refresh token rejected", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrRefreshInvalid, ErrTokenInvalid)
	}

	entry, err := a.cache.Get(ctx, refreshToken)
	if err != nil {
		a.metrics.Inc(MetricRefreshFailure)
		if errors.Is(err, session.ErrEntryNotFound) {
			a.metrics.Inc(MetricRefreshReuse)
			a.log.Warn("refresh token absent from cache, possible reuse after rotation")
			return "", fmt.Errorf("%w: %w", ErrRefreshInvalid, ErrSessionNotFound)
		}
		a.metrics.Inc(MetricUpstreamFault)
		a.log.Error("session cache unavailable during refresh", zap.Error(err))
		return "", ErrRefreshInvalid
	}

	removed, err := a.cache.Delete(ctx, refreshToken)
	if err != nil {
		a.metrics.Inc(MetricRefreshFailure)
		a.metrics.Inc(MetricUpstreamFault)
		a.log.Error("refresh entry invalidation failed", zap.Error(err))
		return "", ErrRefreshInvalid
	}
	if !removed {
		// A concurrent refresh rotated this token between Get and Delete.
		a.metrics.Inc(MetricRefreshFailure)
		a.metrics.Inc(MetricRefreshReuse)
		a.log.Warn("refresh token lost rotation race", zap.Int64("subject", entry.SubjectID))
		return "", fmt.Errorf("%w: %w", ErrRefreshInvalid, ErrSessionNotFound)
	}

	access, err := a.tokens.Issue(token.KindAccess, entry.SubjectID)
	if err != nil {
		a.metrics.Inc(MetricRefreshFailure)
		a.log.Error("access token issuance failed during refresh", zap.Int64("subject", entry.SubjectID), zap.Error(err))
		return "", ErrSessionCreationFailed
	}
	if err := a.cache.Put(ctx, access, session.Entry{SubjectID: entry.SubjectID}, 0); err != nil {
		a.metrics.Inc(MetricRefreshFailure)
		a.metrics.Inc(MetricUpstreamFault)
		a.log.Error("access entry registration failed during refresh", zap.Int64("subject", entry.SubjectID), zap.Error(err))
		return "", ErrSessionCreationFailed
	}

	a.metrics.Inc(MetricRefreshSuccess)
	return access, nil
}

// IssueMagicLink creates a stateless, time-boxed capability token for the
// email address. Nothing is stored server-side until redemption.
func (a *Authority) IssueMagicLink(email string) (string, error) {
	if a == nil || a.magic == nil {
		return "", ErrAuthorityNotReady
	}

	tok, err := a.magic.Issue(email, a.now())
	if err != nil {
		a.metrics.Inc(MetricMagicLinkRejected)
		a.log.Debug("magic link issuance rejected", zap.Error(err))
		return "", ErrMagicLinkInvalid
	}
	a.metrics.Inc(MetricMagicLinkIssued)
	return tok, nil
}

// RedeemMagicLink validates a magic-link token and returns the embedded
// email address. Redemption does not issue tokens: the caller resolves the
// subject for the email and then calls CreateSession, exactly as a password
// login would.
func (a *Authority) RedeemMagicLink(magicToken string) (string, error) {
	if a == nil || a.magic == nil {
		return "", ErrAuthorityNotReady
	}

	email, err := a.magic.Redeem(magicToken, a.now())
	if err != nil {
		a.metrics.Inc(MetricMagicLinkRejected)
		a.log.Debug("magic link rejected", zap.Error(err))
		return "", ErrMagicLinkInvalid
	}
	a.metrics.Inc(MetricMagicLinkRedeemed)
	return email, nil
}
