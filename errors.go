package authcore

import "errors"

var (
	// ErrInvalidCredentials is returned for both an unknown identifier and a
	// wrong password. Callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid covers a bad signature, a wrong token kind, a
	// malformed token, or an embedded expiry in the past. Refresh failures
	// of that shape wrap it alongside ErrRefreshInvalid.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSessionNotFound marks a structurally valid token with no live cache
	// entry (revoked, rotated, or self-expired). Refresh failures of that
	// shape wrap it alongside ErrRefreshInvalid.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshInvalid is the collapsed failure every refresh rejection
	// satisfies; errors.Is against ErrTokenInvalid or ErrSessionNotFound
	// splits the structural check from the cache miss when a caller cares.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrMagicLinkInvalid covers malformed, tampered, and expired magic links.
	ErrMagicLinkInvalid = errors.New("invalid magic link")
	// ErrSessionCreationFailed is returned when minting or registering a
	// session fails for reasons other than the presented credential.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrAuthorityNotReady is returned when an Authority is used before Build
	// wired its dependencies.
	ErrAuthorityNotReady = errors.New("authority not initialized")
)
