package authcore

import (
	"context"
	"errors"
)

// TokenPair is the result of a successful login or session creation. Both
// strings are opaque to callers.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Credential is the read-only slice of an account record this module
// consumes: a stable subject id and the stored password hash in PHC format.
type Credential struct {
	ID           int64
	PasswordHash string
}

// ErrCredentialNotFound is what a CredentialProvider returns when no record
// exists for an identifier. The Authority collapses it with a password
// mismatch before anything reaches a caller.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialProvider is the port to the external account store. At most one
// live record exists per identifier.
//
// Implementations should return ErrCredentialNotFound for an unknown
// identifier and reserve other errors for store faults.
type CredentialProvider interface {
	FindByIdentifier(ctx context.Context, identifier string) (*Credential, error)
}
