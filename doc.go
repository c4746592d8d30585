// Package authcore is an embeddable authentication and session authority.
//
// It turns a verified credential (a password, or possession of a magic
// link) into time-bounded, revocable session tokens, validates those
// tokens on subsequent requests, and rotates them before expiry without
// requiring re-authentication.
//
// The [Authority] orchestrates four narrow collaborators: an argon2id
// credential verifier (package password), a signed token codec with
// distinct access and refresh secrets (package token), a Redis-backed
// session cache that makes pre-expiry revocation possible (package
// session), and a stateless HMAC magic-link codec (package magiclink).
//
// Account storage, email delivery, HTTP routing, and payload validation
// are deliberately outside this module; accounts are consumed through the
// [CredentialProvider] port only.
package authcore
