// Package token issues and verifies the four signed token kinds used by
// the authkit engine: access, refresh, password_reset, and
// email_verification. Tokens are self-contained HS256 JWTs carrying the
// subject user ID, a kind discriminator, a unique identifier, and
// issue/expiry instants; nothing about them is persisted except a
// denylist entry when one is revoked early.
//
// Verification is deliberately coarse at the boundary: a bad signature,
// an expired token, a kind mismatch, and a revoked token all surface as
// [ErrTokenInvalid], so callers cannot be used as an oracle to
// distinguish the causes.
package token
