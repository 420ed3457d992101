// Package middleware exposes an HTTP middleware adapter for bearer-token
// authentication built on top of authkit.Engine.
//
// # Guard
//
// [Guard] reads the Authorization header, calls Engine.Authenticate, and
// injects the resolved principal into the request context, retrievable
// via [PrincipalFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Touch the credential store (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject.
package middleware
