// Package authkit provides the credential and token lifecycle engine: a
// storage-agnostic orchestrator for registration, login, token refresh
// with rotation, logout, password reset, email verification, password
// change, and profile access, built on four distinct signed token kinds
// and argon2id password digests.
//
// The package is designed for concurrent server workloads: Engine
// methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Builder],
// [Config], and value types. Persistence is consumed exclusively
// through the [store.Store] interface — the engine never talks to a
// backend directly, so a conforming adapter (in-memory, Redis, or a
// caller's own) plugs in without changing orchestrator behavior.
// Outbound email is a single injected [EmailSender]; how tokens reach
// HTTP handlers is the caller's concern, with [middleware.Guard] as the
// reference mount.
//
// # What this package must NOT do
//
//   - Expose password digests: every user returned by an Engine method
//     is sanitized first.
//   - Reveal through error text whether an email is registered, or
//     which of signature/expiry/kind/revocation failed a token check.
//   - Hold per-session server state: tokens are self-contained, and the
//     only persisted token data is the revocation denylist.
package authkit
