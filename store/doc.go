// Package store defines the credential persistence contract the authkit
// engine depends on, plus two reference adapters: a volatile in-memory
// implementation for tests and ephemeral deployments, and a Redis-backed
// implementation for remote persistence.
//
// The engine only ever sees the [Store] interface. Lookups translate
// absence to a nil user rather than an error, because a missing record
// is an expected outcome for lookups; mutations on unknown ids return
// [ErrUserNotFound].
package store
