package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmailTaken is returned by CreateUser and UpdateUser when the
	// canonical form of the requested email already maps to another user.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned by mutations on unknown user ids.
	// Lookups return nil instead.
	ErrUserNotFound = errors.New("user not found")
)

// User is the persisted account record. PasswordHash never leaves the
// engine boundary; the orchestrator strips it before returning users to
// callers.
type User struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	PasswordHash  string         `json:"passwordHash"`
	Profile       map[string]any `json:"profile"`
	EmailVerified bool           `json:"emailVerified"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	LastLoginAt   *time.Time     `json:"lastLoginAt,omitempty"`
}

// Clone returns a deep copy so adapter-internal records cannot be
// mutated through returned pointers.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Profile != nil {
		out.Profile = make(map[string]any, len(u.Profile))
		for k, v := range u.Profile {
			out.Profile[k] = v
		}
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		out.LastLoginAt = &t
	}
	return &out
}

// Update describes a partial user mutation. Nil pointers leave the field
// untouched; Profile entries shallow-merge into the existing profile.
type Update struct {
	Email         *string
	PasswordHash  *string
	EmailVerified *bool
	LastLoginAt   *time.Time
	Profile       map[string]any
}

// Store is the persistence abstraction between the orchestrator and any
// concrete backend. All adapters must implement identical semantics:
//
//   - CreateUser assigns an id and timestamps when absent, defaults the
//     profile to an empty map, enforces the unique-canonical-email
//     invariant, and upserts on id collision.
//   - Lookups are case-insensitive on email and return (nil, nil) when
//     the record is absent.
//   - UpdateUser refreshes UpdatedAt on every mutation and atomically
//     repoints the email index when the email changes.
//   - DeleteUser returns false, not an error, when the id is unknown.
//   - InvalidateToken / IsTokenInvalidated maintain the token
//     revocation set; ttl bounds how long an entry must survive.
//   - Clear wipes all state and exists for deterministic test setup.
type Store interface {
	CreateUser(ctx context.Context, user User) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, id string, update Update) (*User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)

	InvalidateToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)

	Clear(ctx context.Context) error
}

// CanonicalEmail lower-cases and trims an email for index lookups. The
// original casing is preserved on the stored record for display.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// applyUpdate merges an Update into a copy of u and stamps UpdatedAt.
// Shared by both adapters so merge semantics cannot drift.
func applyUpdate(u *User, update Update, now time.Time) *User {
	out := u.Clone()

	if update.Email != nil {
		out.Email = *update.Email
	}
	if update.PasswordHash != nil {
		out.PasswordHash = *update.PasswordHash
	}
	if update.EmailVerified != nil {
		out.EmailVerified = *update.EmailVerified
	}
	if update.LastLoginAt != nil {
		t := *update.LastLoginAt
		out.LastLoginAt = &t
	}
	if len(update.Profile) > 0 {
		if out.Profile == nil {
			out.Profile = make(map[string]any, len(update.Profile))
		}
		for k, v := range update.Profile {
			out.Profile[k] = v
		}
	}

	out.UpdatedAt = now
	return out
}
