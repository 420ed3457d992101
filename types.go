package authkit

import (
	"context"
	"time"

	"github.com/sparkmatch/authkit/token"
)

// User is the sanitized account view returned by Engine methods. It is
// the persisted record minus the password digest, which never crosses
// the engine boundary.
type User struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	Profile       map[string]any `json:"profile"`
	EmailVerified bool           `json:"emailVerified"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	LastLoginAt   *time.Time     `json:"lastLoginAt,omitempty"`
}

// TokenPair re-exports the access/refresh pair issued by a login,
// refresh, or verification.
type TokenPair = token.TokenPair

// RegisterRequest is the input for [Engine.Register]. Profile entries
// are stored as-is under the new user. AutoVerify skips the
// verification email and marks the account verified at creation.
type RegisterRequest struct {
	Email      string
	Password   string
	Profile    map[string]any
	AutoVerify bool
}

// RegisterResult is returned by [Engine.Register]. Tokens is nil when
// the account still needs email verification.
type RegisterResult struct {
	User    *User      `json:"user"`
	Tokens  *TokenPair `json:"tokens,omitempty"`
	Message string     `json:"message"`
}

// LoginResult is returned by [Engine.Login] and [Engine.VerifyEmail].
type LoginResult struct {
	User   *User      `json:"user"`
	Tokens *TokenPair `json:"tokens"`
}

// Principal is the authenticated identity the request authenticator
// attaches to a request context.
type Principal struct {
	UserID        string         `json:"userId"`
	Email         string         `json:"email"`
	Profile       map[string]any `json:"profile"`
	EmailVerified bool           `json:"emailVerified"`
}

// EmailMessage is the payload handed to the injected email capability.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// EmailSender delivers one message. Implementations own their transport
// and retry policy; the engine logs delivery failures and never lets
// them roll back persisted state.
type EmailSender func(ctx context.Context, msg EmailMessage) error
