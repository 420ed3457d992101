package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates the purpose a token was issued for. A token of one
// kind is never accepted by a verifier for another kind.
type Kind string

const (
	// KindAccess authorizes requests to protected resources.
	KindAccess Kind = "access"
	// KindRefresh redeems for a fresh access/refresh pair.
	KindRefresh Kind = "refresh"
	// KindPasswordReset authorizes a single password reset.
	KindPasswordReset Kind = "password_reset"
	// KindEmailVerification proves control of an email address.
	KindEmailVerification Kind = "email_verification"
)

// Reset and verification lifetimes are fixed rather than configurable so
// the exposure window of emailed tokens stays bounded consistently.
const (
	PasswordResetTTL     = time.Hour
	EmailVerificationTTL = 24 * time.Hour
)

const minSecretBytes = 32

// ErrTokenInvalid is returned for every verification failure: bad
// signature, expired, wrong kind, or revoked.
var ErrTokenInvalid = errors.New("invalid token")

// RevocationStore is the denylist consulted on every verify path and
// written by Invalidate. Entries are keyed by the token's unique
// identifier; ttl bounds how long the entry must survive, which is the
// token's remaining natural life.
type RevocationStore interface {
	InvalidateToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}

// Config carries the signing secret and the caller-configurable
// expiries. Clock overrides the verification/issuance time source and
// exists for deterministic expiry tests; nil means time.Now.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secret     []byte
	Clock      func() time.Time
}

// Claims is the decoded token payload.
type Claims struct {
	UserID string `json:"uid"`
	Kind   Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Manager issues and verifies signed tokens. It is immutable after
// construction and safe for concurrent use.
type Manager struct {
	config      Config
	revocations RevocationStore
}

// NewManager validates the configuration and returns a ready Manager.
func NewManager(cfg Config, revocations RevocationStore) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if revocations == nil {
		return nil, errors.New("revocation store required")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Manager{config: cfg, revocations: revocations}, nil
}

func (m *Manager) now() time.Time {
	return m.config.Clock()
}

// GenerateAccessToken issues an access token for the given user.
func (m *Manager) GenerateAccessToken(userID string) (string, error) {
	return m.generate(userID, KindAccess, m.config.AccessTTL)
}

// GenerateRefreshToken issues a refresh token for the given user.
func (m *Manager) GenerateRefreshToken(userID string) (string, error) {
	return m.generate(userID, KindRefresh, m.config.RefreshTTL)
}

// GeneratePasswordResetToken issues a password-reset token with the
// fixed one-hour lifetime.
func (m *Manager) GeneratePasswordResetToken(userID string) (string, error) {
	return m.generate(userID, KindPasswordReset, PasswordResetTTL)
}

// GenerateEmailVerificationToken issues an email-verification token with
// the fixed 24-hour lifetime.
func (m *Manager) GenerateEmailVerificationToken(userID string) (string, error) {
	return m.generate(userID, KindEmailVerification, EmailVerificationTTL)
}

// TokenPair bundles the access and refresh tokens issued by a single
// login or refresh, plus the access token's lifetime in whole seconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// GenerateTokenPair issues both tokens for a login or refresh response.
func (m *Manager) GenerateTokenPair(userID string) (*TokenPair, error) {
	access, err := m.GenerateAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := m.GenerateRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.config.AccessTTL / time.Second),
	}, nil
}

func (m *Manager) generate(userID string, kind Kind, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id required")
	}

	now := m.now()
	claims := Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// VerifyAccessToken verifies tokenStr as an access token.
func (m *Manager) VerifyAccessToken(ctx context.Context, tokenStr string) (*Claims, error) {
	return m.verify(ctx, tokenStr, KindAccess)
}

// VerifyRefreshToken verifies tokenStr as a refresh token.
func (m *Manager) VerifyRefreshToken(ctx context.Context, tokenStr string) (*Claims, error) {
	return m.verify(ctx, tokenStr, KindRefresh)
}

// VerifyPasswordResetToken verifies tokenStr as a password-reset token.
func (m *Manager) VerifyPasswordResetToken(ctx context.Context, tokenStr string) (*Claims, error) {
	return m.verify(ctx, tokenStr, KindPasswordReset)
}

// VerifyEmailVerificationToken verifies tokenStr as an email-verification
// token.
func (m *Manager) VerifyEmailVerificationToken(ctx context.Context, tokenStr string) (*Claims, error) {
	return m.verify(ctx, tokenStr, KindEmailVerification)
}

// verify checks signature, expiry, kind, and the revocation set. All
// failures collapse to ErrTokenInvalid so the caller cannot distinguish
// them.
func (m *Manager) verify(ctx context.Context, tokenStr string, kind Kind) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrTokenInvalid
	}

	// Expiry is checked by hand below: only an instant strictly past
	// ExpiresAt counts as expired, whereas the library treats the
	// boundary instant itself as expired.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	if claims.ExpiresAt == nil || m.now().After(claims.ExpiresAt.Time) {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != kind {
		return nil, ErrTokenInvalid
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	revoked, err := m.revocations.IsTokenInvalidated(ctx, claims.ID)
	if err != nil || revoked {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Decode parses the payload without verifying signature or expiry. The
// result proves nothing about authenticity; it exists for diagnostics
// and for revocation bookkeeping.
func (m *Manager) Decode(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser()
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Invalidate inserts the token's unique identifier into the revocation
// set for the remainder of its natural life. Undecodable or already
// expired input is a no-op: there is nothing left to revoke, and the
// operation stays idempotent.
func (m *Manager) Invalidate(ctx context.Context, tokenStr string) error {
	claims, err := m.Decode(tokenStr)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(m.now())
	if ttl <= 0 {
		return nil
	}

	return m.revocations.InvalidateToken(ctx, claims.ID, ttl)
}

// IsInvalidated reports whether the token appears in the revocation set.
func (m *Manager) IsInvalidated(ctx context.Context, tokenStr string) (bool, error) {
	claims, err := m.Decode(tokenStr)
	if err != nil || claims.ID == "" {
		return false, nil
	}
	return m.revocations.IsTokenInvalidated(ctx, claims.ID)
}
