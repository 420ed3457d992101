package authkit

import (
	"context"
	"log"
	"time"

	"github.com/sparkmatch/authkit/store"
	"github.com/sparkmatch/authkit/token"
	"github.com/sparkmatch/authkit/validate"
)

// Engine is the credential and token lifecycle orchestrator. It holds no
// per-user state between calls: everything durable lives behind the
// store, and session state lives in the tokens themselves.
//
// Engine instances are configured once through [Builder.Build] and then
// treated as immutable.
type Engine struct {
	config       Config
	store        store.Store
	tokens       *token.Manager
	passwordHash passwordHasher
	sendEmail    EmailSender
	metrics      *Metrics
}

// passwordHasher is the slice of password.Hasher the engine needs;
// narrowed to an interface so flow tests can stub the expensive hash.
type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	NeedsUpgrade(digest string) (bool, error)
}

// MetricsSnapshot returns a point-in-time copy of the engine's metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login authenticates an email/password pair. Unknown email and wrong
// password fail with the same [ErrInvalidCredentials]; an unverified
// email is reported only after the password has matched. On success the
// user's last-login timestamp is refreshed and a fresh access/refresh
// pair is issued.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	if e == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}
	if plaintext == "" || validate.Email(email) != nil {
		// A malformed address cannot belong to an account; answer
		// exactly as for an unknown one.
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	user, err := e.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	if !e.passwordHash.Verify(plaintext, user.PasswordHash) {
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		e.metricInc(MetricLoginUnverified)
		return nil, ErrEmailNotVerified
	}

	e.maybeRehash(ctx, user, plaintext)
	plaintext = ""

	now := time.Now()
	updated, err := e.store.UpdateUser(ctx, user.ID, store.Update{LastLoginAt: &now})
	if err != nil {
		// Last-login is bookkeeping; a failed stamp must not block an
		// otherwise valid login.
		log.Print("authkit: last-login update failed")
		updated = user
	}

	pair, err := e.tokens.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	return &LoginResult{User: sanitizeUser(updated), Tokens: pair}, nil
}

// maybeRehash upgrades the stored digest after a successful verify when
// the configured cost parameters outgrow the ones it was produced with.
// Best-effort: the login proceeds either way.
func (e *Engine) maybeRehash(ctx context.Context, user *store.User, plaintext string) {
	needsUpgrade, err := e.passwordHash.NeedsUpgrade(user.PasswordHash)
	if err != nil || !needsUpgrade {
		return
	}

	upgraded, err := e.passwordHash.Hash(plaintext)
	if err != nil {
		log.Print("authkit: password hash upgrade generation failed")
		return
	}
	if _, err := e.store.UpdateUser(ctx, user.ID, store.Update{PasswordHash: &upgraded}); err != nil {
		log.Print("authkit: password hash upgrade update failed")
	}
}

// Refresh rotates a refresh token: the presented token is verified,
// revoked, and replaced by a brand-new access/refresh pair. A rotated-
// out token replayed later fails exactly like a forged one.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	// Revoke before issuing: if the denylist write fails, the old token
	// must not stay redeemable alongside a new pair.
	if err := e.tokens.Invalidate(ctx, refreshToken); err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}
	e.metricInc(MetricTokenRevoked)

	pair, err := e.tokens.GenerateTokenPair(claims.UserID)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	return pair, nil
}

// Logout unconditionally revokes the given refresh token. It is
// idempotent: revoking an expired, undecodable, or already-revoked
// token succeeds.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil || e.tokens == nil {
		return ErrEngineNotReady
	}

	if err := e.tokens.Invalidate(ctx, refreshToken); err != nil {
		return err
	}
	e.metricInc(MetricLogout)
	e.metricInc(MetricTokenRevoked)
	return nil
}

// ValidateToken verifies an access token and returns its decoded payload,
// or nil on any failure. It never reports which check failed.
func (e *Engine) ValidateToken(ctx context.Context, accessToken string) *token.Claims {
	if e == nil || e.tokens == nil {
		return nil
	}
	claims, err := e.tokens.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return nil
	}
	return claims
}

// Authenticate resolves a bearer access token to the principal it was
// issued for. Every failure — missing token, failed verification, or a
// user deleted since issuance — is [ErrUnauthorized].
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}()
	}

	claims := e.ValidateToken(ctx, accessToken)
	if claims == nil {
		return nil, ErrUnauthorized
	}

	user, err := e.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	return &Principal{
		UserID:        user.ID,
		Email:         user.Email,
		Profile:       user.Profile,
		EmailVerified: user.EmailVerified,
	}, nil
}

// deliver renders the template and hands the message to the injected
// sender. Delivery failure is logged and reported to the caller, who
// decides whether it may surface.
func (e *Engine) deliver(ctx context.Context, tmpl EmailTemplate, to, tok string) error {
	if err := e.sendEmail(ctx, tmpl.Render(to, tok)); err != nil {
		log.Print("authkit: email delivery failed")
		return err
	}
	return nil
}

// sanitizeUser strips the password digest before a record leaves the
// engine.
func sanitizeUser(u *store.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:            u.ID,
		Email:         u.Email,
		Profile:       u.Profile,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}
