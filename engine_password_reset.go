package authkit

import (
	"context"
	"errors"

	"github.com/sparkmatch/authkit/store"
	"github.com/sparkmatch/authkit/validate"
)

// resetRequestMessage is the single answer ResetPassword ever gives.
// Varying it by account existence would turn the endpoint into an
// email-enumeration oracle.
const resetRequestMessage = "If an account exists for that email, a password reset link has been sent."

// ResetPassword starts the forgot-password flow. When the email belongs
// to an account, a reset token with a fixed one-hour lifetime is mailed
// to it. The returned message is identical whether or not the account
// exists, and delivery failures are logged rather than surfaced.
func (e *Engine) ResetPassword(ctx context.Context, email string) (string, error) {
	if e == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}
	e.metricInc(MetricPasswordResetRequest)

	if validate.Email(email) != nil {
		return resetRequestMessage, nil
	}

	user, err := e.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return resetRequestMessage, nil
	}

	tok, err := e.tokens.GeneratePasswordResetToken(user.ID)
	if err != nil {
		return "", err
	}
	_ = e.deliver(ctx, e.config.Email.ResetTemplate, user.Email, tok)

	return resetRequestMessage, nil
}

// ResetPasswordConfirm completes the forgot-password flow. The token
// must be a live password-reset token; it is consumed on success, so a
// reset link works exactly once.
func (e *Engine) ResetPasswordConfirm(ctx context.Context, tok, newPassword string) error {
	if e == nil || e.tokens == nil {
		return ErrEngineNotReady
	}

	claims, err := e.tokens.VerifyPasswordResetToken(ctx, tok)
	if err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		return ErrResetTokenInvalid
	}

	if err := e.config.Password.Validate(newPassword); err != nil {
		return err
	}

	digest, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}

	// Consume before persisting: a second submission racing this one
	// must not redeem the same link.
	if err := e.tokens.Invalidate(ctx, tok); err != nil {
		return err
	}

	if _, err := e.store.UpdateUser(ctx, claims.UserID, store.Update{PasswordHash: &digest}); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			e.metricInc(MetricPasswordResetConfirmFailure)
			return ErrResetTokenInvalid
		}
		return err
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)
	return nil
}
