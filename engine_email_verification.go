package authkit

import (
	"context"
	"errors"

	"github.com/sparkmatch/authkit/store"
	"github.com/sparkmatch/authkit/validate"
)

// resendVerificationMessage mirrors the reset-flow wording: the answer
// never reveals whether the address has an account or whether it is
// already verified.
const resendVerificationMessage = "If an account exists for that email, a verification link has been sent."

// VerifyEmail redeems an email-verification token, marks the account
// verified, and logs the user straight in with a fresh token pair. The
// token is consumed, so a verification link works exactly once.
func (e *Engine) VerifyEmail(ctx context.Context, tok string) (*LoginResult, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.VerifyEmailVerificationToken(ctx, tok)
	if err != nil {
		e.metricInc(MetricEmailVerificationFailure)
		return nil, ErrVerificationTokenInvalid
	}

	verified := true
	user, err := e.store.UpdateUser(ctx, claims.UserID, store.Update{EmailVerified: &verified})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			e.metricInc(MetricEmailVerificationFailure)
			return nil, ErrVerificationTokenInvalid
		}
		return nil, err
	}

	if err := e.tokens.Invalidate(ctx, tok); err != nil {
		return nil, err
	}

	pair, err := e.tokens.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricEmailVerificationSuccess)
	return &LoginResult{User: sanitizeUser(user), Tokens: pair}, nil
}

// ResendVerificationEmail issues a fresh verification token for an
// unverified account and mails it. For unknown or already-verified
// addresses it silently does nothing; the message is the same in every
// case.
func (e *Engine) ResendVerificationEmail(ctx context.Context, email string) (string, error) {
	if e == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}

	if validate.Email(email) != nil {
		return resendVerificationMessage, nil
	}

	user, err := e.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil || user.EmailVerified {
		return resendVerificationMessage, nil
	}

	tok, err := e.tokens.GenerateEmailVerificationToken(user.ID)
	if err != nil {
		return "", err
	}
	if e.deliver(ctx, e.config.Email.VerificationTemplate, user.Email, tok) == nil {
		e.metricInc(MetricVerificationEmailSent)
	}

	return resendVerificationMessage, nil
}
