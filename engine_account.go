package authkit

import (
	"context"
	"errors"

	"github.com/sparkmatch/authkit/store"
	"github.com/sparkmatch/authkit/validate"
)

const (
	registerVerifyMessage   = "Registration successful. Please check your email to verify your account."
	registerVerifiedMessage = "Registration successful."
)

// Register creates a new account. The email must be well-formed and not
// already registered; the password must satisfy the configured policy.
// Unless AutoVerify is set, the account starts unverified and a
// verification email is sent — a failed send is logged but does not
// undo the registration.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if e == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	if err := validate.Email(req.Email); err != nil {
		return nil, err
	}
	if err := e.config.Password.Validate(req.Password); err != nil {
		return nil, err
	}

	digest, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := e.store.CreateUser(ctx, store.User{
		Email:         store.CanonicalEmail(req.Email),
		PasswordHash:  digest,
		Profile:       req.Profile,
		EmailVerified: req.AutoVerify,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			e.metricInc(MetricRegisterDuplicate)
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	e.metricInc(MetricRegisterSuccess)

	if req.AutoVerify {
		pair, err := e.tokens.GenerateTokenPair(user.ID)
		if err != nil {
			return nil, err
		}
		return &RegisterResult{
			User:    sanitizeUser(user),
			Tokens:  pair,
			Message: registerVerifiedMessage,
		}, nil
	}

	tok, err := e.tokens.GenerateEmailVerificationToken(user.ID)
	if err != nil {
		return nil, err
	}
	if e.deliver(ctx, e.config.Email.VerificationTemplate, user.Email, tok) == nil {
		e.metricInc(MetricVerificationEmailSent)
	}

	return &RegisterResult{
		User:    sanitizeUser(user),
		Message: registerVerifyMessage,
	}, nil
}

// ChangePassword swaps a user's password after re-checking the current
// one. Reusing the current password is rejected so a compromised
// credential can't be "changed" to itself.
func (e *Engine) ChangePassword(ctx context.Context, userID, current, next string) error {
	if e == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}

	user, err := e.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !e.passwordHash.Verify(current, user.PasswordHash) {
		e.metricInc(MetricPasswordChangeInvalidOld)
		return ErrCurrentPasswordIncorrect
	}
	if next == current {
		e.metricInc(MetricPasswordChangeReuseRejected)
		return ErrPasswordReuse
	}
	if err := e.config.Password.Validate(next); err != nil {
		return err
	}

	digest, err := e.passwordHash.Hash(next)
	if err != nil {
		return err
	}
	if _, err := e.store.UpdateUser(ctx, userID, store.Update{PasswordHash: &digest}); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	return nil
}

// GetProfile returns the sanitized record for userID.
func (e *Engine) GetProfile(ctx context.Context, userID string) (*User, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return sanitizeUser(user), nil
}

// UpdateProfile shallow-merges the given entries into the user's
// profile and returns the updated sanitized record. Keys absent from
// the input are left untouched.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, profile map[string]any) (*User, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	updated, err := e.store.UpdateUser(ctx, userID, store.Update{Profile: profile})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	e.metricInc(MetricProfileUpdate)
	return sanitizeUser(updated), nil
}
