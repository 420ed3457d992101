package authkit

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an unknown email and
	// for a wrong password alike, so callers cannot probe for account
	// existence.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotVerified is returned by Login only after the password
	// has matched, so verification state leaks to nobody without the
	// password.
	ErrEmailNotVerified = errors.New("Email not verified")
	// ErrEmailTaken is returned by Register when the canonical email is
	// already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned by operations addressed to an unknown
	// user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrRefreshInvalid covers every refresh failure: expired, revoked,
	// wrong kind, or tampered.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrResetTokenInvalid covers every password-reset token failure.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	// ErrVerificationTokenInvalid covers every email-verification token
	// failure.
	ErrVerificationTokenInvalid = errors.New("invalid or expired verification token")
	// ErrCurrentPasswordIncorrect is returned by ChangePassword when the
	// presented current password does not match the stored digest.
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	// ErrPasswordReuse is returned by ChangePassword when the new
	// password equals the current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrUnauthorized is the request-authenticator's only failure signal.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEngineNotReady indicates use of an Engine that was not built
	// through Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)
