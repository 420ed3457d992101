package internaldefs

import (
	authkit "github.com/sparkmatch/authkit"
)

// CounterDef maps an engine counter to its exported name and help text.
type CounterDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine histogram to its exported name and help
// text.
type HistogramDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// CounterDefs is the canonical counter list shared by every exporter.
var CounterDefs = []CounterDef{
	{ID: authkit.MetricRegisterSuccess, Name: "authkit_register_success_total", Help: "Successful registrations."},
	{ID: authkit.MetricRegisterDuplicate, Name: "authkit_register_duplicate_total", Help: "Registrations rejected as duplicate email."},
	{ID: authkit.MetricLoginSuccess, Name: "authkit_login_success_total", Help: "Successful login attempts."},
	{ID: authkit.MetricLoginFailure, Name: "authkit_login_failure_total", Help: "Failed login attempts."},
	{ID: authkit.MetricLoginUnverified, Name: "authkit_login_unverified_total", Help: "Logins rejected for unverified email."},
	{ID: authkit.MetricRefreshSuccess, Name: "authkit_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authkit.MetricRefreshFailure, Name: "authkit_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: authkit.MetricLogout, Name: "authkit_logout_total", Help: "Logout operations."},
	{ID: authkit.MetricTokenRevoked, Name: "authkit_token_revoked_total", Help: "Tokens added to the revocation denylist."},
	{ID: authkit.MetricPasswordResetRequest, Name: "authkit_password_reset_request_total", Help: "Password reset requests."},
	{ID: authkit.MetricPasswordResetConfirmSuccess, Name: "authkit_password_reset_confirm_success_total", Help: "Successful password reset confirmations."},
	{ID: authkit.MetricPasswordResetConfirmFailure, Name: "authkit_password_reset_confirm_failure_total", Help: "Failed password reset confirmations."},
	{ID: authkit.MetricVerificationEmailSent, Name: "authkit_verification_email_sent_total", Help: "Verification messages handed to the sender."},
	{ID: authkit.MetricEmailVerificationSuccess, Name: "authkit_email_verification_success_total", Help: "Successful email verifications."},
	{ID: authkit.MetricEmailVerificationFailure, Name: "authkit_email_verification_failure_total", Help: "Failed email verifications."},
	{ID: authkit.MetricPasswordChangeSuccess, Name: "authkit_password_change_success_total", Help: "Successful password changes."},
	{ID: authkit.MetricPasswordChangeInvalidOld, Name: "authkit_password_change_invalid_old_total", Help: "Password change attempts with invalid current password."},
	{ID: authkit.MetricPasswordChangeReuseRejected, Name: "authkit_password_change_reuse_rejected_total", Help: "Password change attempts rejected for reuse."},
	{ID: authkit.MetricProfileUpdate, Name: "authkit_profile_update_total", Help: "Profile merge-update operations."},
}

// HistogramDefs is the canonical histogram list shared by every
// exporter.
var HistogramDefs = []HistogramDef{
	{ID: authkit.MetricAuthenticateLatency, Name: "authkit_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds are the upper bounds of each bucket, in seconds,
// rendered for Prometheus le labels. They mirror the engine's bucket
// layout; the last bucket is unbounded.
var HistogramBounds = []string{
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.0025",
	"0.005",
	"0.01",
	"+Inf",
}

// HistogramBoundSuffix carries the same bounds as instrument-name-safe
// suffixes for backends that reject label syntax.
var HistogramBoundSuffix = []string{
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_0025",
	"0_005",
	"0_01",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket layout.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative counts
// the Prometheus exposition format expects.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
