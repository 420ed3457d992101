package authkit

import (
	"errors"
	"strings"
	"time"

	"github.com/sparkmatch/authkit/password"
)

// Config is the engine's full configuration surface. It is consumed at
// Build time; the engine never reconfigures at runtime.
type Config struct {
	Token    TokenSettings
	Password password.Policy
	Hash     password.HashConfig
	Email    EmailConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenSettings configures the signed-token subsystem. Password-reset
// and email-verification lifetimes are fixed by the token package and
// deliberately absent here. Clock overrides the time source for
// deterministic tests; nil means time.Now.
type TokenSettings struct {
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Secret             []byte
	Clock              func() time.Time
}

/*
====================================
EMAIL CONFIG
====================================
*/

// EmailTemplate is a subject/body triple with a {{token}} placeholder
// substituted at send time.
type EmailTemplate struct {
	Subject string
	Text    string
	HTML    string
}

// Render substitutes the token into every template field and addresses
// the message.
func (t EmailTemplate) Render(to, tok string) EmailMessage {
	return EmailMessage{
		To:      to,
		Subject: strings.ReplaceAll(t.Subject, "{{token}}", tok),
		Text:    strings.ReplaceAll(t.Text, "{{token}}", tok),
		HTML:    strings.ReplaceAll(t.HTML, "{{token}}", tok),
	}
}

// EmailConfig carries the outbound message templates.
type EmailConfig struct {
	VerificationTemplate EmailTemplate
	ResetTemplate        EmailTemplate
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process metrics system. Latency
// histograms are opt-in on top of counters.
type MetricsConfig struct {
	Enabled                bool
	EnableLatencyHistogram bool
}

/*
====================================
DEFAULTS / VALIDATION
====================================
*/

// DefaultConfig returns the stock configuration: 15 minute access
// tokens, 7 day refresh tokens, the default password policy and hash
// costs, stock email templates, and metrics enabled. The signing secret
// is deliberately absent and must be supplied by the caller.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenSettings{
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
		},
		Password: password.DefaultPolicy(),
		Hash:     password.DefaultHashConfig(),
		Email: EmailConfig{
			VerificationTemplate: EmailTemplate{
				Subject: "Verify your email address",
				Text:    "Use this token to verify your email address: {{token}}",
				HTML:    "<p>Use this token to verify your email address: <strong>{{token}}</strong></p>",
			},
			ResetTemplate: EmailTemplate{
				Subject: "Reset your password",
				Text:    "Use this token to reset your password: {{token}}. It expires in one hour.",
				HTML:    "<p>Use this token to reset your password: <strong>{{token}}</strong>. It expires in one hour.</p>",
			},
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate rejects configurations the engine cannot run safely with.
func (c Config) Validate() error {
	if c.Token.AccessTokenExpiry <= 0 {
		return errors.New("access token expiry must be positive")
	}
	if c.Token.RefreshTokenExpiry <= 0 {
		return errors.New("refresh token expiry must be positive")
	}
	if c.Token.RefreshTokenExpiry < c.Token.AccessTokenExpiry {
		return errors.New("refresh token expiry must not be shorter than access token expiry")
	}
	if len(c.Token.Secret) == 0 {
		return errors.New("token signing secret required")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
