package authkit

import (
	"errors"

	"github.com/sparkmatch/authkit/password"
	"github.com/sparkmatch/authkit/store"
	"github.com/sparkmatch/authkit/token"
)

// Builder assembles an immutable Engine. A Builder is single-use: Build
// fails on a second call.
type Builder struct {
	config Config
	store  store.Store
	sender EmailSender

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the entire configuration. Zero-value fields are
// not backfilled with defaults; start from the default Config when only
// overriding parts.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the token signing secret, keeping the rest of the
// configuration untouched.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Token.Secret = cloneBytes(secret)
	return b
}

// WithStore injects the credential store adapter. Any conforming
// implementation is pluggable without changing engine behavior.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithEmailSender injects the outbound email capability used by
// registration, password reset, and verification resend.
func (b *Builder) WithEmailSender(sender EmailSender) *Builder {
	b.sender = sender
	return b
}

// WithMetricsEnabled toggles the in-process metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistogram toggles the authenticate latency histogram.
func (b *Builder) WithLatencyHistogram(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistogram = enabled
	return b
}

// Build validates the configuration and wires the engine. The returned
// Engine is immutable and safe for concurrent use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}
	if b.sender == nil {
		return nil, errors.New("email sender required")
	}

	hasher, err := password.NewHasher(cfg.Hash)
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		AccessTTL:  cfg.Token.AccessTokenExpiry,
		RefreshTTL: cfg.Token.RefreshTokenExpiry,
		Secret:     cfg.Token.Secret,
		Clock:      cfg.Token.Clock,
	}, b.store)
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Engine{
		config:       cfg,
		store:        b.store,
		tokens:       tokens,
		passwordHash: hasher,
		sendEmail:    b.sender,
		metrics:      NewMetrics(cfg.Metrics),
	}, nil
}
