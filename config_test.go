package authkit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sparkmatch/authkit/store"
)

func noopSender(context.Context, EmailMessage) error { return nil }

func TestConfigValidate(t *testing.T) {
	base := defaultConfig()
	base.Token.Secret = []byte(testSecret)

	if err := base.Validate(); err != nil {
		t.Fatalf("default config with secret: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.Token.Secret = nil }},
		{"zero access expiry", func(c *Config) { c.Token.AccessTokenExpiry = 0 }},
		{"zero refresh expiry", func(c *Config) { c.Token.RefreshTokenExpiry = 0 }},
		{"refresh shorter than access", func(c *Config) {
			c.Token.AccessTokenExpiry = time.Hour
			c.Token.RefreshTokenExpiry = time.Minute
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation failure")
			}
		})
	}
}

func TestBuilderRequiresDependencies(t *testing.T) {
	if _, err := New().WithSecret([]byte(testSecret)).WithEmailSender(noopSender).Build(); err == nil {
		t.Fatal("expected missing-store failure")
	}
	if _, err := New().WithSecret([]byte(testSecret)).WithStore(store.NewMemory()).Build(); err == nil {
		t.Fatal("expected missing-sender failure")
	}
	if _, err := New().WithStore(store.NewMemory()).WithEmailSender(noopSender).Build(); err == nil {
		t.Fatal("expected missing-secret failure")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().
		WithSecret([]byte(testSecret)).
		WithStore(store.NewMemory()).
		WithEmailSender(noopSender)

	if _, err := b.Build(); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}

func TestBuilderProducesWorkingEngine(t *testing.T) {
	engine, err := New().
		WithSecret([]byte(testSecret)).
		WithStore(store.NewMemory()).
		WithEmailSender(noopSender).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ctx := context.Background()
	result, err := engine.Register(ctx, RegisterRequest{
		Email:      "alice@example.com",
		Password:   "Sw0rdfish-Pass",
		AutoVerify: true,
	})
	if err != nil {
		t.Fatalf("register through built engine: %v", err)
	}
	if result.Tokens == nil {
		t.Fatal("expected tokens")
	}
}

func TestEmailTemplateRender(t *testing.T) {
	tmpl := EmailTemplate{
		Subject: "Hello",
		Text:    "Token: {{token}}",
		HTML:    "<b>{{token}}</b>",
	}

	msg := tmpl.Render("alice@example.com", "abc123")
	if msg.To != "alice@example.com" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if msg.Text != "Token: abc123" || msg.HTML != "<b>abc123</b>" {
		t.Fatalf("placeholder not substituted: %+v", msg)
	}
	if strings.Contains(msg.Subject+msg.Text+msg.HTML, "{{token}}") {
		t.Fatal("placeholder survived rendering")
	}
}
