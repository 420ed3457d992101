package token

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mapRevocations struct {
	entries map[string]time.Duration
	err     error
}

func newMapRevocations() *mapRevocations {
	return &mapRevocations{entries: map[string]time.Duration{}}
}

func (m *mapRevocations) InvalidateToken(_ context.Context, tokenID string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.entries[tokenID] = ttl
	return nil
}

func (m *mapRevocations) IsTokenInvalidated(_ context.Context, tokenID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.entries[tokenID]
	return ok, nil
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T, clock func() time.Time) (*Manager, *mapRevocations) {
	t.Helper()

	revocations := newMapRevocations()
	m, err := NewManager(Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Secret:     testSecret,
		Clock:      clock,
	}, revocations)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, revocations
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	revocations := newMapRevocations()

	if _, err := NewManager(Config{AccessTTL: time.Minute, RefreshTTL: time.Hour, Secret: []byte("short")}, revocations); err == nil {
		t.Fatal("expected short secret rejection")
	}
	if _, err := NewManager(Config{AccessTTL: 0, RefreshTTL: time.Hour, Secret: testSecret}, revocations); err == nil {
		t.Fatal("expected zero TTL rejection")
	}
	if _, err := NewManager(Config{AccessTTL: time.Minute, RefreshTTL: time.Hour, Secret: testSecret}, nil); err == nil {
		t.Fatal("expected nil revocation store rejection")
	}
}

func TestRoundTripPerKind(t *testing.T) {
	m, _ := newTestManager(t, nil)
	ctx := context.Background()

	cases := []struct {
		kind     Kind
		generate func(string) (string, error)
		verify   func(context.Context, string) (*Claims, error)
	}{
		{KindAccess, m.GenerateAccessToken, m.VerifyAccessToken},
		{KindRefresh, m.GenerateRefreshToken, m.VerifyRefreshToken},
		{KindPasswordReset, m.GeneratePasswordResetToken, m.VerifyPasswordResetToken},
		{KindEmailVerification, m.GenerateEmailVerificationToken, m.VerifyEmailVerificationToken},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			tok, err := tc.generate("user-1")
			if err != nil {
				t.Fatalf("generate: %v", err)
			}

			claims, err := tc.verify(ctx, tok)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if claims.UserID != "user-1" {
				t.Fatalf("user id %q", claims.UserID)
			}
			if claims.Kind != tc.kind {
				t.Fatalf("kind %q, want %q", claims.Kind, tc.kind)
			}
			if claims.ID == "" {
				t.Fatal("expected non-empty token id")
			}
		})
	}
}

func TestVerifyRejectsCrossKind(t *testing.T) {
	m, _ := newTestManager(t, nil)
	ctx := context.Background()

	access, err := m.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	verifiers := map[string]func(context.Context, string) (*Claims, error){
		"refresh":      m.VerifyRefreshToken,
		"reset":        m.VerifyPasswordResetToken,
		"verification": m.VerifyEmailVerificationToken,
	}

	for name, verify := range verifiers {
		if _, err := verify(ctx, access); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("%s verifier accepted access token: %v", name, err)
		}
	}
}

func TestVerifyFailuresCollapseToOneError(t *testing.T) {
	m, _ := newTestManager(t, nil)
	ctx := context.Background()

	other, _ := newTestManager(t, nil)
	other.config.Secret = []byte("another-secret-of-32-bytes-xxxxx")
	forged, err := other.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatalf("generate forged: %v", err)
	}

	for _, tok := range []string{"", "garbage", "a.b.c", forged} {
		if _, err := m.VerifyAccessToken(ctx, tok); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: got %v, want ErrTokenInvalid", tok, err)
		}
	}
}

func TestExpiryBoundary(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	m, _ := newTestManager(t, func() time.Time { return now })
	ctx := context.Background()

	tok, err := m.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// At the exact expiry instant the token is still valid.
	now = issued.Add(15 * time.Minute)
	if _, err := m.VerifyAccessToken(ctx, tok); err != nil {
		t.Fatalf("at boundary: %v", err)
	}

	// One second past, it is not.
	now = issued.Add(15*time.Minute + time.Second)
	if _, err := m.VerifyAccessToken(ctx, tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("past boundary: got %v, want ErrTokenInvalid", err)
	}
}

func TestFixedLifetimesForEmailedTokens(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	m, _ := newTestManager(t, func() time.Time { return now })
	ctx := context.Background()

	reset, err := m.GeneratePasswordResetToken("user-1")
	if err != nil {
		t.Fatalf("generate reset: %v", err)
	}
	verification, err := m.GenerateEmailVerificationToken("user-1")
	if err != nil {
		t.Fatalf("generate verification: %v", err)
	}

	now = issued.Add(PasswordResetTTL + time.Second)
	if _, err := m.VerifyPasswordResetToken(ctx, reset); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("reset after 1h: got %v, want ErrTokenInvalid", err)
	}
	if _, err := m.VerifyEmailVerificationToken(ctx, verification); err != nil {
		t.Fatalf("verification should outlive reset: %v", err)
	}

	now = issued.Add(EmailVerificationTTL + time.Second)
	if _, err := m.VerifyEmailVerificationToken(ctx, verification); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("verification after 24h: got %v, want ErrTokenInvalid", err)
	}
}

func TestInvalidateAndRevocationCheck(t *testing.T) {
	m, revocations := newTestManager(t, nil)
	ctx := context.Background()

	tok, err := m.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	revoked, err := m.IsInvalidated(ctx, tok)
	if err != nil || revoked {
		t.Fatalf("fresh token reported revoked (%v, %v)", revoked, err)
	}

	if err := m.Invalidate(ctx, tok); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	revoked, err = m.IsInvalidated(ctx, tok)
	if err != nil || !revoked {
		t.Fatalf("revoked token reported live (%v, %v)", revoked, err)
	}
	if _, err := m.VerifyRefreshToken(ctx, tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}

	// The denylist entry lives no longer than the token itself.
	claims, err := m.Decode(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ttl := revocations.entries[claims.ID]
	if ttl <= 0 || ttl > 7*24*time.Hour {
		t.Fatalf("unexpected denylist ttl %v", ttl)
	}
}

func TestInvalidateIgnoresUndecodableAndExpired(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	m, revocations := newTestManager(t, func() time.Time { return now })
	ctx := context.Background()

	if err := m.Invalidate(ctx, "garbage"); err != nil {
		t.Fatalf("garbage input: %v", err)
	}

	tok, err := m.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	now = issued.Add(time.Hour)
	if err := m.Invalidate(ctx, tok); err != nil {
		t.Fatalf("expired input: %v", err)
	}
	if len(revocations.entries) != 0 {
		t.Fatalf("expired token was denylisted: %v", revocations.entries)
	}
}

func TestDecodeDoesNotVerify(t *testing.T) {
	m, _ := newTestManager(t, nil)

	other, _ := newTestManager(t, nil)
	other.config.Secret = []byte("another-secret-of-32-bytes-xxxxx")
	forged, err := other.GenerateRefreshToken("user-9")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.Decode(forged)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.UserID != "user-9" || claims.Kind != KindRefresh {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestGenerateTokenPair(t *testing.T) {
	m, _ := newTestManager(t, nil)
	ctx := context.Background()

	pair, err := m.GenerateTokenPair("user-1")
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("expires in %d", pair.ExpiresIn)
	}

	if _, err := m.VerifyAccessToken(ctx, pair.AccessToken); err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if _, err := m.VerifyRefreshToken(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
}

func TestRevocationStoreErrorFailsClosed(t *testing.T) {
	m, revocations := newTestManager(t, nil)
	ctx := context.Background()

	tok, err := m.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	revocations.err = errors.New("store down")
	if _, err := m.VerifyRefreshToken(ctx, tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid when denylist unavailable", err)
	}
}
