package authkit

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestResetPasswordMessageHidesAccountExistence(t *testing.T) {
	e, sender := newTestEngine(t)
	ctx := context.Background()

	registerVerified(t, e, "alice@example.com", "Sw0rdfish-Pass")

	knownMsg, err := e.ResetPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("reset for known email: %v", err)
	}
	sentForKnown := sender.count()

	unknownMsg, err := e.ResetPassword(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("reset for unknown email: %v", err)
	}

	if knownMsg != unknownMsg {
		t.Fatalf("messages differ: %q vs %q", knownMsg, unknownMsg)
	}
	if sentForKnown != 1 {
		t.Fatalf("expected one email for known account, got %d", sentForKnown)
	}
	if sender.count() != sentForKnown {
		t.Fatal("unknown email must not trigger a send")
	}
}

func TestResetPasswordDeliveryFailureNotSurfaced(t *testing.T) {
	e, sender := newTestEngine(t)
	ctx := context.Background()

	registerVerified(t, e, "alice@example.com", "Sw0rdfish-Pass")
	sender.err = errors.New("smtp down")

	msg, err := e.ResetPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("delivery failure leaked: %v", err)
	}
	if msg != resetRequestMessage {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestResetPasswordConfirmFlow(t *testing.T) {
	e, sender := newTestEngine(t)
	ctx := context.Background()

	registerVerified(t, e, "alice@example.com", "Sw0rdfish-Pass")

	if _, err := e.ResetPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("reset request: %v", err)
	}
	msg := sender.last(t)
	if !strings.Contains(strings.ToLower(msg.Subject), "reset") {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	tok := tokenFromMessage(t, msg)

	if err := e.ResetPasswordConfirm(ctx, tok, "weak"); err == nil {
		t.Fatal("expected policy rejection")
	}
	if err := e.ResetPasswordConfirm(ctx, tok, "N3w-Password"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := e.Login(ctx, "alice@example.com", "Sw0rdfish-Pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := e.Login(ctx, "alice@example.com", "N3w-Password"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestResetTokenSingleUse(t *testing.T) {
	e, sender := newTestEngine(t)
	ctx := context.Background()

	registerVerified(t, e, "alice@example.com", "Sw0rdfish-Pass")

	if _, err := e.ResetPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("reset request: %v", err)
	}
	tok := tokenFromMessage(t, sender.last(t))

	if err := e.ResetPasswordConfirm(ctx, tok, "N3w-Password"); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if err := e.ResetPasswordConfirm(ctx, tok, "An0ther-Pass"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("replay got %v, want ErrResetTokenInvalid", err)
	}

	// The first confirmation must stand.
	if _, err := e.Login(ctx, "alice@example.com", "N3w-Password"); err != nil {
		t.Fatalf("login after replay attempt: %v", err)
	}
}

func TestResetPasswordConfirmRejectsWrongKind(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	registerVerified(t, e, "alice@example.com", "Sw0rdfish-Pass")
	login, err := e.Login(ctx, "alice@example.com", "Sw0rdfish-Pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	for _, tok := range []string{login.Tokens.AccessToken, login.Tokens.RefreshToken, "garbage"} {
		if err := e.ResetPasswordConfirm(ctx, tok, "N3w-Password"); !errors.Is(err, ErrResetTokenInvalid) {
			t.Fatalf("got %v, want ErrResetTokenInvalid", err)
		}
	}
}
