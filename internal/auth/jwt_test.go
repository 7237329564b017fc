package auth

import (
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestManager(clock *fakeClock) *Manager {
	return NewManager("test-secret-key", 24*time.Hour, 10*time.Minute).WithClock(clock.Now)
}

func TestSessionToken_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := newTestManager(clock)

	tok, err := m.IssueSessionToken("user-1", "admin")
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}

	claims, err := m.VerifySessionToken(tok)
	if err != nil {
		t.Fatalf("VerifySessionToken error: %v", err)
	}

	if claims.UserID != "user-1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.JTI == "" {
		t.Fatalf("expected jti to be set")
	}
}

func TestSessionToken_ExpiresAfter24h(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := newTestManager(clock)

	tok, err := m.IssueSessionToken("user-1", "user")
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}

	clock.t = clock.t.Add(23 * time.Hour)
	if _, err := m.VerifySessionToken(tok); err != nil {
		t.Fatalf("token should still be valid at 23h: %v", err)
	}

	clock.t = clock.t.Add(2 * time.Hour)
	if _, err := m.VerifySessionToken(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after 25h, got %v", err)
	}
}

func TestResetToken_RejectedAfterTenMinutes(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := newTestManager(clock)

	tok, err := m.IssueResetToken("user-1")
	if err != nil {
		t.Fatalf("IssueResetToken error: %v", err)
	}

	clock.t = clock.t.Add(9 * time.Minute)
	if _, err := m.VerifyResetToken(tok); err != nil {
		t.Fatalf("reset token should be valid at 9m: %v", err)
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if _, err := m.VerifyResetToken(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after 11m, got %v", err)
	}
}

func TestTokenPurposeIsEnforced(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := newTestManager(clock)

	reset, _ := m.IssueResetToken("user-1")
	if _, err := m.VerifySessionToken(reset); err != ErrInvalidToken {
		t.Fatalf("reset token must not pass as session, got %v", err)
	}

	session, _ := m.IssueSessionToken("user-1", "user")
	if _, err := m.VerifyResetToken(session); err != ErrInvalidToken {
		t.Fatalf("session token must not pass as reset, got %v", err)
	}
}

func TestTamperedAndForeignTokensFailTheSameWay(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := newTestManager(clock)
	other := NewManager("another-secret", time.Hour, time.Minute).WithClock(clock.Now)

	tok, _ := m.IssueSessionToken("user-1", "user")
	parts := strings.Split(tok, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	foreign, _ := other.IssueSessionToken("user-1", "user")

	for name, raw := range map[string]string{
		"tampered": tampered,
		"foreign":  foreign,
		"garbage":  "not-a-jwt",
		"empty":    "",
	} {
		if _, err := m.VerifySessionToken(raw); err != ErrInvalidToken {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}
