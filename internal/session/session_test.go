package session

import (
	"errors"
	"testing"
	"time"
)

func TestIssueParse_RoundTrip(t *testing.T) {
	m := NewManager([]byte("0123456789abcdef0123456789abcdef"), "castlink", time.Hour)

	tok, err := m.Issue("acc-1", "streamer")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "acc-1" || claims.Role != "streamer" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	m1 := NewManager([]byte("secret-one-secret-one-secret-one"), "castlink", time.Hour)
	m2 := NewManager([]byte("secret-two-secret-two-secret-two"), "castlink", time.Hour)

	tok, err := m1.Issue("acc-1", "verified")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m2.Parse(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	m := NewManager([]byte("0123456789abcdef0123456789abcdef"), "castlink", -time.Minute)

	tok, err := m.Issue("acc-1", "verified")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Parse(tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParse_WrongIssuer(t *testing.T) {
	m1 := NewManager([]byte("0123456789abcdef0123456789abcdef"), "other", time.Hour)
	m2 := NewManager([]byte("0123456789abcdef0123456789abcdef"), "castlink", time.Hour)

	tok, err := m1.Issue("acc-1", "verified")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m2.Parse(tok); err == nil {
		t.Fatal("issuer mismatch must not parse")
	}
}
