package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
)

func TestGenerateVerifier_UniqueAndURLSafe(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		v, err := GenerateVerifier()
		if err != nil {
			t.Fatalf("GenerateVerifier: %v", err)
		}
		if seen[v] {
			t.Fatalf("duplicate verifier generated")
		}
		seen[v] = true
		if _, err := base64.RawURLEncoding.DecodeString(v); err != nil {
			t.Fatalf("verifier not base64url: %v", err)
		}
	}
}

func TestChallenge_S256(t *testing.T) {
	v := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := base64.RawURLEncoding.EncodeToString(func() []byte {
		h := sha256.Sum256([]byte(v))
		return h[:]
	}())
	if got := Challenge(v); got != want {
		t.Fatalf("Challenge = %q, want %q", got, want)
	}
}

func TestAuthCodeURL_CarriesChallengeAndState(t *testing.T) {
	p := &Provider{
		Name:     "chat",
		AuthURL:  "https://id.example.tv/oauth/authorize",
		ClientID: "cid",
		Scopes:   []string{"user:read"},
		UsePKCE:  true,
	}
	u := p.AuthCodeURL("state123", "challenge456", "https://app.example/cb")
	for _, want := range []string{
		"response_type=code",
		"client_id=cid",
		"state=state123",
		"code_challenge=challenge456",
		"code_challenge_method=S256",
	} {
		if !strings.Contains(u, want) {
			t.Fatalf("auth URL missing %q: %s", want, u)
		}
	}
}
