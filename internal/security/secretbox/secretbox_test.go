package secretbox

import (
	"encoding/base64"
	"os"
	"strings"
	"testing"
)

func setKey(t *testing.T) {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	os.Setenv("SECRETBOX_MASTER_KEY", base64.StdEncoding.EncodeToString(raw))
	t.Cleanup(func() { os.Unsetenv("SECRETBOX_MASTER_KEY") })
}

func TestReady_LoadsKeyFromEnv(t *testing.T) {
	setKey(t)

	// Ready debe poder ser la primera llamada al package (cmd/enc la usa
	// como guard antes de Encrypt), así que dispara la carga por sí misma.
	if !Ready() {
		t.Fatal("Ready() debe ser true con una master key válida en el entorno")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	setKey(t)

	msg := "client-secret ✓ — con unicode"
	ct, err := Encrypt(msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !strings.Contains(ct, sep) {
		t.Fatalf("ciphertext sin separador: %q", ct)
	}
	pt, err := Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if pt != msg {
		t.Fatalf("round trip: %q != %q", pt, msg)
	}
}

func TestMaybeDecrypt_PlainPassthrough(t *testing.T) {
	setKey(t)

	out, err := MaybeDecrypt("plain-dev-secret")
	if err != nil {
		t.Fatalf("MaybeDecrypt: %v", err)
	}
	if out != "plain-dev-secret" {
		t.Fatalf("got %q", out)
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	setKey(t)

	ct, err := Encrypt("secreto")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	parts := strings.SplitN(ct, sep, 2)
	tampered := parts[0] + sep + base64.StdEncoding.EncodeToString([]byte("garbagegarbage"))
	if _, err := Decrypt(tampered); err == nil {
		t.Fatal("tampered ciphertext must not decrypt")
	}
}
