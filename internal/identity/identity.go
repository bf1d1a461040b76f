// Package identity resolves the single logical identity the rest of the
// product consumes, regardless of which provider authenticated the session.
package identity

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Kind distinguishes how the identity was established.
type Kind string

const (
	KindPrimary   Kind = "primary"
	KindSecondary Kind = "secondary"
)

// SecondaryPrefix namespaces secondary ids so they can never collide with
// primary account ids.
const SecondaryPrefix = "secondary:"

// SessionIdentity is the resolved logical identity. Derived, never stored.
type SessionIdentity struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// ClientState is the browser-persisted record of a secondary (chat) login.
type ClientState struct {
	ID            string `json:"id"`
	Username      string `json:"username,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// ClientStateStore is the key-value persistence behind the secondary client
// state. The HTTP layer backs it with a cookie; tests back it with a map.
type ClientStateStore interface {
	Get() (raw string, ok bool)
	Set(raw string)
	Delete()
}

// EncodeClientState serializes a client state for storage.
func EncodeClientState(cs ClientState) string {
	b, _ := json.Marshal(cs)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeClientState parses a stored client state leniently: any malformed,
// unauthenticated or id-less payload reads as absent, never as an error.
func DecodeClientState(raw string) (*ClientState, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		// Tolerate un-encoded JSON written by older clients.
		data = []byte(raw)
	}

	var cs ClientState
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, false
	}
	if !cs.Authenticated || cs.ID == "" {
		return nil, false
	}
	return &cs, true
}

// Resolve produces the logical identity from the primary session (account id,
// empty when absent) and the raw secondary client state. Pure: no caching,
// re-evaluated on every call. A present primary session always wins.
func Resolve(primaryAccountID, rawSecondary string) (SessionIdentity, bool) {
	if primaryAccountID != "" {
		return SessionIdentity{Kind: KindPrimary, ID: primaryAccountID}, true
	}

	if cs, ok := DecodeClientState(rawSecondary); ok {
		return SessionIdentity{Kind: KindSecondary, ID: SecondaryPrefix + cs.ID}, true
	}

	return SessionIdentity{}, false
}
