// Package oauth implements the provider-side of the authorization-code flow:
// building authorization URLs and exchanging a callback code for a normalized
// user profile. One generic Provider config covers every integration; the
// per-provider differences live in endpoints, scopes, the PKCE flag and the
// profile field mapping.
package oauth

import (
	"fmt"
	"net/url"
	"strings"
)

// Profile is the common shape every provider response is normalized into
// before it reaches the identity linker.
type Profile struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
}

// ProfileMapper normalizes a provider-specific profile response body.
type ProfileMapper func(raw []byte) (Profile, error)

// Provider is the static configuration of one OAuth integration.
type Provider struct {
	// Name is the identifier used in routes and logs ("platform", "chat",
	// "twitter", "discord").
	Name string

	AuthURL    string
	TokenURL   string
	ProfileURL string

	ClientID     string
	ClientSecret string // already decrypted; never reaches client storage
	Scopes       []string

	// UsePKCE marks providers that require a code challenge/verifier pair.
	UsePKCE bool

	MapProfile ProfileMapper
}

// AuthCodeURL builds the authorization redirect URL. The exchanger is not
// involved here; it only consumes the resulting code.
func (p *Provider) AuthCodeURL(state, codeChallenge, redirectURI string) string {
	u, _ := url.Parse(p.AuthURL)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", strings.Join(p.Scopes, " "))
	q.Set("state", state)
	if p.UsePKCE && codeChallenge != "" {
		q.Set("code_challenge", codeChallenge)
		q.Set("code_challenge_method", "S256")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Registry holds all configured providers and allows lookup by name.
type Registry struct {
	providers map[string]*Provider
}

// NewRegistry registers the given providers by name.
func NewRegistry(list ...*Provider) *Registry {
	m := make(map[string]*Provider, len(list))
	for _, p := range list {
		m[strings.ToLower(p.Name)] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider by name or an error if not registered.
func (r *Registry) Get(name string) (*Provider, error) {
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %s", name)
	}
	return p, nil
}

// Names lists the registered provider names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	return out
}
