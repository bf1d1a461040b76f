package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ExchangeReason classifies why an exchange failed.
type ExchangeReason string

const (
	// ReasonUpstreamRejected: the provider answered with a non-success status.
	ReasonUpstreamRejected ExchangeReason = "upstream_rejected"
	// ReasonCodeAlreadyUsed: the single-use authorization code was replayed.
	ReasonCodeAlreadyUsed ExchangeReason = "code_already_used"
	// ReasonPkceMismatch: the verifier does not match the original challenge.
	ReasonPkceMismatch ExchangeReason = "pkce_mismatch"
)

// ExchangeError is the failure surface of the token exchanger. Authorization
// codes are single-use, so no reason is retryable.
type ExchangeError struct {
	Provider   string
	Reason     ExchangeReason
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("oauth exchange (%s): %s: status %d", e.Provider, e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("oauth exchange (%s): %s", e.Provider, e.Reason)
}

// AsExchangeError unwraps err into an *ExchangeError if possible.
func AsExchangeError(err error) (*ExchangeError, bool) {
	var ee *ExchangeError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// Result is the output of a successful exchange.
type Result struct {
	AccessToken string
	Profile     Profile
}

// Exchanger performs the two sequential provider calls: code→token, then
// token→profile. Stateless per call; it persists nothing and never retries.
type Exchanger struct {
	http *http.Client
}

func NewExchanger() *Exchanger {
	return &Exchanger{http: &http.Client{Timeout: 10 * time.Second}}
}

// Exchange redeems an authorization code and fetches the normalized profile.
// For PKCE providers the verifier must be the one that produced the original
// challenge; it travels in the token request, never in client storage.
func (x *Exchanger) Exchange(ctx context.Context, p *Provider, code, verifier, redirectURI string) (*Result, error) {
	if p.UsePKCE && verifier == "" {
		return nil, &ExchangeError{Provider: p.Name, Reason: ReasonPkceMismatch}
	}

	cfg := &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	opts := []oauth2.AuthCodeOption{}
	if p.UsePKCE {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", verifier))
	}

	tctx := context.WithValue(ctx, oauth2.HTTPClient, x.http)
	token, err := cfg.Exchange(tctx, code, opts...)
	if err != nil {
		return nil, x.classifyTokenError(p, err)
	}
	if token.AccessToken == "" {
		return nil, &ExchangeError{Provider: p.Name, Reason: ReasonUpstreamRejected, Body: "no access_token in response"}
	}

	profile, err := x.fetchProfile(ctx, p, token.AccessToken)
	if err != nil {
		return nil, err
	}

	return &Result{AccessToken: token.AccessToken, Profile: profile}, nil
}

// classifyTokenError maps an x/oauth2 retrieve error onto the taxonomy.
// invalid_grant on a well-formed request means the single-use code was
// already consumed; PKCE failures name the verifier/challenge in the body.
func (x *Exchanger) classifyTokenError(p *Provider, err error) error {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		return &ExchangeError{Provider: p.Name, Reason: ReasonUpstreamRejected, Body: err.Error()}
	}

	body := string(rerr.Body)
	status := 0
	if rerr.Response != nil {
		status = rerr.Response.StatusCode
	}

	lower := strings.ToLower(body + " " + rerr.ErrorCode + " " + rerr.ErrorDescription)
	switch {
	case strings.Contains(lower, "code_verifier") || strings.Contains(lower, "pkce") || strings.Contains(lower, "challenge"):
		return &ExchangeError{Provider: p.Name, Reason: ReasonPkceMismatch, StatusCode: status, Body: body}
	case strings.Contains(lower, "invalid_grant"):
		return &ExchangeError{Provider: p.Name, Reason: ReasonCodeAlreadyUsed, StatusCode: status, Body: body}
	default:
		return &ExchangeError{Provider: p.Name, Reason: ReasonUpstreamRejected, StatusCode: status, Body: body}
	}
}

// fetchProfile performs the authenticated profile GET and normalizes the
// provider-specific response.
func (x *Exchanger) fetchProfile(ctx context.Context, p *Provider, accessToken string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ProfileURL, nil)
	if err != nil {
		return Profile{}, &ExchangeError{Provider: p.Name, Reason: ReasonUpstreamRejected, Body: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := x.http.Do(req)
	if err != nil {
		return Profile{}, &ExchangeError{Provider: p.Name, Reason: ReasonUpstreamRejected, Body: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return Profile{}, &ExchangeError{
			Provider:   p.Name,
			Reason:     ReasonUpstreamRejected,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	profile, err := p.MapProfile(raw)
	if err != nil {
		return Profile{}, &ExchangeError{Provider: p.Name, Reason: ReasonUpstreamRejected, Body: err.Error()}
	}
	if profile.ID == "" {
		return Profile{}, &ExchangeError{Provider: p.Name, Reason: ReasonUpstreamRejected, Body: "profile missing id"}
	}
	return profile, nil
}
