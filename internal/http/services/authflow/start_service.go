package authflow

import (
	"context"
	"errors"
)

// StartService begins an authorization round-trip with a provider.
type StartService interface {
	// Start creates a pending attempt and returns the provider redirect URL
	// together with the attempt id to set on the browser.
	Start(ctx context.Context, req StartRequest) (*StartResult, error)
}

// StartRequest contains the parameters for starting a flow.
type StartRequest struct {
	Provider  string
	Mode      Mode
	AccountID string // required for ModeLink: the session account
	BaseURL   string // public base URL for building the callback
}

// StartResult contains the provider redirect and the browser attempt id.
type StartResult struct {
	RedirectURL string
	AttemptID   string
}

// Errors for start service.
var (
	ErrStartProviderUnknown  = errors.New("unknown provider")
	ErrStartInvalidMode      = errors.New("invalid mode")
	ErrStartNotAuthenticated = errors.New("link requires an authenticated session")
	ErrStartFailed           = errors.New("failed to start authorization")
)
