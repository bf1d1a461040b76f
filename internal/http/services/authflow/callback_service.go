package authflow

import (
	"context"
	"errors"

	"github.com/castward/castlink/internal/domain/repository"
	"github.com/castward/castlink/internal/oauth"
)

// CallbackService finishes an authorization round-trip: it verifies the
// pending attempt, exchanges the code, and applies the login or link effect.
type CallbackService interface {
	Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error)
}

// CallbackRequest carries everything the provider redirect brought back.
type CallbackRequest struct {
	Provider      string
	AttemptID     string // from the browser attempt cookie
	Code          string
	State         string
	ProviderError string // the provider's error query param, if any
	BaseURL       string
	ClientIP      string
	UserAgent     string
}

// CallbackResult is what the transport layer needs to finish the flow.
type CallbackResult struct {
	Mode       Mode
	Account    *repository.Account
	Profile    oauth.Profile
	IsNew      bool
	LinkedKind repository.ProviderKind // set in link mode
}

// Errors for callback service. Exchange failures surface as *oauth.ExchangeError.
var (
	ErrMissingCode      = errors.New("missing authorization code")
	ErrProviderDenied   = errors.New("provider denied authorization")
	ErrProviderMismatch = errors.New("callback provider does not match attempt")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrCallbackPersist  = errors.New("failed to persist account")
)
