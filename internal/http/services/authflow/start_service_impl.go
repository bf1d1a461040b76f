package authflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/castward/castlink/internal/oauth"
	"github.com/castward/castlink/internal/observability/logger"
)

// StartDeps contains dependencies for start service.
type StartDeps struct {
	Registry *oauth.Registry
	Attempts *AttemptStore
}

type startService struct {
	registry *oauth.Registry
	attempts *AttemptStore
}

// NewStartService creates a new StartService.
func NewStartService(d StartDeps) StartService {
	return &startService{
		registry: d.Registry,
		attempts: d.Attempts,
	}
}

func (s *startService) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("authflow.start"))

	if req.Mode != ModeLogin && req.Mode != ModeLink {
		return nil, ErrStartInvalidMode
	}
	if req.Mode == ModeLink && req.AccountID == "" {
		return nil, ErrStartNotAuthenticated
	}

	p, err := s.registry.Get(req.Provider)
	if err != nil {
		return nil, ErrStartProviderUnknown
	}

	state, err := randomToken(32)
	if err != nil {
		log.Error("failed to generate state", logger.Err(err))
		return nil, ErrStartFailed
	}

	attempt := Attempt{
		State:     state,
		Provider:  p.Name,
		Mode:      req.Mode,
		AccountID: req.AccountID,
	}

	challenge := ""
	if p.UsePKCE {
		verifier, err := oauth.GenerateVerifier()
		if err != nil {
			log.Error("failed to generate verifier", logger.Err(err))
			return nil, ErrStartFailed
		}
		attempt.Verifier = verifier
		challenge = oauth.Challenge(verifier)
	}

	attemptID, err := s.attempts.Begin(ctx, attempt)
	if err != nil {
		log.Error("failed to store attempt", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	redirectURI := callbackURL(req.BaseURL, p.Name)
	authURL := p.AuthCodeURL(state, challenge, redirectURI)

	log.Info("authorization started",
		logger.Provider(p.Name),
		logger.String("mode", string(req.Mode)),
	)

	return &StartResult{RedirectURL: authURL, AttemptID: attemptID}, nil
}

func callbackURL(baseURL, provider string) string {
	return fmt.Sprintf("%s/v1/auth/%s/callback", strings.TrimRight(baseURL, "/"), provider)
}

// randomToken generates a random base64url-encoded string of n bytes.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
