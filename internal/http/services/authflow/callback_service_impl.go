package authflow

import (
	"context"
	"fmt"

	"github.com/castward/castlink/internal/domain/repository"
	"github.com/castward/castlink/internal/metrics"
	"github.com/castward/castlink/internal/oauth"
	"github.com/castward/castlink/internal/observability/logger"
)

// CodeExchanger redeems an authorization code for a normalized profile.
type CodeExchanger interface {
	Exchange(ctx context.Context, p *oauth.Provider, code, verifier, redirectURI string) (*oauth.Result, error)
}

// IdentityLinker applies a link onto an account.
type IdentityLinker interface {
	Link(ctx context.Context, accountID string, kind repository.ProviderKind, li repository.LinkedIdentity) (*repository.Account, error)
}

// RiskDispatcher records a login event out of band.
type RiskDispatcher interface {
	Dispatch(identity, ip, userAgent, provider string)
}

// CallbackDeps contains dependencies for callback service.
type CallbackDeps struct {
	Registry  *oauth.Registry
	Attempts  *AttemptStore
	Exchanger CodeExchanger
	Accounts  repository.AccountRepository
	Linker    IdentityLinker
	Risk      RiskDispatcher // optional
}

type callbackService struct {
	registry  *oauth.Registry
	attempts  *AttemptStore
	exchanger CodeExchanger
	accounts  repository.AccountRepository
	linker    IdentityLinker
	risk      RiskDispatcher
}

// NewCallbackService creates a new CallbackService.
func NewCallbackService(d CallbackDeps) CallbackService {
	return &callbackService{
		registry:  d.Registry,
		attempts:  d.Attempts,
		exchanger: d.Exchanger,
		accounts:  d.Accounts,
		linker:    d.Linker,
		risk:      d.Risk,
	}
}

func (s *callbackService) Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("authflow.callback"))

	// The provider's own error param terminates the flow before any state
	// or code handling.
	if req.ProviderError != "" {
		log.Warn("provider denied authorization",
			logger.Provider(req.Provider),
			logger.String("provider_error", req.ProviderError),
		)
		return nil, ErrProviderDenied
	}

	// Verify consumes the attempt regardless of outcome. Ordering matters:
	// the attempt must burn before the code is spent upstream.
	attempt, err := s.attempts.Verify(ctx, req.AttemptID, req.State)
	if err != nil {
		return nil, err
	}
	if attempt.Provider != req.Provider {
		return nil, ErrProviderMismatch
	}
	if req.Code == "" {
		return nil, ErrMissingCode
	}

	p, err := s.registry.Get(req.Provider)
	if err != nil {
		return nil, ErrStartProviderUnknown
	}

	res, err := s.exchanger.Exchange(ctx, p, req.Code, attempt.Verifier, callbackURL(req.BaseURL, p.Name))
	if err != nil {
		if ee, ok := oauth.AsExchangeError(err); ok {
			metrics.OAuthExchangeFailures.WithLabelValues(ee.Provider, string(ee.Reason)).Inc()
			log.Warn("exchange failed",
				logger.Provider(ee.Provider),
				logger.String("reason", string(ee.Reason)),
				logger.Status(ee.StatusCode),
			)
		}
		return nil, err
	}

	switch attempt.Mode {
	case ModeLink:
		return s.finishLink(ctx, attempt, p, res.Profile)
	default:
		return s.finishLogin(ctx, p, res.Profile, req)
	}
}

// finishLogin upserts the account for the primary subject, mirrors the
// profile onto the matching link column, and hands the account back for
// session issuance.
func (s *callbackService) finishLogin(ctx context.Context, p *oauth.Provider, profile oauth.Profile, req CallbackRequest) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("authflow.callback"))

	subject := p.Name + ":" + profile.ID
	account, isNew, err := s.accounts.UpsertBySubject(ctx, subject)
	if err != nil {
		log.Error("account upsert failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrCallbackPersist, err)
	}

	kind := repository.ProviderKind(p.Name)
	if repository.ValidKind(kind) {
		account, err = s.linker.Link(ctx, account.ID, kind, repository.LinkedIdentity{
			ID:          profile.ID,
			Username:    profile.Username,
			DisplayName: profile.DisplayName,
			AvatarURL:   profile.AvatarURL,
		})
		if err != nil {
			log.Error("login link failed", logger.Err(err))
			return nil, fmt.Errorf("%w: %v", ErrCallbackPersist, err)
		}
	}

	if s.risk != nil {
		s.risk.Dispatch(account.ID, req.ClientIP, req.UserAgent, p.Name)
	}

	log.Info("login completed",
		logger.Provider(p.Name),
		logger.AccountID(account.ID),
		logger.Bool("new_account", isNew),
	)

	return &CallbackResult{
		Mode:    ModeLogin,
		Account: account,
		Profile: profile,
		IsNew:   isNew,
	}, nil
}

// finishLink attaches the fetched profile to the already-authenticated
// account recorded on the attempt.
func (s *callbackService) finishLink(ctx context.Context, attempt *Attempt, p *oauth.Provider, profile oauth.Profile) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("authflow.callback"))

	if attempt.AccountID == "" {
		return nil, ErrNotAuthenticated
	}
	kind := repository.ProviderKind(p.Name)
	if !repository.ValidKind(kind) {
		return nil, ErrStartProviderUnknown
	}

	account, err := s.linker.Link(ctx, attempt.AccountID, kind, repository.LinkedIdentity{
		ID:          profile.ID,
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
	})
	if err != nil {
		return nil, err
	}

	log.Info("link completed",
		logger.Provider(p.Name),
		logger.AccountID(account.ID),
	)

	return &CallbackResult{
		Mode:       ModeLink,
		Account:    account,
		Profile:    profile,
		LinkedKind: kind,
	}, nil
}
