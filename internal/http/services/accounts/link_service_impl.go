package accounts

import (
	"context"
	"fmt"

	"github.com/castward/castlink/internal/audit"
	"github.com/castward/castlink/internal/domain/repository"
	"github.com/castward/castlink/internal/metrics"
	"github.com/castward/castlink/internal/observability/logger"
)

// LinkDeps contains dependencies for link service.
type LinkDeps struct {
	Accounts repository.AccountRepository
}

type linkService struct {
	accounts repository.AccountRepository
}

// NewLinkService creates a new LinkService.
func NewLinkService(d LinkDeps) LinkService {
	return &linkService{accounts: d.Accounts}
}

func (s *linkService) Link(ctx context.Context, accountID string, kind repository.ProviderKind, li repository.LinkedIdentity) (*repository.Account, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("accounts.link"))

	if accountID == "" {
		return nil, ErrLinkNotAuthorized
	}
	if !repository.ValidKind(kind) {
		return nil, ErrLinkUnknownKind
	}

	account, err := s.accounts.Link(ctx, accountID, kind, li)
	if err != nil {
		log.Error("link persist failed",
			logger.AccountID(accountID),
			logger.String("kind", string(kind)),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrLinkPersistFailed, err)
	}

	metrics.LinkOperations.WithLabelValues(string(kind), "link").Inc()
	audit.Log(ctx, "identity.link", map[string]any{
		"account_id": accountID,
		"kind":       string(kind),
		"identity":   li.ID,
	})

	return account, nil
}

func (s *linkService) Unlink(ctx context.Context, accountID string, kind repository.ProviderKind) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("accounts.link"))

	if accountID == "" {
		return ErrLinkNotAuthorized
	}
	if !repository.ValidKind(kind) {
		return ErrLinkUnknownKind
	}

	if err := s.accounts.Unlink(ctx, accountID, kind); err != nil {
		log.Error("unlink persist failed",
			logger.AccountID(accountID),
			logger.String("kind", string(kind)),
			logger.Err(err),
		)
		return fmt.Errorf("%w: %v", ErrLinkPersistFailed, err)
	}

	metrics.LinkOperations.WithLabelValues(string(kind), "unlink").Inc()
	audit.Log(ctx, "identity.unlink", map[string]any{
		"account_id": accountID,
		"kind":       string(kind),
	})

	return nil
}
