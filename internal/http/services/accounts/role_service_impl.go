package accounts

import (
	"context"
	"fmt"

	"github.com/castward/castlink/internal/access"
	"github.com/castward/castlink/internal/audit"
	"github.com/castward/castlink/internal/domain/repository"
	"github.com/castward/castlink/internal/observability/logger"
)

// RoleDeps contains dependencies for role service.
type RoleDeps struct {
	Accounts repository.AccountRepository
}

type roleService struct {
	accounts repository.AccountRepository
}

// NewRoleService creates a new RoleService.
func NewRoleService(d RoleDeps) RoleService {
	return &roleService{accounts: d.Accounts}
}

func (s *roleService) SetRole(ctx context.Context, accountID, role string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("accounts.role"))

	parsed, ok := access.ParseRole(role)
	if !ok {
		return ErrRoleUnknown
	}

	if err := s.accounts.SetRole(ctx, accountID, parsed.String()); err != nil {
		if repository.IsNotFound(err) {
			return ErrRoleAccountMissing
		}
		log.Error("role persist failed",
			logger.AccountID(accountID),
			logger.Role(role),
			logger.Err(err),
		)
		return fmt.Errorf("%w: %v", ErrRolePersistFailed, err)
	}

	audit.Log(ctx, "account.role_set", map[string]any{
		"account_id": accountID,
		"role":       parsed.String(),
	})
	return nil
}
