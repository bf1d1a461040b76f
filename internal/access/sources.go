package access

import (
	"context"
	"strings"

	"github.com/castward/castlink/internal/domain/repository"
	"github.com/castward/castlink/internal/identity"
)

// RepoRoleSource resolves roles from the account store. Secondary identities
// have no account record and always map to the lowest role name.
type RepoRoleSource struct {
	Accounts repository.AccountRepository
}

func NewRepoRoleSource(accounts repository.AccountRepository) *RepoRoleSource {
	return &RepoRoleSource{Accounts: accounts}
}

func (s *RepoRoleSource) RoleOf(ctx context.Context, id string) (string, error) {
	if strings.HasPrefix(id, identity.SecondaryPrefix) {
		return RoleUnverified.String(), nil
	}
	return s.Accounts.RoleOf(ctx, id)
}
