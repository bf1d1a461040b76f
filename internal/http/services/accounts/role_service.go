package accounts

import (
	"context"
	"errors"
)

// RoleService handles administrative role assignment.
type RoleService interface {
	// SetRole assigns a role to an account. The caller must already have
	// passed the admin gate; this service only validates inputs.
	SetRole(ctx context.Context, accountID, role string) error
}

// Errors for role service.
var (
	ErrRoleUnknown        = errors.New("unknown role")
	ErrRoleAccountMissing = errors.New("account not found")
	ErrRolePersistFailed  = errors.New("failed to persist role")
)
