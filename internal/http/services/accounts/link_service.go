package accounts

import (
	"context"
	"errors"

	"github.com/castward/castlink/internal/domain/repository"
)

// LinkService manages the linked identities of an account.
type LinkService interface {
	// Link attaches an external identity to the account. Re-linking the same
	// kind overwrites the previous identity; the write is atomic and a
	// partial link is never observable.
	Link(ctx context.Context, accountID string, kind repository.ProviderKind, li repository.LinkedIdentity) (*repository.Account, error)

	// Unlink clears the identity for a kind in one atomic write. Other kinds
	// and the account role are untouched. Unlinking an absent kind is a no-op.
	Unlink(ctx context.Context, accountID string, kind repository.ProviderKind) error
}

// Errors for link service.
var (
	ErrLinkUnknownKind   = errors.New("unknown identity kind")
	ErrLinkNotAuthorized = errors.New("not authorized")
	ErrLinkPersistFailed = errors.New("failed to persist link")
)
