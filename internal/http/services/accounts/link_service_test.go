package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castward/castlink/internal/domain/repository"
	"github.com/castward/castlink/internal/store/memory"
)

func TestLink_IdempotentOverwrite(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewLinkService(LinkDeps{Accounts: store})

	account, _, err := store.UpsertBySubject(ctx, "chat:42")
	require.NoError(t, err)

	_, err = svc.Link(ctx, account.ID, repository.KindTwitter, repository.LinkedIdentity{ID: "99", Username: "old"})
	require.NoError(t, err)
	got, err := svc.Link(ctx, account.ID, repository.KindTwitter, repository.LinkedIdentity{ID: "99", Username: "new"})
	require.NoError(t, err)
	require.Equal(t, "new", got.Twitter.Username)
}

func TestLink_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewLinkService(LinkDeps{Accounts: memory.New()})

	_, err := svc.Link(ctx, "", repository.KindChat, repository.LinkedIdentity{ID: "1"})
	require.True(t, errors.Is(err, ErrLinkNotAuthorized))

	_, err = svc.Link(ctx, "acc-1", repository.ProviderKind("myspace"), repository.LinkedIdentity{ID: "1"})
	require.True(t, errors.Is(err, ErrLinkUnknownKind))
}

func TestUnlink_WrapsPersistFailure(t *testing.T) {
	ctx := context.Background()
	svc := NewLinkService(LinkDeps{Accounts: memory.New()})

	err := svc.Unlink(ctx, "missing-account", repository.KindChat)
	require.True(t, errors.Is(err, ErrLinkPersistFailed))
}

func TestSetRole_Validation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewRoleService(RoleDeps{Accounts: store})

	require.True(t, errors.Is(svc.SetRole(ctx, "acc-1", "superuser"), ErrRoleUnknown))
	require.True(t, errors.Is(svc.SetRole(ctx, "missing", "premium"), ErrRoleAccountMissing))

	account, _, err := store.UpsertBySubject(ctx, "chat:42")
	require.NoError(t, err)
	require.NoError(t, svc.SetRole(ctx, account.ID, "premium"))

	role, err := store.RoleOf(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "premium", role)
}
