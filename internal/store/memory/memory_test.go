package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castward/castlink/internal/domain/repository"
)

func TestUpsertBySubject_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	a1, isNew, err := s.UpsertBySubject(ctx, "chat:42")
	require.NoError(t, err)
	require.True(t, isNew)
	require.Equal(t, "unverified", a1.Role)

	a2, isNew, err := s.UpsertBySubject(ctx, "chat:42")
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, a1.ID, a2.ID)
}

func TestLink_OverwriteSameKind(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, _, err := s.UpsertBySubject(ctx, "chat:42")
	require.NoError(t, err)

	_, err = s.Link(ctx, a.ID, repository.KindTwitter, repository.LinkedIdentity{ID: "99", Username: "old"})
	require.NoError(t, err)
	got, err := s.Link(ctx, a.ID, repository.KindTwitter, repository.LinkedIdentity{ID: "99", Username: "new"})
	require.NoError(t, err)
	require.Equal(t, "new", got.Twitter.Username)
}

func TestLinkUnlink_RoundTripPreservesOthers(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, _, err := s.UpsertBySubject(ctx, "chat:42")
	require.NoError(t, err)
	require.NoError(t, s.SetRole(ctx, a.ID, "premium"))

	_, err = s.Link(ctx, a.ID, repository.KindChat, repository.LinkedIdentity{ID: "42", Username: "alice"})
	require.NoError(t, err)
	_, err = s.Link(ctx, a.ID, repository.KindDiscord, repository.LinkedIdentity{ID: "77", Username: "alice#1"})
	require.NoError(t, err)

	require.NoError(t, s.Unlink(ctx, a.ID, repository.KindDiscord))

	got, err := s.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, got.Discord)
	require.NotNil(t, got.Chat, "unlink must not touch other kinds")
	require.Equal(t, "premium", got.Role, "unlink must not touch role")

	// Unlinking an absent kind is a no-op.
	require.NoError(t, s.Unlink(ctx, a.ID, repository.KindDiscord))
}

func TestUnlink_UnknownAccount(t *testing.T) {
	s := New()
	err := s.Unlink(context.Background(), "nope", repository.KindChat)
	require.True(t, repository.IsNotFound(err))
}

func TestRoleOf(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, _, err := s.UpsertBySubject(ctx, "chat:42")
	require.NoError(t, err)

	role, err := s.RoleOf(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "unverified", role)

	_, err = s.RoleOf(ctx, "missing")
	require.True(t, repository.IsNotFound(err))
}

func TestRiskAppend_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, ip := range []string{"1.1.1.1", "2.2.2.2"} {
		require.NoError(t, s.Append(ctx, &repository.RiskRecord{Identity: "acc-1", IP: ip}))
	}
	require.NoError(t, s.Append(ctx, &repository.RiskRecord{Identity: "acc-2", IP: "3.3.3.3"}))

	out, err := s.ListByIdentity(ctx, "acc-1", 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
}
