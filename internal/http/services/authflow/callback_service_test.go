package authflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castward/castlink/internal/cache"
	"github.com/castward/castlink/internal/domain/repository"
	"github.com/castward/castlink/internal/oauth"
	"github.com/castward/castlink/internal/store/memory"
)

type fakeExchanger struct {
	profile oauth.Profile
	err     error
	calls   int
}

func (f *fakeExchanger) Exchange(_ context.Context, _ *oauth.Provider, _, _, _ string) (*oauth.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &oauth.Result{AccessToken: "tok", Profile: f.profile}, nil
}

type countingLinker struct {
	store *memory.Store
	calls int
}

func (l *countingLinker) Link(ctx context.Context, accountID string, kind repository.ProviderKind, li repository.LinkedIdentity) (*repository.Account, error) {
	l.calls++
	return l.store.Link(ctx, accountID, kind, li)
}

func testRegistry() *oauth.Registry {
	chat := oauth.ChatProvider("https://id/auth", "https://id/token", "https://api/user")
	chat.ClientID = "cid"
	tw := oauth.TwitterProvider()
	tw.ClientID = "cid"
	return oauth.NewRegistry(chat, tw)
}

func newCallbackFixture(t *testing.T, ex CodeExchanger) (CallbackService, *AttemptStore, *memory.Store, *countingLinker) {
	t.Helper()
	store := memory.New()
	attempts := NewAttemptStore(cache.NewMemory("test"))
	linker := &countingLinker{store: store}
	svc := NewCallbackService(CallbackDeps{
		Registry:  testRegistry(),
		Attempts:  attempts,
		Exchanger: ex,
		Accounts:  store,
		Linker:    linker,
	})
	return svc, attempts, store, linker
}

func TestCallback_LoginUpsertsAndLinks(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExchanger{profile: oauth.Profile{ID: "42", Username: "alice", DisplayName: "Alice"}}
	svc, attempts, store, linker := newCallbackFixture(t, ex)

	id, err := attempts.Begin(ctx, Attempt{State: "s1", Provider: "chat", Mode: ModeLogin, Verifier: "v1"})
	require.NoError(t, err)

	res, err := svc.Callback(ctx, CallbackRequest{
		Provider:  "chat",
		AttemptID: id,
		Code:      "abc123",
		State:     "s1",
	})
	require.NoError(t, err)
	require.Equal(t, ModeLogin, res.Mode)
	require.True(t, res.IsNew)
	require.Equal(t, 1, linker.calls)

	account, err := store.GetBySubject(ctx, "chat:42")
	require.NoError(t, err)
	require.NotNil(t, account.Chat)
	require.Equal(t, "alice", account.Chat.Username)

	// Same subject logging in again is not a new account.
	id2, err := attempts.Begin(ctx, Attempt{State: "s2", Provider: "chat", Mode: ModeLogin, Verifier: "v2"})
	require.NoError(t, err)
	res2, err := svc.Callback(ctx, CallbackRequest{Provider: "chat", AttemptID: id2, Code: "def456", State: "s2"})
	require.NoError(t, err)
	require.False(t, res2.IsNew)
	require.Equal(t, res.Account.ID, res2.Account.ID)
}

func TestCallback_StateMismatchPerformsNoLink(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExchanger{profile: oauth.Profile{ID: "42", Username: "alice"}}
	svc, attempts, _, linker := newCallbackFixture(t, ex)

	id, err := attempts.Begin(ctx, Attempt{State: "stateA", Provider: "chat", Mode: ModeLogin, Verifier: "v1"})
	require.NoError(t, err)

	_, err = svc.Callback(ctx, CallbackRequest{
		Provider:  "chat",
		AttemptID: id,
		Code:      "abc123",
		State:     "stateB",
	})
	require.True(t, errors.Is(err, ErrStateMismatch))
	require.Equal(t, 0, ex.calls, "code must not be spent on a mismatched state")
	require.Equal(t, 0, linker.calls)
}

func TestCallback_LinkModeAttachesToSessionAccount(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExchanger{profile: oauth.Profile{ID: "99", Username: "alice_x", DisplayName: "Alice"}}
	svc, attempts, store, _ := newCallbackFixture(t, ex)

	account, _, err := store.UpsertBySubject(ctx, "chat:42")
	require.NoError(t, err)

	id, err := attempts.Begin(ctx, Attempt{State: "s1", Provider: "twitter", Mode: ModeLink, AccountID: account.ID, Verifier: "v1"})
	require.NoError(t, err)

	res, err := svc.Callback(ctx, CallbackRequest{Provider: "twitter", AttemptID: id, Code: "c1", State: "s1"})
	require.NoError(t, err)
	require.Equal(t, ModeLink, res.Mode)
	require.Equal(t, repository.KindTwitter, res.LinkedKind)
	require.NotNil(t, res.Account.Twitter)
	require.Equal(t, "99", res.Account.Twitter.ID)
}

func TestCallback_LinkModeWithoutAccountFails(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExchanger{profile: oauth.Profile{ID: "99"}}
	svc, attempts, _, linker := newCallbackFixture(t, ex)

	id, err := attempts.Begin(ctx, Attempt{State: "s1", Provider: "twitter", Mode: ModeLink})
	require.NoError(t, err)

	_, err = svc.Callback(ctx, CallbackRequest{Provider: "twitter", AttemptID: id, Code: "c1", State: "s1"})
	require.True(t, errors.Is(err, ErrNotAuthenticated))
	require.Equal(t, 0, linker.calls)
}

func TestCallback_ProviderErrorShortCircuits(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExchanger{}
	svc, attempts, _, _ := newCallbackFixture(t, ex)

	id, err := attempts.Begin(ctx, Attempt{State: "s1", Provider: "chat", Mode: ModeLogin})
	require.NoError(t, err)

	_, err = svc.Callback(ctx, CallbackRequest{
		Provider:      "chat",
		AttemptID:     id,
		State:         "s1",
		ProviderError: "access_denied",
	})
	require.True(t, errors.Is(err, ErrProviderDenied))
	require.Equal(t, 0, ex.calls)
}

func TestCallback_MissingCode(t *testing.T) {
	ctx := context.Background()
	svc, attempts, _, _ := newCallbackFixture(t, &fakeExchanger{})

	id, err := attempts.Begin(ctx, Attempt{State: "s1", Provider: "chat", Mode: ModeLogin})
	require.NoError(t, err)

	_, err = svc.Callback(ctx, CallbackRequest{Provider: "chat", AttemptID: id, State: "s1"})
	require.True(t, errors.Is(err, ErrMissingCode))
}

func TestCallback_ExchangeErrorPropagates(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExchanger{err: &oauth.ExchangeError{Provider: "chat", Reason: oauth.ReasonCodeAlreadyUsed}}
	svc, attempts, _, linker := newCallbackFixture(t, ex)

	id, err := attempts.Begin(ctx, Attempt{State: "s1", Provider: "chat", Mode: ModeLogin, Verifier: "v1"})
	require.NoError(t, err)

	_, err = svc.Callback(ctx, CallbackRequest{Provider: "chat", AttemptID: id, Code: "c1", State: "s1"})
	ee, ok := oauth.AsExchangeError(err)
	require.True(t, ok)
	require.Equal(t, oauth.ReasonCodeAlreadyUsed, ee.Reason)
	require.Equal(t, 0, linker.calls, "no account mutation after a failed exchange")
}
