package authflow

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castward/castlink/internal/cache"
)

func newStartFixture(t *testing.T) (StartService, *AttemptStore) {
	t.Helper()
	attempts := NewAttemptStore(cache.NewMemory("test"))
	svc := NewStartService(StartDeps{Registry: testRegistry(), Attempts: attempts})
	return svc, attempts
}

func TestStart_LoginBuildsPKCERedirect(t *testing.T) {
	svc, attempts := newStartFixture(t)

	res, err := svc.Start(context.Background(), StartRequest{
		Provider: "chat",
		Mode:     ModeLogin,
		BaseURL:  "https://api.example.tv",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.AttemptID)

	u, err := url.Parse(res.RedirectURL)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.NotEmpty(t, q.Get("state"))
	require.NotEmpty(t, q.Get("code_challenge"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.True(t, strings.HasPrefix(q.Get("redirect_uri"), "https://api.example.tv/v1/auth/chat/callback"))

	// The stored attempt matches the state in the redirect.
	a, err := attempts.Verify(context.Background(), res.AttemptID, q.Get("state"))
	require.NoError(t, err)
	require.NotEmpty(t, a.Verifier)
}

func TestStart_UnknownProvider(t *testing.T) {
	svc, _ := newStartFixture(t)

	_, err := svc.Start(context.Background(), StartRequest{Provider: "myspace", Mode: ModeLogin})
	require.True(t, errors.Is(err, ErrStartProviderUnknown))
}

func TestStart_LinkRequiresAccount(t *testing.T) {
	svc, _ := newStartFixture(t)

	_, err := svc.Start(context.Background(), StartRequest{Provider: "twitter", Mode: ModeLink})
	require.True(t, errors.Is(err, ErrStartNotAuthenticated))

	res, err := svc.Start(context.Background(), StartRequest{
		Provider:  "twitter",
		Mode:      ModeLink,
		AccountID: "acc-1",
		BaseURL:   "https://api.example.tv",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.RedirectURL)
}

func TestStart_InvalidMode(t *testing.T) {
	svc, _ := newStartFixture(t)

	_, err := svc.Start(context.Background(), StartRequest{Provider: "chat", Mode: Mode("signup")})
	require.True(t, errors.Is(err, ErrStartInvalidMode))
}
