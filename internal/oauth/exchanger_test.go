package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeProvider spins up a token + profile endpoint pair behind one server.
func fakeProvider(t *testing.T, tokenHandler, profileHandler http.HandlerFunc) (*Provider, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler)
	mux.HandleFunc("/profile", profileHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &Provider{
		Name:       "chat",
		AuthURL:    srv.URL + "/authorize",
		TokenURL:   srv.URL + "/token",
		ProfileURL: srv.URL + "/profile",
		ClientID:   "cid",
		UsePKCE:    true,
		MapProfile: mapChatProfile,
	}, srv
}

func TestExchange_CodeThenProfile(t *testing.T) {
	var gotCode, gotVerifier string
	p, _ := fakeProvider(t,
		func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			gotCode = r.FormValue("code")
			gotVerifier = r.FormValue("code_verifier")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user_id":42,"username":"alice","profile_pic":"https://cdn/p.png"}`))
		},
	)

	res, err := NewExchanger().Exchange(context.Background(), p, "abc123", "v1", "https://app/cb")
	require.NoError(t, err)
	require.Equal(t, "abc123", gotCode)
	require.Equal(t, "v1", gotVerifier)
	require.Equal(t, "42", res.Profile.ID)
	require.Equal(t, "alice", res.Profile.Username)
}

func TestExchange_MissingVerifierIsPkceMismatch(t *testing.T) {
	p, _ := fakeProvider(t,
		func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("token endpoint must not be called")
		},
		func(w http.ResponseWriter, r *http.Request) {},
	)

	_, err := NewExchanger().Exchange(context.Background(), p, "abc123", "", "https://app/cb")
	ee, ok := AsExchangeError(err)
	require.True(t, ok)
	require.Equal(t, ReasonPkceMismatch, ee.Reason)
}

func TestExchange_InvalidGrantIsCodeAlreadyUsed(t *testing.T) {
	p, _ := fakeProvider(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"code revoked"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {},
	)

	_, err := NewExchanger().Exchange(context.Background(), p, "abc123", "v1", "https://app/cb")
	ee, ok := AsExchangeError(err)
	require.True(t, ok)
	require.Equal(t, ReasonCodeAlreadyUsed, ee.Reason)
	require.Equal(t, "chat", ee.Provider)
}

func TestExchange_VerifierErrorIsPkceMismatch(t *testing.T) {
	p, _ := fakeProvider(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_request","error_description":"code_verifier does not match"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {},
	)

	_, err := NewExchanger().Exchange(context.Background(), p, "abc123", "wrong", "https://app/cb")
	ee, ok := AsExchangeError(err)
	require.True(t, ok)
	require.Equal(t, ReasonPkceMismatch, ee.Reason)
}

func TestExchange_ProfileFailureIsUpstreamRejected(t *testing.T) {
	p, _ := fakeProvider(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		},
	)

	_, err := NewExchanger().Exchange(context.Background(), p, "abc123", "v1", "https://app/cb")
	ee, ok := AsExchangeError(err)
	require.True(t, ok)
	require.Equal(t, ReasonUpstreamRejected, ee.Reason)
	require.Equal(t, http.StatusInternalServerError, ee.StatusCode)
	require.Contains(t, ee.Body, "boom")
}

func TestMapDiscordProfile_AvatarURLAndFallback(t *testing.T) {
	p, err := mapDiscordProfile([]byte(`{"id":"77","username":"bob","global_name":"","avatar":"a1b2"}`))
	require.NoError(t, err)
	require.Equal(t, "bob", p.DisplayName)
	require.Equal(t, "https://cdn.discordapp.com/avatars/77/a1b2.png", p.AvatarURL)

	p, err = mapDiscordProfile([]byte(`{"id":"77","username":"bob"}`))
	require.NoError(t, err)
	require.Empty(t, p.AvatarURL)
}

func TestMapTwitterProfile_DataWrapper(t *testing.T) {
	p, err := mapTwitterProfile([]byte(`{"data":{"id":"99","name":"Alice","username":"alice_x","profile_image_url":"https://pbs/p.jpg"}}`))
	require.NoError(t, err)
	require.Equal(t, "99", p.ID)
	require.Equal(t, "alice_x", p.Username)
	require.Equal(t, "Alice", p.DisplayName)
}
