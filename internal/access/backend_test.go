package access

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBackendClient_CatalogAndCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "k1", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/authz/features":
			_, _ = w.Write([]byte(`{"features":["emotes","polls"]}`))
		case "/authz/features/emotes/check":
			require.Equal(t, "secondary:42", r.URL.Query().Get("identity"))
			_, _ = w.Write([]byte(`{"allowed":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL, "k1")

	features, err := c.Catalog(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"emotes", "polls"}, features)

	allowed, err := c.Check(context.Background(), "secondary:42", "emotes")
	require.NoError(t, err)
	require.True(t, allowed)

	_, err = c.Check(context.Background(), "secondary:42", "missing")
	require.Error(t, err)
}
