package risk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castward/castlink/internal/store/memory"
)

type failingClient struct{}

func (failingClient) Lookup(context.Context, string) (*Reputation, error) {
	return nil, errors.New("reputation service down")
}

func TestTrack_NeutralOnLookupFailure(t *testing.T) {
	store := memory.New()
	tr := NewTracker(failingClient{}, store)

	rec, err := tr.Track(context.Background(), "acc-1", "9.9.9.9", "ua", "chat")
	require.NoError(t, err, "a broken lookup must not fail intake")
	require.False(t, rec.Proxy)
	require.False(t, rec.VPN)
	require.Zero(t, rec.RiskScore)
	require.Equal(t, "9.9.9.9", rec.IP)

	out, err := store.ListByIdentity(context.Background(), "acc-1", 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestTrack_NilClientRecordsNeutral(t *testing.T) {
	store := memory.New()
	tr := NewTracker(nil, store)

	rec, err := tr.Track(context.Background(), "acc-1", "9.9.9.9", "ua", "chat")
	require.NoError(t, err)
	require.False(t, rec.Proxy)
}

func TestHTTPReputationClient_ParsesPerIPEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/9.9.9.9", r.URL.Path)
		require.Equal(t, "k1", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"9.9.9.9": {"proxy": "yes", "type": "VPN", "risk": 66, "country": "Netherlands", "isocode": "NL"}
		}`))
	}))
	defer srv.Close()

	rep, err := NewHTTPReputationClient(srv.URL, "k1").Lookup(context.Background(), "9.9.9.9")
	require.NoError(t, err)
	require.True(t, rep.Proxy)
	require.True(t, rep.VPN)
	require.False(t, rep.Tor)
	require.Equal(t, 66, rep.RiskScore)
	require.Equal(t, "NL", rep.CountryCode)
}

func TestHTTPReputationClient_DeniedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "denied", "message": "bad key"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPReputationClient(srv.URL, "bad").Lookup(context.Background(), "9.9.9.9")
	require.Error(t, err)
}
