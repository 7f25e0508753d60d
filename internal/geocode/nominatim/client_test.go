package nominatim_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airchat/airchat/internal/geocode/nominatim"
)

const searchBody = `[
  {"lat": "37.3361663", "lon": "-121.890591", "display_name": "San Jose, Santa Clara County, California, United States"}
]`

func newTestClient(t *testing.T, handler http.Handler) *nominatim.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})
}

func TestClient_Geocode(t *testing.T) {
	var gotQuery, gotAgent string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))

	loc, err := client.Geocode(context.Background(), "San Jose, CA")
	require.NoError(t, err)

	assert.Equal(t, "San Jose, CA", gotQuery)
	assert.NotEmpty(t, gotAgent, "Nominatim usage policy requires a User-Agent")
	assert.InDelta(t, 37.3361663, loc.Lat, 1e-9)
	assert.InDelta(t, -121.890591, loc.Lon, 1e-9)
	assert.Contains(t, loc.DisplayName, "San Jose")
}

func TestClient_GeocodeNoResults(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))

	_, err := client.Geocode(context.Background(), "Nowhereville, ZZ")
	assert.ErrorIs(t, err, nominatim.ErrNotFound)
}

func TestClient_GeocodeUpstreamError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.Geocode(context.Background(), "San Jose, CA")
	assert.ErrorIs(t, err, nominatim.ErrProviderUnavailable)
}
