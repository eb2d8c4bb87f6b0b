package geodata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const datasetJSON = `[
  {
    "state": "Kano",
    "lgas": [
      {
        "name": "Kano",
        "wards": [
          {"name": "Fagge", "latitude": 12.0022, "longitude": 8.5287},
          {"name": "Dala", "latitude": 12.05, "longitude": 8.51}
        ]
      }
    ]
  },
  {
    "state": "Borno",
    "lgas": [
      {"name": "Maiduguri", "latitude": 11.8333, "longitude": 13.15, "wards": []}
    ]
  },
  {
    "state": "Oyo",
    "lgas": [
      {"name": "Ibadan North", "wards": [{"name": "Agodi"}]}
    ]
  }
]`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, discardLogger())
}

func TestClient_Lookup_FirstWardWins(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(datasetJSON))
	})

	coord, found, err := c.Lookup(context.Background(), "kano")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 12.0022, coord.Lat)
	assert.Equal(t, 8.5287, coord.Lon)
}

func TestClient_Lookup_LGALevelFallback(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(datasetJSON))
	})

	coord, found, err := c.Lookup(context.Background(), "Maiduguri")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 11.8333, coord.Lat)
	assert.Equal(t, 13.15, coord.Lon)
}

func TestClient_Lookup_CaseInsensitive(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(datasetJSON))
	})

	_, found, err := c.Lookup(context.Background(), "  MAIDUGURI ")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestClient_Lookup_WardWithoutCoordinates(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(datasetJSON))
	})

	// Ibadan North's only ward carries no coordinates and the LGA has none
	// either, so the dataset cannot answer.
	_, found, err := c.Lookup(context.Background(), "ibadan north")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_Lookup_NoMatch(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(datasetJSON))
	})

	_, found, err := c.Lookup(context.Background(), "atlantis")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_Lookup_UpstreamError(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, _, err := c.Lookup(context.Background(), "kano")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_Lookup_MalformedPayload(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	})

	_, _, err := c.Lookup(context.Background(), "kano")
	require.Error(t, err)
}

func TestClient_Lookup_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, 50*time.Millisecond, discardLogger())
	_, _, err := c.Lookup(context.Background(), "kano")
	require.Error(t, err)
}
