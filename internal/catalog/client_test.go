package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
  "result": [
    {
      "title": "Heat",
      "streamingInfo": {"us": {"apple": [{"link": "https://tv.apple.com/heat"}]}},
      "youtubeTrailerVideoLink": "https://youtube.com/watch?v=heat",
      "posterURLs": {"original": "https://img.example/heat.jpg"},
      "imdbRating": 83
    },
    {
      "title": "Heat Wave",
      "streamingInfo": {"us": {"prime": [{"link": "https://prime.example/wave"}]}}
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(Options{
		BaseURL:          srv.URL,
		APIKey:           "key",
		Host:             "catalog.example",
		Timeout:          2 * time.Second,
		FailureThreshold: 2,
		Cooldown:         time.Minute,
		Logger:           zerolog.Nop(),
	})
	require.NoError(t, err)
	return client
}

func TestLookupPicksBestMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/search/title", r.URL.Path)
		assert.Equal(t, "Heat", r.URL.Query().Get("title"))
		assert.Equal(t, "movie", r.URL.Query().Get("show_type"))
		assert.Equal(t, "key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "catalog.example", r.Header.Get("X-RapidAPI-Host"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchFixture))
	})

	links, err := client.Lookup(context.Background(), "Heat")
	require.NoError(t, err)
	assert.Equal(t, "Heat", links.Title)
	assert.Equal(t, "https://tv.apple.com/heat", links.RentLink, "falls back to apple without prime")
	assert.Equal(t, "https://youtube.com/watch?v=heat", links.TrailerLink)
	assert.Equal(t, "https://img.example/heat.jpg", links.PosterLink)
	require.NotNil(t, links.IMDbRating)
	assert.Equal(t, 83, *links.IMDbRating)
}

func TestLookupNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": []}`))
	})
	_, err := client.Lookup(context.Background(), "Nothing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLookupBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 2; i++ {
		_, err := client.Lookup(context.Background(), "Heat")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrUnavailable))
	}

	_, err := client.Lookup(context.Background(), "Heat")
	assert.True(t, errors.Is(err, ErrUnavailable), "err = %v", err)
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not reach upstream")
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	for i := 0; i < 5; i++ {
		_, err := client.Lookup(context.Background(), "Heat")
		assert.True(t, errors.Is(err, ErrNotFound))
	}
}
