// Package catalog looks up where a movie can be watched, using a
// streaming-availability search API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Clark-Hu/moviegraph/internal/metrics"
)

var (
	// ErrNotFound is returned when upstream has no result for the title.
	ErrNotFound = errors.New("catalog: not found")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("catalog: unavailable")
)

// rentProviders are checked in order for a rent or stream link.
var rentProviders = []string{"prime", "apple", "hbo", "hulu"}

// Links is the display bundle for one title.
type Links struct {
	Title       string `json:"title"`
	RentLink    string `json:"rentLink,omitempty"`
	TrailerLink string `json:"trailerLink,omitempty"`
	PosterLink  string `json:"posterLink,omitempty"`
	IMDbRating  *int   `json:"imdbRating,omitempty"`
}

// Client resolves a free-text title to its best catalog match.
type Client interface {
	Lookup(ctx context.Context, title string) (*Links, error)
}

// Options configures an HTTPClient.
type Options struct {
	BaseURL          string
	APIKey           string
	Host             string
	Country          string
	Timeout          time.Duration
	FailureThreshold uint32
	Cooldown         time.Duration
	Logger           zerolog.Logger
}

// HTTPClient implements Client over HTTP behind a circuit breaker.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	host    string
	country string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Links]
	logger  zerolog.Logger
}

// NewHTTPClient constructs a catalog client.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if opts.Country == "" {
		opts.Country = "us"
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	logger := opts.Logger.With().Str("component", "catalog").Logger()

	c := &HTTPClient{
		baseURL: parsed,
		apiKey:  opts.APIKey,
		host:    opts.Host,
		country: opts.Country,
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   opts.Timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   opts.Timeout,
				ResponseHeaderTimeout: opts.Timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}

	threshold := opts.FailureThreshold
	c.breaker = gobreaker.NewCircuitBreaker[*Links](gobreaker.Settings{
		Name:    "catalog",
		Timeout: opts.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			if to == gobreaker.StateOpen {
				metrics.CatalogBreakerOpen.Set(1)
			} else {
				metrics.CatalogBreakerOpen.Set(0)
			}
		},
	})
	return c, nil
}

// Lookup searches for title and returns links for the closest match.
func (c *HTTPClient) Lookup(ctx context.Context, title string) (*Links, error) {
	links, err := c.breaker.Execute(func() (*Links, error) {
		return c.lookup(ctx, title)
	})
	switch {
	case err == nil:
		metrics.CatalogLookups.WithLabelValues("ok").Inc()
		return links, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CatalogLookups.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, ErrNotFound):
		metrics.CatalogLookups.WithLabelValues("not_found").Inc()
		return nil, err
	default:
		metrics.CatalogLookups.WithLabelValues("error").Inc()
		return nil, err
	}
}

func (c *HTTPClient) lookup(ctx context.Context, title string) (*Links, error) {
	rel := &url.URL{Path: c.baseURL.Path + "/v2/search/title"}
	q := rel.Query()
	q.Set("title", title)
	q.Set("country", c.country)
	q.Set("show_type", "movie")
	q.Set("output_language", "en")
	rel.RawQuery = q.Encode()
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	if c.host != "" {
		req.Header.Set("X-RapidAPI-Host", c.host)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload searchResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode catalog response: %w", err)
		}
		return pickLinks(title, payload, c.country)
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Warn().Int("status", resp.StatusCode).Str("title", title).Msg("unexpected upstream status")
		return nil, fmt.Errorf("catalog: upstream returned %d", resp.StatusCode)
	}
}

type searchResponse struct {
	Result []show `json:"result"`
}

type show struct {
	Title         string                              `json:"title"`
	StreamingInfo map[string]map[string][]streamOffer `json:"streamingInfo"`
	Trailer       string                              `json:"youtubeTrailerVideoLink"`
	PosterURLs    map[string]string                   `json:"posterURLs"`
	IMDbRating    *int                                `json:"imdbRating"`
}

type streamOffer struct {
	Link string `json:"link"`
}

func pickLinks(query string, payload searchResponse, country string) (*Links, error) {
	titles := make([]string, 0, len(payload.Result))
	for _, s := range payload.Result {
		titles = append(titles, s.Title)
	}
	best, ok := BestTitle(query, titles)
	if !ok {
		return nil, ErrNotFound
	}

	links := &Links{Title: best}
	for _, s := range payload.Result {
		if s.Title != best {
			continue
		}
		links.RentLink = rentLink(s.StreamingInfo[country])
		links.TrailerLink = s.Trailer
		links.PosterLink = s.PosterURLs["original"]
		links.IMDbRating = s.IMDbRating
		break
	}
	return links, nil
}

func rentLink(offers map[string][]streamOffer) string {
	for _, provider := range rentProviders {
		if list := offers[provider]; len(list) > 0 && list[0].Link != "" {
			return list[0].Link
		}
	}
	return ""
}
