package httpserver

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/moviegraph/internal/catalog"
	"github.com/Clark-Hu/moviegraph/internal/config"
	"github.com/Clark-Hu/moviegraph/internal/ingest"
	"github.com/Clark-Hu/moviegraph/internal/recommend"
)

// fakeCatalog returns canned links or an error.
type fakeCatalog struct {
	links *catalog.Links
	err   error
}

func (f fakeCatalog) Lookup(ctx context.Context, title string) (*catalog.Links, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.links, nil
}

func testRecords() ingest.Records {
	const genres = "Action-Thriller"
	return ingest.Records{
		{Line: 2, UserID: 1, Rating: 5.0, Title: "A", Genres: genres},
		{Line: 3, UserID: 2, Rating: 4.5, Title: "A", Genres: genres},
		{Line: 4, UserID: 3, Rating: 5.0, Title: "A", Genres: genres},
		{Line: 5, UserID: 1, Rating: 5.0, Title: "B", Genres: genres},
		{Line: 6, UserID: 2, Rating: 4.8, Title: "B", Genres: genres},
		{Line: 7, UserID: 3, Rating: 4.9, Title: "B", Genres: genres},
		{Line: 8, UserID: 3, Rating: 2.0, Title: "The Heat", Genres: "Comedy"},
	}
}

func buildTestServer(tb testing.TB, cat catalog.Client) *Server {
	tb.Helper()
	cfg := config.Config{
		Port:                  "0",
		ReadTimeoutSecs:       15,
		WriteTimeoutSecs:      15,
		IdleTimeoutSecs:       60,
		CatalogTimeoutSecs:    1,
		CORSOrigins:           "*",
		RecommendDefaultLimit: 10,
		RecommendMaxLimit:     50,
	}

	g, err := ingest.Build(context.Background(), testRecords(), zerolog.Nop())
	require.NoError(tb, err)
	engine := recommend.NewEngine(g, recommend.DefaultParams())
	return New(cfg, nil, engine, cat, zerolog.Nop())
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != "" {
		payload = bytes.NewBufferString(body)
	} else {
		payload = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, payload)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestHealthz(t *testing.T) {
	srv := buildTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, healthResponse{Status: "ok", Movies: 3, Users: 3, Ratings: 7}, resp)
}

func TestHandleListMovies(t *testing.T) {
	srv := buildTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/movies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp movieListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"A", "B", "The Heat"}, resp.Items)
	assert.Equal(t, 3, resp.Total)

	rec = doRequest(t, srv, http.MethodGet, "/movies?q=heat", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"The Heat"}, resp.Items)

	rec = doRequest(t, srv, http.MethodGet, "/movies?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Code)
}

func TestHandleGetMovie(t *testing.T) {
	srv := buildTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/movies/"+url.PathEscape("The Heat"), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp movieResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, movieResponse{Title: "The Heat", Genres: []string{"Comedy"}, RatingCount: 1, AverageRating: 2}, resp)

	rec = doRequest(t, srv, http.MethodGet, "/movies/B", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.RatingCount)
	assert.InDelta(t, 4.9, resp.AverageRating, 1e-9)

	rec = doRequest(t, srv, http.MethodGet, "/movies/Nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestHandleMovieLinks(t *testing.T) {
	rating := 71
	links := &catalog.Links{Title: "B", RentLink: "https://prime.example/b", IMDbRating: &rating}

	tests := []struct {
		name   string
		cat    catalog.Client
		title  string
		status int
		code   string
	}{
		{"found", fakeCatalog{links: links}, "B", http.StatusOK, ""},
		{"unknown title", fakeCatalog{links: links}, "Nope", http.StatusNotFound, "NOT_FOUND"},
		{"no match", fakeCatalog{err: catalog.ErrNotFound}, "B", http.StatusNotFound, "NOT_FOUND"},
		{"breaker open", fakeCatalog{err: catalog.ErrUnavailable}, "B", http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE"},
		{"disabled", nil, "B", http.StatusServiceUnavailable, "CATALOG_DISABLED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := buildTestServer(t, tt.cat)
			rec := doRequest(t, srv, http.MethodGet, "/movies/"+tt.title+"/links", "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, rec).Code)
				return
			}
			var got catalog.Links
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, *links, got)
		})
	}
}

func TestHandleRecommend(t *testing.T) {
	srv := buildTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/recommendations", `{"history":[{"title":"A","rating":5}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp recommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	item := resp.Items[0]
	assert.Equal(t, "B", item.Title)
	assert.Equal(t, 3, item.MatchCount)
	assert.Equal(t, 1.0, item.GenreScore)
	assert.InDelta(t, 4.9, item.AverageRating, 1e-9)
	assert.InDelta(t, 6.25, item.Score, 1e-9)
}

func TestHandleRecommendErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"unknown movie", `{"history":[{"title":"Nope","rating":4}]}`, http.StatusNotFound, "UNKNOWN_MOVIE"},
		{"rating too high", `{"history":[{"title":"A","rating":6}]}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"missing rating", `{"history":[{"title":"A"}]}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"missing title", `{"history":[{"rating":4}]}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"duplicate seed", `{"history":[{"title":"A","rating":4},{"title":"A","rating":3}]}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"negative limit", `{"history":[],"limit":-1}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"limit above max", `{"history":[],"limit":51}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"wrong type", `{"history":"A"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := buildTestServer(t, nil)
			rec := doRequest(t, srv, http.MethodPost, "/recommendations", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestHandleRecommendEmptyHistory(t *testing.T) {
	srv := buildTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodPost, "/recommendations", `{"history":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"limit":10}`, rec.Body.String())
}

func TestValidationDetailsUseJSONNames(t *testing.T) {
	srv := buildTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodPost, "/recommendations", `{"history":[{"title":"A","rating":7}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, map[string]string{"history[0].rating": "lte=5"}, resp.Details)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := buildTestServer(t, nil)
	doRequest(t, srv, http.MethodGet, "/healthz", "")

	rec := doRequest(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moviegraph_http_requests_total")
}

func TestRateLimit(t *testing.T) {
	srv := buildTestServer(t, nil)
	srv.cfg.RateLimitRequests = 2
	srv.cfg.RateLimitWindowSecs = 60
	srv = New(srv.cfg, nil, srv.engine, nil, zerolog.Nop())

	for i := 0; i < 2; i++ {
		rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)
}

func TestHandlerWithoutMiddleware(t *testing.T) {
	srv := buildTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/movies/A", nil)
	req = attachTitleParam(req, "A")
	rec := httptest.NewRecorder()

	srv.handleGetMovie(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func attachTitleParam(req *http.Request, title string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("title", title)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func TestHandleGetMovieEscapedTitles(t *testing.T) {
	titles := []string{"100% Wolf", "Face/Off", "Code%41"}
	var records ingest.Records
	for i, title := range titles {
		records = append(records, ingest.Record{Line: int64(i + 2), UserID: 1, Rating: 4, Title: title, Genres: "Comedy"})
	}
	g, err := ingest.Build(context.Background(), records, zerolog.Nop())
	require.NoError(t, err)
	srv := New(config.Config{CatalogTimeoutSecs: 1}, nil, recommend.NewEngine(g, recommend.DefaultParams()), nil, zerolog.Nop())

	for _, title := range titles {
		rec := doRequest(t, srv, http.MethodGet, "/movies/"+url.PathEscape(title), "")
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", title, rec.Body.String())
		var resp movieResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, title, resp.Title)
	}

	rec := doRequest(t, srv, http.MethodGet, "/movies/CodeA", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRecommendEchoesLimit(t *testing.T) {
	srv := buildTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/recommendations", `{"history":[{"title":"A","rating":5}],"limit":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp recommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Limit)

	rec = doRequest(t, srv, http.MethodPost, "/recommendations", `{"history":[{"title":"A","rating":5}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, recommend.DefaultLimit, resp.Limit)
}
