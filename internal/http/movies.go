package httpserver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Clark-Hu/moviegraph/internal/catalog"
	"github.com/Clark-Hu/moviegraph/internal/graph"
)

type movieListResponse struct {
	Items []string `json:"items"`
	Total int      `json:"total"`
}

type movieResponse struct {
	Title         string   `json:"title"`
	Genres        []string `json:"genres"`
	RatingCount   int      `json:"ratingCount"`
	AverageRating float64  `json:"averageRating"`
}

type movieListFilters struct {
	Query string
	Limit int
}

func buildMovieFilters(query url.Values) (movieListFilters, error) {
	var filters movieListFilters
	filters.Query = strings.TrimSpace(query.Get("q"))
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil || limit < 0 {
			return filters, fmt.Errorf("invalid limit value")
		}
		filters.Limit = limit
	}
	return filters, nil
}

// filterTitles keeps titles containing filters.Query, case-insensitively, up
// to filters.Limit entries when set. It returns the matches and their total
// before truncation.
func filterTitles(titles []string, filters movieListFilters) ([]string, int) {
	matched := titles
	if filters.Query != "" {
		needle := strings.ToLower(filters.Query)
		matched = make([]string, 0, len(titles))
		for _, t := range titles {
			if strings.Contains(strings.ToLower(t), needle) {
				matched = append(matched, t)
			}
		}
	}
	total := len(matched)
	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}
	return matched, total
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	filters, err := buildMovieFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	items, total := filterTitles(s.engine.Graph().MovieTitles(), filters)
	s.respondJSON(w, http.StatusOK, movieListResponse{Items: items, Total: total})
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	title, err := decodeTitleParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	g := s.engine.Graph()
	movie, ok := g.Movie(title)
	if !ok {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	count, avg := ratingSummary(g, title)
	s.respondJSON(w, http.StatusOK, movieResponse{
		Title:         movie.Title,
		Genres:        movie.Genres,
		RatingCount:   count,
		AverageRating: roundToOneDecimal(avg),
	})
}

func (s *Server) handleMovieLinks(w http.ResponseWriter, r *http.Request) {
	title, err := decodeTitleParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if !s.engine.Graph().MovieExists(title) {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	if s.catalog == nil {
		s.respondError(w, http.StatusServiceUnavailable, "CATALOG_DISABLED", "Catalog lookups are not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.CatalogTimeoutSecs)*time.Second)
	defer cancel()

	links, err := s.catalog.Lookup(ctx, title)
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, links)
	case errors.Is(err, catalog.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "No catalog match")
	case errors.Is(err, catalog.ErrUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "Catalog temporarily unavailable")
	default:
		s.logger.Warn().Err(err).Str("title", title).Msg("catalog lookup failed")
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Catalog lookup failed")
	}
}

func ratingSummary(g *graph.Graph, title string) (int, float64) {
	raters := g.RatedBy(title)
	if len(raters) == 0 {
		return 0, 0
	}
	var sum float64
	for _, uid := range raters {
		if rating, ok := g.Rating(uid, title); ok {
			sum += rating.Value
		}
	}
	return len(raters), sum / float64(len(raters))
}

func roundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10.0
}
