package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Clark-Hu/moviegraph/internal/domain"
	"github.com/Clark-Hu/moviegraph/internal/recommend"
)

type historyEntry struct {
	Title  string   `json:"title" validate:"required"`
	Rating *float64 `json:"rating" validate:"required,gte=0,lte=5"`
}

type recommendationRequest struct {
	History []historyEntry `json:"history" validate:"dive"`
	Limit   int            `json:"limit" validate:"gte=0"`
}

type recommendationItem struct {
	Title         string  `json:"title"`
	Score         float64 `json:"score"`
	MatchCount    int     `json:"matchCount"`
	GenreScore    float64 `json:"genreScore"`
	AverageRating float64 `json:"averageRating"`
}

type recommendationResponse struct {
	Items []recommendationItem `json:"items"`
	Limit int                  `json:"limit"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		s.respondValidationError(w, err)
		return
	}
	if s.cfg.RecommendMaxLimit > 0 && req.Limit > s.cfg.RecommendMaxLimit {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			fmt.Sprintf("limit cannot exceed %d", s.cfg.RecommendMaxLimit))
		return
	}

	history := make([]recommend.Seed, 0, len(req.History))
	for _, h := range req.History {
		history = append(history, recommend.Seed{Title: h.Title, Rating: *h.Rating})
	}

	recs, err := s.engine.Recommend(history, req.Limit)
	if err != nil {
		var unknown *domain.UnknownMovieError
		switch {
		case errors.As(err, &unknown):
			s.respondError(w, http.StatusNotFound, "UNKNOWN_MOVIE", fmt.Sprintf("Unknown movie %q", unknown.Title))
		case errors.Is(err, recommend.ErrDuplicateSeed), errors.Is(err, domain.ErrRatingOutOfRange):
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		default:
			s.logger.Error().Err(err).Msg("recommend failed")
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute recommendations")
		}
		return
	}

	items := make([]recommendationItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, recommendationItem{
			Title:         rec.Title,
			Score:         rec.Score,
			MatchCount:    rec.MatchCount,
			GenreScore:    rec.GenreScore,
			AverageRating: rec.AverageRating,
		})
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.engine.Params().DefaultLimit
	}
	s.respondJSON(w, http.StatusOK, recommendationResponse{Items: items, Limit: limit})
}
