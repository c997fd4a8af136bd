// Package recommend turns a short watch history into ranked movie
// suggestions by consulting the users whose ratings sit closest to the
// caller's.
package recommend

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Clark-Hu/moviegraph/internal/domain"
	"github.com/Clark-Hu/moviegraph/internal/metrics"
)

// ErrDuplicateSeed is returned when a history names the same title twice.
var ErrDuplicateSeed = errors.New("recommend: duplicate title in history")

// Seed is one entry of a watch history.
type Seed struct {
	Title  string
	Rating float64
}

// Recommendation is a scored candidate.
type Recommendation struct {
	Title         string
	Score         float64
	MatchCount    int
	GenreScore    float64
	AverageRating float64
}

// FromMap converts a title to rating map into a history ordered by title.
func FromMap(history map[string]float64) []Seed {
	seeds := make([]Seed, 0, len(history))
	for title, rating := range history {
		seeds = append(seeds, Seed{Title: title, Rating: rating})
	}
	sort.Slice(seeds, func(i, j int) bool { return seeds[i].Title < seeds[j].Title })
	return seeds
}

// Recommend searches around every seed in history and returns the best
// candidates, highest score first. limit <= 0 selects Params.DefaultLimit.
//
// When a candidate is reached from several seeds, its genre score comes from
// the first seed in history that reached it.
func (e *Engine) Recommend(history []Seed, limit int) ([]Recommendation, error) {
	start := time.Now()
	recs, err := e.recommend(history, limit)
	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		metrics.RecommendRequests.WithLabelValues("ok").Inc()
	case errors.As(err, new(*domain.UnknownMovieError)):
		metrics.RecommendRequests.WithLabelValues("unknown_movie").Inc()
	default:
		metrics.RecommendRequests.WithLabelValues("invalid").Inc()
	}
	return recs, err
}

func (e *Engine) recommend(history []Seed, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = e.params.DefaultLimit
	}
	if err := validateHistory(history); err != nil {
		return nil, err
	}

	acc := NewAccumulator()
	for _, s := range history {
		if err := e.Search(s.Title, s.Rating, acc); err != nil {
			return nil, err
		}
	}
	metrics.RecommendCandidates.Observe(float64(acc.Len()))

	recs := e.Rank(acc)
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Rank scores every candidate in acc and orders them by descending score.
// Ties keep the accumulator's first-appearance order.
func (e *Engine) Rank(acc *Accumulator) []Recommendation {
	recs := make([]Recommendation, 0, acc.Len())
	for _, title := range acc.order {
		c := acc.entries[title]
		avg := c.RatingSum / float64(c.MatchCount)
		adjusted := (avg-e.params.ScoreThreshold)*float64(c.MatchCount)*e.params.AdjustmentFactor + avg
		recs = append(recs, Recommendation{
			Title:         title,
			Score:         adjusted * c.GenreScore,
			MatchCount:    c.MatchCount,
			GenreScore:    c.GenreScore,
			AverageRating: avg,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	return recs
}

func validateHistory(history []Seed) error {
	seen := make(map[string]struct{}, len(history))
	for _, s := range history {
		if _, dup := seen[s.Title]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateSeed, s.Title)
		}
		seen[s.Title] = struct{}{}
		if err := domain.ValidateRating(s.Rating); err != nil {
			return fmt.Errorf("seed %q: %w", s.Title, err)
		}
	}
	return nil
}
