package recommend

import (
	"math"
	"sort"

	"github.com/Clark-Hu/moviegraph/internal/domain"
	"github.com/Clark-Hu/moviegraph/internal/graph"
)

// Engine answers recommendation queries against one graph snapshot. It keeps
// no per-request state and is safe for concurrent use.
type Engine struct {
	graph  *graph.Graph
	params Params
}

// NewEngine returns an engine over g. Zero-valued Neighbors and DefaultLimit
// fall back to their defaults.
func NewEngine(g *graph.Graph, params Params) *Engine {
	return &Engine{graph: g, params: params.withDefaults()}
}

// Graph returns the snapshot the engine reads.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Params returns the engine's tuning.
func (e *Engine) Params() Params {
	return e.params
}

type neighbor struct {
	userID   int
	distance float64
}

// Search runs the neighbor search for one seed movie and folds the results
// into acc.
func (e *Engine) Search(seedTitle string, seedRating float64, acc *Accumulator) error {
	seed, ok := e.graph.Movie(seedTitle)
	if !ok {
		return &domain.UnknownMovieError{Title: seedTitle}
	}

	neighbors := e.nearestRaters(seedTitle, seedRating)

	pool := make(map[string]struct{})
	for _, n := range neighbors {
		for _, r := range e.graph.Ratings(n.userID) {
			if r.Value >= e.params.MovieThreshold && r.MovieTitle != seedTitle {
				pool[r.MovieTitle] = struct{}{}
			}
		}
	}

	for _, n := range neighbors {
		for _, r := range e.graph.Ratings(n.userID) {
			if r.MovieTitle == seedTitle {
				continue
			}
			if _, ok := pool[r.MovieTitle]; !ok {
				continue
			}
			title := r.MovieTitle
			acc.add(title, r.Value, func() float64 {
				candidate, _ := e.graph.Movie(title)
				return e.genreScore(seed, candidate, seedRating)
			})
		}
	}
	return nil
}

// nearestRaters returns up to Params.Neighbors raters of title, closest rating
// first. Equal distances keep the order users first rated the movie.
func (e *Engine) nearestRaters(title string, rating float64) []neighbor {
	raters := e.graph.RatedBy(title)
	candidates := make([]neighbor, 0, len(raters))
	for _, id := range raters {
		r, ok := e.graph.Rating(id, title)
		if !ok {
			continue
		}
		candidates = append(candidates, neighbor{userID: id, distance: math.Abs(r.Value - rating)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > e.params.Neighbors {
		candidates = candidates[:e.params.Neighbors]
	}
	return candidates
}

// genreScore compares the seed's genres with a candidate's. The measure is
// g / (len(seed) + len(candidate) - g), where g counts seed genres the
// candidate shares; it is inverted when the seed was rated below GenreThreshold.
func (e *Engine) genreScore(seed, candidate domain.Movie, seedRating float64) float64 {
	shared := 0
	for _, g := range seed.Genres {
		if candidate.HasGenre(g) {
			shared++
		}
	}
	extra := len(candidate.Genres) - shared
	denom := len(seed.Genres) + extra
	var raw float64
	if denom > 0 {
		raw = float64(shared) / float64(denom)
	}
	if seedRating < e.params.GenreThreshold {
		return 1 - raw
	}
	return raw
}
