package recommend

const (
	DefaultNeighbors        = 10
	DefaultLimit            = 10
	DefaultMovieThreshold   = 4.0
	DefaultScoreThreshold   = 4.0
	DefaultGenreThreshold   = 3.0
	DefaultAdjustmentFactor = 0.5
)

// Params tunes neighbor search and scoring.
type Params struct {
	// Neighbors is how many closest raters of a seed movie are consulted.
	Neighbors int
	// MovieThreshold is the minimum neighbor rating that puts a movie in the candidate pool.
	MovieThreshold float64
	// ScoreThreshold is the average rating above which corroboration raises a score.
	ScoreThreshold float64
	// GenreThreshold is the seed rating below which genre similarity is inverted.
	GenreThreshold float64
	// AdjustmentFactor scales the corroboration adjustment.
	AdjustmentFactor float64
	// DefaultLimit is used when a request does not ask for a result count.
	DefaultLimit int
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		Neighbors:        DefaultNeighbors,
		MovieThreshold:   DefaultMovieThreshold,
		ScoreThreshold:   DefaultScoreThreshold,
		GenreThreshold:   DefaultGenreThreshold,
		AdjustmentFactor: DefaultAdjustmentFactor,
		DefaultLimit:     DefaultLimit,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Neighbors <= 0 {
		p.Neighbors = d.Neighbors
	}
	if p.DefaultLimit <= 0 {
		p.DefaultLimit = d.DefaultLimit
	}
	return p
}
