package recommend

// Candidate holds the running statistics for one candidate movie.
type Candidate struct {
	MatchCount int
	GenreScore float64
	RatingSum  float64
}

// Accumulator collects candidate statistics across the searches of one
// request. Entries keep the order in which candidates first appeared.
type Accumulator struct {
	entries map[string]*Candidate
	order   []string
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{entries: make(map[string]*Candidate)}
}

// Len returns the number of candidates.
func (a *Accumulator) Len() int {
	return len(a.order)
}

// Get returns the entry for title.
func (a *Accumulator) Get(title string) (Candidate, bool) {
	c, ok := a.entries[title]
	if !ok {
		return Candidate{}, false
	}
	return *c, true
}

// Titles returns candidate titles in first-appearance order.
func (a *Accumulator) Titles() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// add records one neighbor rating for title. genreScore is only evaluated on
// the first appearance of title.
func (a *Accumulator) add(title string, rating float64, genreScore func() float64) {
	if c, ok := a.entries[title]; ok {
		c.MatchCount++
		c.RatingSum += rating
		return
	}
	a.entries[title] = &Candidate{MatchCount: 1, GenreScore: genreScore(), RatingSum: rating}
	a.order = append(a.order, title)
}
