package catalog

import (
	"sort"
	"strings"
	"unicode"
)

// fillerWords carry no weight when breaking ties between equally similar titles.
var fillerWords = map[string]struct{}{"and": {}, "the": {}, "or": {}, "&": {}}

// normalizeWord lower-cases w and drops everything but letters, digits and '&'.
func normalizeWord(w string) string {
	var sb strings.Builder
	for _, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '&' {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

func words(title string) []string {
	fields := strings.Fields(title)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := normalizeWord(f); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func contains(list []string, w string) bool {
	for _, x := range list {
		if x == w {
			return true
		}
	}
	return false
}

// similarity scores how well candidate matches query: shared words over
// the query's word count plus the candidate's unmatched words.
func similarity(query, candidate string) float64 {
	orig := words(query)
	cand := words(candidate)
	shared := 0
	for _, w := range orig {
		if contains(cand, w) {
			shared++
		}
	}
	denom := len(orig) + len(cand) - shared
	if denom <= 0 {
		return 0
	}
	return float64(shared) / float64(denom)
}

// significantMatches counts candidate words, other than filler, that appear in query.
func significantMatches(query, candidate string) int {
	orig := words(query)
	n := 0
	for _, w := range words(candidate) {
		if _, filler := fillerWords[w]; filler {
			continue
		}
		if contains(orig, w) {
			n++
		}
	}
	return n
}

// BestTitle picks the candidate most similar to query. Candidates tied on
// similarity are separated by significantMatches; remaining ties go to the
// earliest candidate.
func BestTitle(query string, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	type scored struct {
		title string
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{title: c, score: similarity(query, c)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	best, bestMatches := ranked[0].title, significantMatches(query, ranked[0].title)
	for _, r := range ranked[1:] {
		if r.score != ranked[0].score {
			break
		}
		// Strictly greater, so a full tie keeps the earliest result rather than the last.
		if m := significantMatches(query, r.title); m > bestMatches {
			best, bestMatches = r.title, m
		}
	}
	return best, true
}
