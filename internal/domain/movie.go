package domain

import (
	"errors"
	"strings"
)

// GenreDelimiter separates genres inside a single genre field.
const GenreDelimiter = "-"

// ErrInvalidMovie is returned when a movie's title and genres disagree.
var ErrInvalidMovie = errors.New("domain: movie title and genres must both be set")

// Movie is a title together with its genres. The title is the movie's identity.
type Movie struct {
	Title  string
	Genres []string
}

// NewMovie validates that title and genres are either both present or both empty.
func NewMovie(title string, genres []string) (Movie, error) {
	if (title != "") != (len(genres) > 0) {
		return Movie{}, ErrInvalidMovie
	}
	return Movie{Title: title, Genres: genres}, nil
}

// SplitGenres breaks a delimited genre field into its parts.
func SplitGenres(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, GenreDelimiter)
}

// HasGenre reports whether the movie is tagged with genre.
func (m Movie) HasGenre(genre string) bool {
	for _, g := range m.Genres {
		if g == genre {
			return true
		}
	}
	return false
}
