package domain

import "fmt"

// UnknownMovieError reports a title that is not present in the rating graph.
type UnknownMovieError struct {
	Title string
}

func (e *UnknownMovieError) Error() string {
	return fmt.Sprintf("unknown movie %q", e.Title)
}
