package domain

import (
	"errors"
	"fmt"
)

const (
	MinRating = 0.0
	MaxRating = 5.0
)

// ErrRatingOutOfRange is returned for rating values outside [MinRating, MaxRating].
var ErrRatingOutOfRange = errors.New("domain: rating out of range")

// User is a rater, identified by ID.
type User struct {
	ID int
}

// Rating represents a single user's rating for a movie. It holds keys to its
// endpoints rather than references; the graph resolves them.
type Rating struct {
	UserID     int
	MovieTitle string
	Value      float64
}

// NewRating builds a Rating after checking the value range.
func NewRating(userID int, title string, value float64) (Rating, error) {
	if err := ValidateRating(value); err != nil {
		return Rating{}, err
	}
	return Rating{UserID: userID, MovieTitle: title, Value: value}, nil
}

// ValidateRating checks that value lies in the inclusive rating range.
func ValidateRating(value float64) error {
	// NaN fails both comparisons, so test for the valid range explicitly.
	if !(value >= MinRating && value <= MaxRating) {
		return fmt.Errorf("%w: %v", ErrRatingOutOfRange, value)
	}
	return nil
}
