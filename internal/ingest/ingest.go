// Package ingest builds a rating graph from a sequence of rating records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviegraph/internal/domain"
	"github.com/Clark-Hu/moviegraph/internal/graph"
	"github.com/Clark-Hu/moviegraph/internal/metrics"
)

// ErrMissingField is wrapped by MalformedRecordError when a required column is empty.
var ErrMissingField = errors.New("missing required field")

// Record is one rating event. Genres holds the raw delimited genre field.
type Record struct {
	Line   int64
	UserID int
	Rating float64
	Title  string
	Genres string
}

// Source yields records in order, calling fn for each. Iteration stops at the
// first error returned by fn, which Each returns unchanged.
type Source interface {
	Each(ctx context.Context, fn func(Record) error) error
}

// MalformedRecordError reports a record that cannot become part of the graph.
type MalformedRecordError struct {
	Line  int64
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at line %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Build reads every record from src and returns the finished graph. Any bad
// record aborts the build and no graph is returned.
func Build(ctx context.Context, src Source, logger zerolog.Logger) (*graph.Graph, error) {
	start := time.Now()
	b := graph.NewBuilder()
	var n int64

	err := src.Each(ctx, func(rec Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := apply(b, rec); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		metrics.IngestFailures.Inc()
		logger.Error().Err(err).Int64("records", n).Msg("ingest: build aborted")
		return nil, err
	}

	g := b.Build()
	stats := g.Stats()
	elapsed := time.Since(start)
	metrics.IngestRecords.Add(float64(n))
	metrics.IngestDuration.Observe(elapsed.Seconds())
	metrics.ObserveGraph(stats.Users, stats.Movies, stats.Ratings)
	logger.Info().
		Int64("records", n).
		Int("users", stats.Users).
		Int("movies", stats.Movies).
		Int("ratings", stats.Ratings).
		Dur("elapsed", elapsed).
		Msg("ingest: rating graph built")
	return g, nil
}

// Validate checks the fields of rec that do not depend on earlier records.
func Validate(rec Record) error {
	if rec.Title == "" {
		return &MalformedRecordError{Line: rec.Line, Field: "title", Err: ErrMissingField}
	}
	if rec.Genres == "" {
		return &MalformedRecordError{Line: rec.Line, Field: "genres", Err: ErrMissingField}
	}
	if err := domain.ValidateRating(rec.Rating); err != nil {
		return &MalformedRecordError{Line: rec.Line, Field: "rating", Err: err}
	}
	return nil
}

func apply(b *graph.Builder, rec Record) error {
	if err := Validate(rec); err != nil {
		return err
	}

	if !b.UserExists(rec.UserID) {
		b.AddUser(domain.User{ID: rec.UserID})
	}
	// Genres are only read the first time a title appears.
	if !b.MovieExists(rec.Title) {
		movie, err := domain.NewMovie(rec.Title, domain.SplitGenres(rec.Genres))
		if err != nil {
			return &MalformedRecordError{Line: rec.Line, Field: "genres", Err: err}
		}
		b.AddMovie(movie)
	}

	rating, err := domain.NewRating(rec.UserID, rec.Title, rec.Rating)
	if err != nil {
		return &MalformedRecordError{Line: rec.Line, Field: "rating", Err: err}
	}
	return b.AddRating(rating)
}

// Records is an in-memory Source.
type Records []Record

// Each implements Source.
func (rs Records) Each(ctx context.Context, fn func(Record) error) error {
	for _, r := range rs {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}
