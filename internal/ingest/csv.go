package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column layout: an ignored index, then user id, rating, title and genres.
const (
	colUserID = 1
	colRating = 2
	colTitle  = 3
	colGenres = 4
	numCols   = 5
)

// CSVSource reads rating records from CSV.
type CSVSource struct {
	r         io.Reader
	hasHeader bool
}

// NewCSVSource reads records from r. The first row is treated as a header
// when hasHeader is set.
func NewCSVSource(r io.Reader, hasHeader bool) *CSVSource {
	return &CSVSource{r: r, hasHeader: hasHeader}
}

// OpenCSV opens a CSV file with a header row. The caller closes the returned Closer.
func OpenCSV(path string) (*CSVSource, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open ratings file: %w", err)
	}
	return NewCSVSource(f, true), f, nil
}

// Each implements Source.
func (s *CSVSource) Each(ctx context.Context, fn func(Record) error) error {
	reader := csv.NewReader(s.r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	if s.hasHeader {
		if _, err := reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read header: %w", err)
		}
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return &MalformedRecordError{Line: int64(parseErr.Line), Field: "record", Err: parseErr.Err}
			}
			return fmt.Errorf("read ratings: %w", err)
		}
		line, _ := reader.FieldPos(0)

		rec, err := parseRow(int64(line), row)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func parseRow(line int64, row []string) (Record, error) {
	if len(row) < numCols {
		return Record{}, &MalformedRecordError{
			Line:  line,
			Field: "record",
			Err:   fmt.Errorf("%w: want %d columns, got %d", ErrMissingField, numCols, len(row)),
		}
	}

	rawUser := strings.TrimSpace(row[colUserID])
	if rawUser == "" {
		return Record{}, &MalformedRecordError{Line: line, Field: "user_id", Err: ErrMissingField}
	}
	userID, err := strconv.Atoi(rawUser)
	if err != nil {
		return Record{}, &MalformedRecordError{Line: line, Field: "user_id", Err: err}
	}

	rawRating := strings.TrimSpace(row[colRating])
	if rawRating == "" {
		return Record{}, &MalformedRecordError{Line: line, Field: "rating", Err: ErrMissingField}
	}
	rating, err := strconv.ParseFloat(rawRating, 64)
	if err != nil {
		return Record{}, &MalformedRecordError{Line: line, Field: "rating", Err: err}
	}

	return Record{
		Line:   line,
		UserID: userID,
		Rating: rating,
		Title:  row[colTitle],
		Genres: row[colGenres],
	}, nil
}
