package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviegraph/internal/ingest"
)

// RatingsRepository reads and bulk-loads the rating_events table.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

var ratingEventColumns = []string{"user_id", "rating", "title", "genres"}

// Each streams every rating event in insertion order. It satisfies
// ingest.Source, with the row id standing in for the line number.
func (r *RatingsRepository) Each(ctx context.Context, fn func(ingest.Record) error) error {
	const query = `
        SELECT id, user_id, rating, title, genres
        FROM rating_events
        ORDER BY id
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("query rating events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec ingest.Record
		if err := rows.Scan(&rec.Line, &rec.UserID, &rec.Rating, &rec.Title, &rec.Genres); err != nil {
			return fmt.Errorf("scan rating event: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rating events: %w", err)
	}
	return nil
}

// Import validates every record from src, then copies them into
// rating_events in one transaction and returns the number of rows written.
// Nothing is written if any record is malformed.
func (r *RatingsRepository) Import(ctx context.Context, src ingest.Source) (int64, error) {
	var rows [][]any
	err := src.Each(ctx, func(rec ingest.Record) error {
		if err := ingest.Validate(rec); err != nil {
			return err
		}
		rows = append(rows, []any{rec.UserID, rec.Rating, rec.Title, rec.Genres})
		return nil
	})
	if err != nil {
		return 0, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"rating_events"}, ratingEventColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy rating events: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return n, nil
}

// Count returns the number of stored rating events.
func (r *RatingsRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM rating_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rating events: %w", err)
	}
	return n, nil
}
