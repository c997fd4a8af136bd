package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviegraph/internal/store"
)

// Repository aggregates all table-specific repositories.
type Repository struct {
	Ratings *RatingsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Ratings: &RatingsRepository{pool: pool},
	}
}
