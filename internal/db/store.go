package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store combines both repositories over one pool. It implements
// scheduler.Store and owns the pool.
type Store struct {
	*TemplateRepository
	*ScheduleRepository

	pool *pgxpool.Pool
}

// NewStore wraps pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		TemplateRepository: NewTemplateRepository(pool),
		ScheduleRepository: NewScheduleRepository(pool),
		pool:               pool,
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
