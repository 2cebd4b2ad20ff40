package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/open311-service/internal/domain"
)

// CounterRepository allocates per-scope ticket sequences.
type CounterRepository interface {
	// NextSequence atomically increments (creating on first use) the counter
	// for the scope key and returns the post-increment row. No two
	// concurrent calls for the same key ever observe the same value.
	NextSequence(ctx context.Context, jurisdiction, service string, year int) (*domain.Counter, error)
}

type counterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository instantiates repository.
func NewCounterRepository(pool *pgxpool.Pool) CounterRepository {
	return &counterRepository{pool: pool}
}

func (r *counterRepository) NextSequence(ctx context.Context, jurisdiction, service string, year int) (*domain.Counter, error) {
	const query = `
        INSERT INTO counters (jurisdiction, service, year, sequence, updated_at)
        VALUES ($1,$2,$3,1,NOW())
        ON CONFLICT (jurisdiction, service, year)
        DO UPDATE SET sequence = counters.sequence + 1, updated_at = NOW()
        RETURNING jurisdiction, service, year, sequence, updated_at`
	counter := &domain.Counter{}
	if err := r.pool.QueryRow(ctx, query, jurisdiction, service, year).Scan(
		&counter.Jurisdiction,
		&counter.Service,
		&counter.Year,
		&counter.Sequence,
		&counter.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return counter, nil
}
