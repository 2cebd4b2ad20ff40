package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/open311-service/internal/domain"
)

// PriorityRepository exposes read-only priority lookups.
type PriorityRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Priority, error)
	// FindDefault returns the highest-weight priority.
	FindDefault(ctx context.Context) (*domain.Priority, error)
}

type priorityRepository struct {
	pool *pgxpool.Pool
}

// NewPriorityRepository instantiates repository.
func NewPriorityRepository(pool *pgxpool.Pool) PriorityRepository {
	return &priorityRepository{pool: pool}
}

func (r *priorityRepository) GetByID(ctx context.Context, id string) (*domain.Priority, error) {
	const query = `SELECT id, name, weight, color FROM priorities WHERE id=$1`
	var priority domain.Priority
	if err := r.pool.QueryRow(ctx, query, id).Scan(&priority.ID, &priority.Name, &priority.Weight, &priority.Color); err != nil {
		return nil, err
	}
	return &priority, nil
}

func (r *priorityRepository) FindDefault(ctx context.Context) (*domain.Priority, error) {
	const query = `SELECT id, name, weight, color FROM priorities ORDER BY weight DESC, name ASC LIMIT 1`
	var priority domain.Priority
	if err := r.pool.QueryRow(ctx, query).Scan(&priority.ID, &priority.Name, &priority.Weight, &priority.Color); err != nil {
		return nil, err
	}
	return &priority, nil
}
