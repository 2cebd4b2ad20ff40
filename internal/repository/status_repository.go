package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/open311-service/internal/domain"
)

// StatusRepository exposes read-only status lookups.
type StatusRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Status, error)
	// FindDefault returns the highest-weight status.
	FindDefault(ctx context.Context) (*domain.Status, error)
}

type statusRepository struct {
	pool *pgxpool.Pool
}

// NewStatusRepository instantiates repository.
func NewStatusRepository(pool *pgxpool.Pool) StatusRepository {
	return &statusRepository{pool: pool}
}

func (r *statusRepository) GetByID(ctx context.Context, id string) (*domain.Status, error) {
	const query = `SELECT id, name, weight, color FROM statuses WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *statusRepository) FindDefault(ctx context.Context) (*domain.Status, error) {
	const query = `SELECT id, name, weight, color FROM statuses ORDER BY weight DESC, name ASC LIMIT 1`
	var status domain.Status
	if err := r.pool.QueryRow(ctx, query).Scan(&status.ID, &status.Name, &status.Weight, &status.Color); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *statusRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Status, error) {
	var status domain.Status
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&status.ID, &status.Name, &status.Weight, &status.Color); err != nil {
		return nil, err
	}
	return &status, nil
}
