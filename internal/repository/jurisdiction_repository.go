package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/open311-service/internal/domain"
)

// JurisdictionRepository exposes read-only jurisdiction lookups.
type JurisdictionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Jurisdiction, error)
	GetByCode(ctx context.Context, code string) (*domain.Jurisdiction, error)
}

type jurisdictionRepository struct {
	pool *pgxpool.Pool
}

// NewJurisdictionRepository instantiates repository.
func NewJurisdictionRepository(pool *pgxpool.Pool) JurisdictionRepository {
	return &jurisdictionRepository{pool: pool}
}

func (r *jurisdictionRepository) GetByID(ctx context.Context, id string) (*domain.Jurisdiction, error) {
	const query = `
        SELECT id, code, name, phone, email, created_at, updated_at
        FROM jurisdictions WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *jurisdictionRepository) GetByCode(ctx context.Context, code string) (*domain.Jurisdiction, error) {
	const query = `
        SELECT id, code, name, phone, email, created_at, updated_at
        FROM jurisdictions WHERE code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *jurisdictionRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Jurisdiction, error) {
	var jurisdiction domain.Jurisdiction
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&jurisdiction.ID,
		&jurisdiction.Code,
		&jurisdiction.Name,
		&jurisdiction.Phone,
		&jurisdiction.Email,
		&jurisdiction.CreatedAt,
		&jurisdiction.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &jurisdiction, nil
}
