package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/open311-service/internal/domain"
)

// ServiceRepository exposes read-only service catalog lookups.
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	GetByCode(ctx context.Context, code string) (*domain.Service, error)
}

type serviceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository instantiates repository.
func NewServiceRepository(pool *pgxpool.Pool) ServiceRepository {
	return &serviceRepository{pool: pool}
}

func (r *serviceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	const query = `
        SELECT id, code, name, jurisdiction_id, group_id, type_id, priority_id, sla_hours, created_at, updated_at
        FROM services WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *serviceRepository) GetByCode(ctx context.Context, code string) (*domain.Service, error) {
	const query = `
        SELECT id, code, name, jurisdiction_id, group_id, type_id, priority_id, sla_hours, created_at, updated_at
        FROM services WHERE code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *serviceRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Service, error) {
	var svc domain.Service
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&svc.ID,
		&svc.Code,
		&svc.Name,
		&svc.JurisdictionID,
		&svc.GroupID,
		&svc.TypeID,
		&svc.PriorityID,
		&svc.SLAHours,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &svc, nil
}
