package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/open311-service/internal/domain"
)

// PartyRepository exposes party lookups. Writes are limited to credentials;
// membership changes happen on the request's team array instead.
type PartyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Party, error)
	GetByEmail(ctx context.Context, email string) (*domain.Party, error)
	// ListByJurisdictionZone returns parties working the jurisdiction,
	// narrowed to a zone when one is given.
	ListByJurisdictionZone(ctx context.Context, jurisdictionID string, zone *string) ([]domain.Party, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type partyRepository struct {
	pool *pgxpool.Pool
}

// NewPartyRepository instantiates repository.
func NewPartyRepository(pool *pgxpool.Pool) PartyRepository {
	return &partyRepository{pool: pool}
}

const partyColumns = `id, name, email, phone, password_hash, jurisdiction_id, zone, created_at, updated_at`

func (r *partyRepository) GetByID(ctx context.Context, id string) (*domain.Party, error) {
	const query = `
        SELECT id, name, email, phone, password_hash, jurisdiction_id, zone, created_at, updated_at
        FROM parties WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *partyRepository) GetByEmail(ctx context.Context, email string) (*domain.Party, error) {
	const query = `
        SELECT id, name, email, phone, password_hash, jurisdiction_id, zone, created_at, updated_at
        FROM parties WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *partyRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Party, error) {
	var party domain.Party
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&party.ID,
		&party.Name,
		&party.Email,
		&party.Phone,
		&party.PasswordHash,
		&party.JurisdictionID,
		&party.Zone,
		&party.CreatedAt,
		&party.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *partyRepository) ListByJurisdictionZone(ctx context.Context, jurisdictionID string, zone *string) ([]domain.Party, error) {
	query := `
        SELECT id, name, email, phone, password_hash, jurisdiction_id, zone, created_at, updated_at
        FROM parties WHERE jurisdiction_id=$1`
	args := []any{jurisdictionID}
	if zone != nil {
		args = append(args, *zone)
		query += ` AND zone=$2`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Party
	for rows.Next() {
		var party domain.Party
		if err := rows.Scan(
			&party.ID,
			&party.Name,
			&party.Email,
			&party.Phone,
			&party.PasswordHash,
			&party.JurisdictionID,
			&party.Zone,
			&party.CreatedAt,
			&party.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, party)
	}
	return result, rows.Err()
}

func (r *partyRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE parties SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, passwordHash, id)
	return err
}
