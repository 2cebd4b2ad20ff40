package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/open311-service/internal/domain"
)

// LastRecorded carries the most recent changelog value per tracked field.
type LastRecorded struct {
	Exists     bool
	StatusID   *string
	PriorityID *string
	AssigneeID *string
}

// ChangeLogRepository stores the append-only audit trail. Entries are never
// updated or deleted.
type ChangeLogRepository interface {
	Create(ctx context.Context, entry *domain.ChangeLog) error
	ListByRequest(ctx context.Context, requestID string, publicOnly bool) ([]domain.ChangeLog, error)
	LastRecorded(ctx context.Context, requestID string) (LastRecorded, error)
}

type changeLogRepository struct {
	pool *pgxpool.Pool
}

// NewChangeLogRepository builds repository.
func NewChangeLogRepository(pool *pgxpool.Pool) ChangeLogRepository {
	return &changeLogRepository{pool: pool}
}

func (r *changeLogRepository) Create(ctx context.Context, entry *domain.ChangeLog) error {
	const query = `
        INSERT INTO changelogs (request_id, changer_id, status_id, priority_id, assignee_id,
            comment, visibility, zone, item, image, audio, video, document, location,
            assigned_at, attended_at, completed_at, verified_at, approved_at, resolved_at, reopened_at,
            jurisdiction_id, group_id, type_id, service_id, confirmed_at, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		entry.RequestID,
		entry.ChangerID,
		entry.StatusID,
		entry.PriorityID,
		entry.AssigneeID,
		entry.Comment,
		entry.Visibility,
		entry.Zone,
		entry.Item,
		entry.Image,
		entry.Audio,
		entry.Video,
		entry.Document,
		entry.Location,
		entry.AssignedAt,
		entry.AttendedAt,
		entry.CompletedAt,
		entry.VerifiedAt,
		entry.ApprovedAt,
		entry.ResolvedAt,
		entry.ReopenedAt,
		entry.JurisdictionID,
		entry.GroupID,
		entry.TypeID,
		entry.ServiceID,
		entry.ConfirmedAt,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *changeLogRepository) ListByRequest(ctx context.Context, requestID string, publicOnly bool) ([]domain.ChangeLog, error) {
	query := `
        SELECT id, request_id, changer_id, status_id, priority_id, assignee_id,
               comment, visibility, zone, item, image, audio, video, document, location,
               assigned_at, attended_at, completed_at, verified_at, approved_at, resolved_at, reopened_at,
               jurisdiction_id, group_id, type_id, service_id, confirmed_at, created_at
        FROM changelogs WHERE request_id=$1`
	if publicOnly {
		query += ` AND visibility='PUBLIC'`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChangeLog
	for rows.Next() {
		var entry domain.ChangeLog
		if err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.ChangerID,
			&entry.StatusID,
			&entry.PriorityID,
			&entry.AssigneeID,
			&entry.Comment,
			&entry.Visibility,
			&entry.Zone,
			&entry.Item,
			&entry.Image,
			&entry.Audio,
			&entry.Video,
			&entry.Document,
			&entry.Location,
			&entry.AssignedAt,
			&entry.AttendedAt,
			&entry.CompletedAt,
			&entry.VerifiedAt,
			&entry.ApprovedAt,
			&entry.ResolvedAt,
			&entry.ReopenedAt,
			&entry.JurisdictionID,
			&entry.GroupID,
			&entry.TypeID,
			&entry.ServiceID,
			&entry.ConfirmedAt,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *changeLogRepository) LastRecorded(ctx context.Context, requestID string) (LastRecorded, error) {
	const query = `
        SELECT
            EXISTS (SELECT 1 FROM changelogs WHERE request_id=$1),
            (SELECT status_id FROM changelogs
                WHERE request_id=$1 AND status_id IS NOT NULL
                ORDER BY created_at DESC, id DESC LIMIT 1),
            (SELECT priority_id FROM changelogs
                WHERE request_id=$1 AND priority_id IS NOT NULL
                ORDER BY created_at DESC, id DESC LIMIT 1),
            (SELECT assignee_id FROM changelogs
                WHERE request_id=$1 AND assignee_id IS NOT NULL
                ORDER BY created_at DESC, id DESC LIMIT 1)`
	var last LastRecorded
	if err := r.pool.QueryRow(ctx, query, requestID).Scan(
		&last.Exists,
		&last.StatusID,
		&last.PriorityID,
		&last.AssigneeID,
	); err != nil {
		return LastRecorded{}, err
	}
	return last, nil
}
