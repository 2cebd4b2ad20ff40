package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/open311-service/internal/domain"
)

// ErrVersionConflict signals a lost optimistic-concurrency race on update.
var ErrVersionConflict = errors.New("service request version conflict")

// RequestFilter captures listing parameters.
type RequestFilter struct {
	JurisdictionID *string
	ServiceID      *string
	StatusID       *string
	PriorityID     *string
	OperatorID     *string
	AssigneeID     *string
	ReporterPhone  *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Resolved       *bool
	Limit          int
	Offset         int
}

// ServiceRequestRepository encapsulates request persistence.
type ServiceRequestRepository interface {
	Create(ctx context.Context, request *domain.ServiceRequest) error
	// Update applies the request state guarded by its version; a stale
	// version returns ErrVersionConflict.
	Update(ctx context.Context, request *domain.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	GetByCode(ctx context.Context, code string) (*domain.ServiceRequest, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error)
}

type serviceRequestRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRequestRepository instantiates repository.
func NewServiceRequestRepository(pool *pgxpool.Pool) ServiceRequestRepository {
	return &serviceRequestRepository{pool: pool}
}

const requestColumns = `id, code, jurisdiction_id, group_id, type_id, service_id, priority_id, status_id,
               reporter_name, reporter_phone, reporter_email, reporter_account,
               operator_id, assignee_id, team, description, address, zone,
               confirmed_at, expected_at, assigned_at, attended_at, completed_at,
               verified_at, approved_at, resolved_at, reopened_at, ttr_ms,
               version, created_at, updated_at`

func (r *serviceRequestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (code, jurisdiction_id, group_id, type_id, service_id, priority_id, status_id,
            reporter_name, reporter_phone, reporter_email, reporter_account,
            operator_id, assignee_id, team, description, address, zone,
            confirmed_at, expected_at, assigned_at, attended_at, completed_at,
            verified_at, approved_at, resolved_at, reopened_at, ttr_ms)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		request.Code,
		request.JurisdictionID,
		request.GroupID,
		request.TypeID,
		request.ServiceID,
		request.PriorityID,
		request.StatusID,
		request.Reporter.Name,
		request.Reporter.Phone,
		request.Reporter.Email,
		request.Reporter.Account,
		request.OperatorID,
		request.AssigneeID,
		request.Team,
		request.Description,
		request.Address,
		request.Zone,
		request.ConfirmedAt,
		request.ExpectedAt,
		request.AssignedAt,
		request.AttendedAt,
		request.CompletedAt,
		request.VerifiedAt,
		request.ApprovedAt,
		request.ResolvedAt,
		request.ReopenedAt,
		request.TTRMillis,
	).Scan(&request.ID, &request.Version, &request.CreatedAt, &request.UpdatedAt)
}

func (r *serviceRequestRepository) Update(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        UPDATE service_requests SET
            group_id=$1, type_id=$2, priority_id=$3, status_id=$4,
            operator_id=$5, assignee_id=$6, team=$7, zone=$8,
            confirmed_at=$9, expected_at=$10, assigned_at=$11, attended_at=$12,
            completed_at=$13, verified_at=$14, approved_at=$15, resolved_at=$16,
            reopened_at=$17, ttr_ms=$18, version=version+1, updated_at=NOW()
        WHERE id=$19 AND version=$20`
	cmd, err := r.pool.Exec(ctx, query,
		request.GroupID,
		request.TypeID,
		request.PriorityID,
		request.StatusID,
		request.OperatorID,
		request.AssigneeID,
		request.Team,
		request.Zone,
		request.ConfirmedAt,
		request.ExpectedAt,
		request.AssignedAt,
		request.AttendedAt,
		request.CompletedAt,
		request.VerifiedAt,
		request.ApprovedAt,
		request.ResolvedAt,
		request.ReopenedAt,
		request.TTRMillis,
		request.ID,
		request.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	request.Version++
	return nil
}

func (r *serviceRequestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM service_requests WHERE id=$1`, requestColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *serviceRequestRepository) GetByCode(ctx context.Context, code string) (*domain.ServiceRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM service_requests WHERE code=$1`, requestColumns)
	return r.fetchSingle(ctx, query, code)
}

func (r *serviceRequestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ServiceRequest, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	request, err := scanRequest(row)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (r *serviceRequestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error) {
	base := fmt.Sprintf(`SELECT %s FROM service_requests`, requestColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.JurisdictionID != nil {
		args = append(args, *filter.JurisdictionID)
		clauses = append(clauses, fmt.Sprintf("jurisdiction_id=$%d", len(args)))
	}
	if filter.ServiceID != nil {
		args = append(args, *filter.ServiceID)
		clauses = append(clauses, fmt.Sprintf("service_id=$%d", len(args)))
	}
	if filter.StatusID != nil {
		args = append(args, *filter.StatusID)
		clauses = append(clauses, fmt.Sprintf("status_id=$%d", len(args)))
	}
	if filter.PriorityID != nil {
		args = append(args, *filter.PriorityID)
		clauses = append(clauses, fmt.Sprintf("priority_id=$%d", len(args)))
	}
	if filter.OperatorID != nil {
		args = append(args, *filter.OperatorID)
		clauses = append(clauses, fmt.Sprintf("operator_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.ReporterPhone != nil {
		args = append(args, *filter.ReporterPhone)
		clauses = append(clauses, fmt.Sprintf("reporter_phone=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.Resolved != nil {
		if *filter.Resolved {
			clauses = append(clauses, "resolved_at IS NOT NULL")
		} else {
			clauses = append(clauses, "resolved_at IS NULL")
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *request)
	}
	return result, rows.Err()
}

func scanRequest(row pgx.Row) (*domain.ServiceRequest, error) {
	var request domain.ServiceRequest
	if err := row.Scan(
		&request.ID,
		&request.Code,
		&request.JurisdictionID,
		&request.GroupID,
		&request.TypeID,
		&request.ServiceID,
		&request.PriorityID,
		&request.StatusID,
		&request.Reporter.Name,
		&request.Reporter.Phone,
		&request.Reporter.Email,
		&request.Reporter.Account,
		&request.OperatorID,
		&request.AssigneeID,
		&request.Team,
		&request.Description,
		&request.Address,
		&request.Zone,
		&request.ConfirmedAt,
		&request.ExpectedAt,
		&request.AssignedAt,
		&request.AttendedAt,
		&request.CompletedAt,
		&request.VerifiedAt,
		&request.ApprovedAt,
		&request.ResolvedAt,
		&request.ReopenedAt,
		&request.TTRMillis,
		&request.Version,
		&request.CreatedAt,
		&request.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}
