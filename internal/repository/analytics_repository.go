package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TimeWindow bounds an analytics query. Zero values mean unbounded.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// StatusCountRow is a per-status request count.
type StatusCountRow struct {
	StatusID   string
	StatusName string
	Count      int64
}

// ResolutionAveragesRow aggregates timing across resolved requests.
type ResolutionAveragesRow struct {
	ResolvedCount   int64
	AvgResolveMilli int64
	AvgAttendMilli  int64
}

// OperatorWorkRow aggregates per-operator throughput and timing.
type OperatorWorkRow struct {
	OperatorID        string
	OperatorName      string
	Count             int64
	TotalResolveMilli int64
	TotalAttendMilli  int64
}

// AnalyticsRepository runs read-only aggregations over requests and their
// classification entities.
type AnalyticsRepository interface {
	StatusCounts(ctx context.Context, window TimeWindow) ([]StatusCountRow, error)
	ResolutionAverages(ctx context.Context, window TimeWindow) (ResolutionAveragesRow, error)
	OperatorWork(ctx context.Context, window TimeWindow) ([]OperatorWorkRow, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository instantiates repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) StatusCounts(ctx context.Context, window TimeWindow) ([]StatusCountRow, error) {
	const query = `
        SELECT s.id, s.name, COUNT(r.id)
        FROM service_requests r
        JOIN statuses s ON s.id = r.status_id
        WHERE ($1::timestamptz IS NULL OR r.created_at >= $1)
          AND ($2::timestamptz IS NULL OR r.created_at <= $2)
        GROUP BY s.id, s.name
        ORDER BY COUNT(r.id) DESC, s.name ASC`
	from, to := windowArgs(window)
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusCountRow
	for rows.Next() {
		var row StatusCountRow
		if err := rows.Scan(&row.StatusID, &row.StatusName, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) ResolutionAverages(ctx context.Context, window TimeWindow) (ResolutionAveragesRow, error) {
	const query = `
        SELECT COUNT(r.id),
               COALESCE(AVG(r.ttr_ms), 0)::bigint,
               COALESCE(AVG(EXTRACT(EPOCH FROM (r.attended_at - r.created_at)) * 1000), 0)::bigint
        FROM service_requests r
        WHERE r.resolved_at IS NOT NULL
          AND ($1::timestamptz IS NULL OR r.resolved_at >= $1)
          AND ($2::timestamptz IS NULL OR r.resolved_at <= $2)`
	from, to := windowArgs(window)
	var row ResolutionAveragesRow
	if err := r.pool.QueryRow(ctx, query, from, to).Scan(
		&row.ResolvedCount,
		&row.AvgResolveMilli,
		&row.AvgAttendMilli,
	); err != nil {
		return ResolutionAveragesRow{}, err
	}
	return row, nil
}

func (r *analyticsRepository) OperatorWork(ctx context.Context, window TimeWindow) ([]OperatorWorkRow, error) {
	const query = `
        SELECT p.id, p.name, COUNT(r.id),
               COALESCE(SUM(r.ttr_ms), 0)::bigint,
               COALESCE(SUM(EXTRACT(EPOCH FROM (r.attended_at - r.created_at)) * 1000), 0)::bigint
        FROM service_requests r
        JOIN parties p ON p.id = r.operator_id
        WHERE ($1::timestamptz IS NULL OR r.created_at >= $1)
          AND ($2::timestamptz IS NULL OR r.created_at <= $2)
        GROUP BY p.id, p.name
        ORDER BY COUNT(r.id) DESC, p.name ASC`
	from, to := windowArgs(window)
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OperatorWorkRow
	for rows.Next() {
		var row OperatorWorkRow
		if err := rows.Scan(&row.OperatorID, &row.OperatorName, &row.Count, &row.TotalResolveMilli, &row.TotalAttendMilli); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func windowArgs(window TimeWindow) (from, to *time.Time) {
	if !window.From.IsZero() {
		from = &window.From
	}
	if !window.To.IsZero() {
		to = &window.To
	}
	return from, to
}
