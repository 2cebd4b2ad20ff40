package service

import (
	"context"

	"github.com/spec-kit/open311-service/internal/domain"
	"github.com/spec-kit/open311-service/internal/repository"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

// DurationAnalytics computes read-only timing aggregates over persisted
// requests. Every duration is derived from an absolute millisecond value,
// and empty windows yield zero-valued reports rather than absent ones.
type DurationAnalytics struct {
	analytics repository.AnalyticsRepository
}

// NewDurationAnalytics constructs the analytics service.
func NewDurationAnalytics(analytics repository.AnalyticsRepository) *DurationAnalytics {
	return &DurationAnalytics{analytics: analytics}
}

// StatusCountReport is a per-status request tally.
type StatusCountReport struct {
	StatusID   string `json:"status_id"`
	StatusName string `json:"status_name"`
	Count      int64  `json:"count"`
}

// OverviewReport summarizes volumes and average timing for a window.
type OverviewReport struct {
	StatusCounts       []StatusCountReport `json:"status_counts"`
	ResolvedCount      int64               `json:"resolved_count"`
	AverageResolveTime domain.Duration     `json:"average_resolve_time"`
	AverageAttendTime  domain.Duration     `json:"average_attend_time"`
}

// OperatorWorkReport summarizes one operator's throughput and timing.
type OperatorWorkReport struct {
	OperatorID         string          `json:"operator_id"`
	OperatorName       string          `json:"operator_name"`
	Count              int64           `json:"count"`
	TotalResolveTime   domain.Duration `json:"total_resolve_time"`
	AverageResolveTime domain.Duration `json:"average_resolve_time"`
	TotalAttendTime    domain.Duration `json:"total_attend_time"`
}

// Overview aggregates status counts and resolution averages for the window.
func (s *DurationAnalytics) Overview(ctx context.Context, window repository.TimeWindow) (*OverviewReport, error) {
	counts, err := s.analytics.StatusCounts(ctx, window)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	averages, err := s.analytics.ResolutionAverages(ctx, window)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	report := &OverviewReport{
		StatusCounts:       make([]StatusCountReport, 0, len(counts)),
		ResolvedCount:      averages.ResolvedCount,
		AverageResolveTime: domain.DurationFromMillis(averages.AvgResolveMilli),
		AverageAttendTime:  domain.DurationFromMillis(averages.AvgAttendMilli),
	}
	for _, row := range counts {
		report.StatusCounts = append(report.StatusCounts, StatusCountReport{
			StatusID:   row.StatusID,
			StatusName: row.StatusName,
			Count:      row.Count,
		})
	}
	return report, nil
}

// OperatorWork reports per-operator durations and work counts for the
// window.
func (s *DurationAnalytics) OperatorWork(ctx context.Context, window repository.TimeWindow) ([]OperatorWorkReport, error) {
	rows, err := s.analytics.OperatorWork(ctx, window)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	reports := make([]OperatorWorkReport, 0, len(rows))
	for _, row := range rows {
		report := OperatorWorkReport{
			OperatorID:       row.OperatorID,
			OperatorName:     row.OperatorName,
			Count:            row.Count,
			TotalResolveTime: domain.DurationFromMillis(row.TotalResolveMilli),
			TotalAttendTime:  domain.DurationFromMillis(row.TotalAttendMilli),
		}
		if row.Count > 0 {
			report.AverageResolveTime = domain.DurationFromMillis(row.TotalResolveMilli / row.Count)
		} else {
			report.AverageResolveTime = domain.DurationFromMillis(0)
		}
		reports = append(reports, report)
	}
	return reports, nil
}
