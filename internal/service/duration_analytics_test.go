package service

import (
	"context"
	"testing"

	"github.com/spec-kit/open311-service/internal/repository"
)

type memAnalyticsRepo struct {
	counts    []repository.StatusCountRow
	averages  repository.ResolutionAveragesRow
	operators []repository.OperatorWorkRow
}

func (r *memAnalyticsRepo) StatusCounts(ctx context.Context, window repository.TimeWindow) ([]repository.StatusCountRow, error) {
	return r.counts, nil
}

func (r *memAnalyticsRepo) ResolutionAverages(ctx context.Context, window repository.TimeWindow) (repository.ResolutionAveragesRow, error) {
	return r.averages, nil
}

func (r *memAnalyticsRepo) OperatorWork(ctx context.Context, window repository.TimeWindow) ([]repository.OperatorWorkRow, error) {
	return r.operators, nil
}

func TestOverviewReport(t *testing.T) {
	analytics := NewDurationAnalytics(&memAnalyticsRepo{
		counts: []repository.StatusCountRow{
			{StatusID: "st-open", StatusName: "Open", Count: 7},
			{StatusID: "st-closed", StatusName: "Closed", Count: 3},
		},
		averages: repository.ResolutionAveragesRow{
			ResolvedCount:   3,
			AvgResolveMilli: 3 * 60 * 60 * 1000,
			AvgAttendMilli:  45 * 60 * 1000,
		},
	})

	report, err := analytics.Overview(context.Background(), repository.TimeWindow{})
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}

	if len(report.StatusCounts) != 2 || report.StatusCounts[0].Count != 7 {
		t.Fatalf("unexpected status counts: %+v", report.StatusCounts)
	}
	if report.ResolvedCount != 3 {
		t.Fatalf("expected 3 resolved, got %d", report.ResolvedCount)
	}
	if report.AverageResolveTime.Hours != 3 || report.AverageResolveTime.Human != "3h" {
		t.Fatalf("unexpected resolve average: %+v", report.AverageResolveTime)
	}
	if report.AverageAttendTime.Minutes != 45 {
		t.Fatalf("unexpected attend average: %+v", report.AverageAttendTime)
	}
}

func TestOverviewEmptyWindowYieldsZeroes(t *testing.T) {
	analytics := NewDurationAnalytics(&memAnalyticsRepo{})

	report, err := analytics.Overview(context.Background(), repository.TimeWindow{})
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if len(report.StatusCounts) != 0 {
		t.Fatalf("expected empty counts, got %+v", report.StatusCounts)
	}
	if !report.AverageResolveTime.IsZero() || report.AverageResolveTime.Human != "0s" {
		t.Fatalf("expected zero average, got %+v", report.AverageResolveTime)
	}
}

func TestOperatorWorkReports(t *testing.T) {
	analytics := NewDurationAnalytics(&memAnalyticsRepo{
		operators: []repository.OperatorWorkRow{
			{OperatorID: "op-1", OperatorName: "Dana", Count: 4, TotalResolveMilli: 8 * 60 * 60 * 1000, TotalAttendMilli: 60 * 60 * 1000},
			{OperatorID: "op-2", OperatorName: "Sam", Count: 0, TotalResolveMilli: 0},
		},
	})

	reports, err := analytics.OperatorWork(context.Background(), repository.TimeWindow{})
	if err != nil {
		t.Fatalf("operator work failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}

	dana := reports[0]
	if dana.TotalResolveTime.Hours != 8 {
		t.Fatalf("unexpected total: %+v", dana.TotalResolveTime)
	}
	if dana.AverageResolveTime.Hours != 2 {
		t.Fatalf("expected 2h average, got %+v", dana.AverageResolveTime)
	}

	sam := reports[1]
	if !sam.AverageResolveTime.IsZero() {
		t.Fatalf("zero-count operator must have zero average, got %+v", sam.AverageResolveTime)
	}
}
