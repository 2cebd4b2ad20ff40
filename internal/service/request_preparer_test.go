package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/open311-service/internal/config"
	"github.com/spec-kit/open311-service/internal/domain"
	"github.com/spec-kit/open311-service/internal/observability"
	"github.com/spec-kit/open311-service/internal/persistence"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

type memJurisdictionRepo struct {
	jurisdictions map[string]*domain.Jurisdiction
}

func (r *memJurisdictionRepo) GetByID(ctx context.Context, id string) (*domain.Jurisdiction, error) {
	j, ok := r.jurisdictions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return j, nil
}

func (r *memJurisdictionRepo) GetByCode(ctx context.Context, code string) (*domain.Jurisdiction, error) {
	for _, j := range r.jurisdictions {
		if j.Code == code {
			return j, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memServiceRepo struct {
	services map[string]*domain.Service
}

func (r *memServiceRepo) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	s, ok := r.services[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (r *memServiceRepo) GetByCode(ctx context.Context, code string) (*domain.Service, error) {
	for _, s := range r.services {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memStatusRepo struct {
	def *domain.Status
}

func (r *memStatusRepo) GetByID(ctx context.Context, id string) (*domain.Status, error) {
	if r.def != nil && r.def.ID == id {
		return r.def, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memStatusRepo) FindDefault(ctx context.Context) (*domain.Status, error) {
	if r.def == nil {
		return nil, pgx.ErrNoRows
	}
	return r.def, nil
}

type memPriorityRepo struct {
	def *domain.Priority
}

func (r *memPriorityRepo) GetByID(ctx context.Context, id string) (*domain.Priority, error) {
	if r.def != nil && r.def.ID == id {
		return r.def, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memPriorityRepo) FindDefault(ctx context.Context) (*domain.Priority, error) {
	if r.def == nil {
		return nil, pgx.ErrNoRows
	}
	return r.def, nil
}

type preparerFixture struct {
	preparer *RequestPreparer
	counters *memCounterRepo
}

func newPreparerFixture() *preparerFixture {
	counters := newMemCounterRepo()
	priorityID := "pr-default"
	fixture := &preparerFixture{
		counters: counters,
		preparer: NewRequestPreparer(RequestPreparerDependencies{
			JurisdictionRepo: &memJurisdictionRepo{jurisdictions: map[string]*domain.Jurisdiction{
				"jur-1": {ID: "jur-1", Code: "IL", Name: "Illinois"},
			}},
			ServiceRepo: &memServiceRepo{services: map[string]*domain.Service{
				"svc-1": {
					ID:             "svc-1",
					Code:           "LK",
					Name:           "Leaking hydrant",
					JurisdictionID: "jur-1",
					GroupID:        strPtr("grp-water"),
					TypeID:         strPtr("typ-infra"),
					PriorityID:     &priorityID,
					SLAHours:       24,
				},
			}},
			StatusRepo:   &memStatusRepo{def: &domain.Status{ID: "st-open", Name: "Open", Weight: 100}},
			PriorityRepo: &memPriorityRepo{def: &domain.Priority{ID: "pr-default", Name: "Normal", Weight: 100}},
			Counter: NewTicketCounter(counters, config.TicketConfig{SequencePad: 4},
				observability.NewMetrics(), zap.NewNop()),
			Cache:  persistence.NewReferenceCache(nil, 0, zap.NewNop()),
			Logger: zap.NewNop(),
		}),
	}
	return fixture
}

func TestPrepareFillsDraft(t *testing.T) {
	f := newPreparerFixture()
	created := time.Date(2017, 6, 1, 9, 0, 0, 0, time.UTC)
	request := &domain.ServiceRequest{ServiceID: "svc-1", CreatedAt: created}

	if err := f.preparer.Prepare(context.Background(), request); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	if request.JurisdictionID != "jur-1" {
		t.Fatalf("jurisdiction must be backfilled from service, got %q", request.JurisdictionID)
	}
	if request.GroupID == nil || *request.GroupID != "grp-water" {
		t.Fatalf("group must be backfilled, got %v", request.GroupID)
	}
	if request.PriorityID == nil || *request.PriorityID != "pr-default" {
		t.Fatalf("priority must come from service, got %v", request.PriorityID)
	}
	if request.StatusID == nil || *request.StatusID != "st-open" {
		t.Fatalf("status must default, got %v", request.StatusID)
	}
	expected := created.Add(24 * time.Hour)
	if request.ExpectedAt == nil || !request.ExpectedAt.Equal(expected) {
		t.Fatalf("expectedAt must be createdAt + SLA, got %v", request.ExpectedAt)
	}
	if request.Code != "ILLK170001" {
		t.Fatalf("unexpected ticket code %q", request.Code)
	}
}

func TestPrepareIsIdempotent(t *testing.T) {
	f := newPreparerFixture()
	request := &domain.ServiceRequest{ServiceID: "svc-1", CreatedAt: time.Now()}

	if err := f.preparer.Prepare(context.Background(), request); err != nil {
		t.Fatalf("first prepare failed: %v", err)
	}
	code := request.Code
	allocations := f.counters.calls

	if err := f.preparer.Prepare(context.Background(), request); err != nil {
		t.Fatalf("second prepare failed: %v", err)
	}
	if request.Code != code {
		t.Fatalf("code must not change on re-prepare: %q vs %q", code, request.Code)
	}
	if f.counters.calls != allocations {
		t.Fatalf("re-prepare must not allocate a new sequence: %d vs %d", allocations, f.counters.calls)
	}
}

func TestPrepareRejectsMissingService(t *testing.T) {
	f := newPreparerFixture()
	err := f.preparer.Prepare(context.Background(), &domain.ServiceRequest{})
	if err == nil || apperrors.ToDomainError(err).HTTPStatus != 400 {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestPrepareRejectsUnknownService(t *testing.T) {
	f := newPreparerFixture()
	err := f.preparer.Prepare(context.Background(), &domain.ServiceRequest{ServiceID: "svc-missing"})
	if err == nil || apperrors.ToDomainError(err).HTTPStatus != 400 {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestPrepareRejectsUnknownJurisdiction(t *testing.T) {
	f := newPreparerFixture()
	request := &domain.ServiceRequest{ServiceID: "svc-1", JurisdictionID: "jur-missing"}
	err := f.preparer.Prepare(context.Background(), request)
	if err == nil || apperrors.ToDomainError(err).HTTPStatus != 400 {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestPrepareComputesTTRForPreResolvedRequest(t *testing.T) {
	f := newPreparerFixture()
	created := time.Date(2017, 6, 1, 9, 0, 0, 0, time.UTC)
	resolved := created.Add(90 * time.Minute)
	request := &domain.ServiceRequest{ServiceID: "svc-1", CreatedAt: created, ResolvedAt: &resolved}

	if err := f.preparer.Prepare(context.Background(), request); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if request.TTRMillis == nil || *request.TTRMillis != 90*60*1000 {
		t.Fatalf("unexpected ttr: %v", request.TTRMillis)
	}
}

func TestPrepareNormalizesBackwardsResolution(t *testing.T) {
	f := newPreparerFixture()
	created := time.Date(2017, 6, 1, 9, 0, 0, 0, time.UTC)
	resolved := created.Add(-30 * time.Minute)
	request := &domain.ServiceRequest{ServiceID: "svc-1", CreatedAt: created, ResolvedAt: &resolved}

	if err := f.preparer.Prepare(context.Background(), request); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if request.TTRMillis == nil || *request.TTRMillis != 30*60*1000 {
		t.Fatalf("expected absolute ttr, got %v", request.TTRMillis)
	}
	if request.ResolvedAt == nil || !request.ResolvedAt.After(created) {
		t.Fatalf("resolvedAt must be normalized forward of createdAt, got %v", request.ResolvedAt)
	}
}
