package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/open311-service/internal/domain"
	"github.com/spec-kit/open311-service/internal/persistence"
	"github.com/spec-kit/open311-service/internal/repository"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

// RequestPreparer fills a draft service request before first persistence:
// classification backfill from the service catalog, SLA-derived expected
// date, default status/priority and a freshly allocated ticket code.
type RequestPreparer struct {
	jurisdictions repository.JurisdictionRepository
	services      repository.ServiceRepository
	statuses      repository.StatusRepository
	priorities    repository.PriorityRepository
	counter       *TicketCounter
	cache         *persistence.ReferenceCache
	logger        *zap.Logger
}

// RequestPreparerDependencies bundles collaborators for the preparer.
type RequestPreparerDependencies struct {
	JurisdictionRepo repository.JurisdictionRepository
	ServiceRepo      repository.ServiceRepository
	StatusRepo       repository.StatusRepository
	PriorityRepo     repository.PriorityRepository
	Counter          *TicketCounter
	Cache            *persistence.ReferenceCache
	Logger           *zap.Logger
}

// NewRequestPreparer constructs the preparer.
func NewRequestPreparer(deps RequestPreparerDependencies) *RequestPreparer {
	return &RequestPreparer{
		jurisdictions: deps.JurisdictionRepo,
		services:      deps.ServiceRepo,
		statuses:      deps.StatusRepo,
		priorities:    deps.PriorityRepo,
		counter:       deps.Counter,
		cache:         deps.Cache,
		logger:        deps.Logger,
	}
}

// Prepare completes the draft in place. It is idempotent: a request that
// already carries status, priority and code never allocates a second ticket
// number.
func (p *RequestPreparer) Prepare(ctx context.Context, request *domain.ServiceRequest) error {
	if request.ServiceID == "" {
		return apperrors.NewValidationError("service is required", nil)
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now()
	}

	svc, err := p.services.GetByID(ctx, request.ServiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown service", map[string]any{"service_id": request.ServiceID})
		}
		return apperrors.MapError(err)
	}

	if request.JurisdictionID == "" {
		request.JurisdictionID = svc.JurisdictionID
	}
	if request.GroupID == nil {
		request.GroupID = svc.GroupID
	}
	if request.TypeID == nil {
		request.TypeID = svc.TypeID
	}
	if request.PriorityID == nil {
		request.PriorityID = svc.PriorityID
	}

	if request.ExpectedAt == nil && svc.SLAHours > 0 {
		expected := request.CreatedAt.Add(time.Duration(svc.SLAHours) * time.Hour)
		request.ExpectedAt = &expected
	}

	if request.ResolvedAt != nil {
		ttr := request.ResolvedAt.Sub(request.CreatedAt).Milliseconds()
		if ttr < 0 {
			// Clock anomaly: normalize the resolution forward instead of
			// recording a negative duration.
			ttr = -ttr
			normalized := request.CreatedAt.Add(time.Duration(ttr) * time.Millisecond)
			request.ResolvedAt = &normalized
			p.logger.Warn("resolvedAt precedes createdAt; normalized forward",
				zap.String("code", request.Code),
				zap.Int64("ttr_ms", ttr))
		}
		request.TTRMillis = &ttr
	}

	if request.StatusID != nil && request.PriorityID != nil && request.Code != "" {
		return nil
	}

	jurisdiction, err := p.jurisdictions.GetByID(ctx, request.JurisdictionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown jurisdiction", map[string]any{"jurisdiction_id": request.JurisdictionID})
		}
		return apperrors.MapError(err)
	}

	var wg sync.WaitGroup
	var statusErr, priorityErr error
	if request.StatusID == nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := p.defaultStatus(ctx)
			if err != nil {
				statusErr = err
				return
			}
			request.StatusID = &status.ID
		}()
	}
	if request.PriorityID == nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			priority, err := p.defaultPriority(ctx)
			if err != nil {
				priorityErr = err
				return
			}
			request.PriorityID = &priority.ID
		}()
	}
	wg.Wait()
	if statusErr != nil {
		return apperrors.MapError(statusErr)
	}
	if priorityErr != nil {
		return apperrors.MapError(priorityErr)
	}

	if request.Code == "" {
		code, _, err := p.counter.Generate(ctx, jurisdiction.Code, svc.Code, request.CreatedAt.Year())
		if err != nil {
			return err
		}
		request.Code = code
	}
	return nil
}

func (p *RequestPreparer) defaultStatus(ctx context.Context) (*domain.Status, error) {
	if status, ok := p.cache.DefaultStatus(ctx); ok {
		return status, nil
	}
	status, err := p.statuses.FindDefault(ctx)
	if err != nil {
		return nil, err
	}
	p.cache.StoreDefaultStatus(ctx, status)
	return status, nil
}

func (p *RequestPreparer) defaultPriority(ctx context.Context) (*domain.Priority, error) {
	if priority, ok := p.cache.DefaultPriority(ctx); ok {
		return priority, nil
	}
	priority, err := p.priorities.FindDefault(ctx)
	if err != nil {
		return nil, err
	}
	p.cache.StoreDefaultPriority(ctx, priority)
	return priority, nil
}
