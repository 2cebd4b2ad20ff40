package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/open311-service/internal/domain"
	"github.com/spec-kit/open311-service/internal/events"
	"github.com/spec-kit/open311-service/internal/repository"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

// RequestService exposes service request creation and reads. Mutations
// after creation go through the ChangeTracker only.
type RequestService struct {
	requests   repository.ServiceRequestRepository
	changelogs repository.ChangeLogRepository
	preparer   *RequestPreparer
	dispatcher events.Dispatcher
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo   repository.ServiceRequestRepository
	ChangeLogRepo repository.ChangeLogRepository
	Preparer      *RequestPreparer
	Dispatcher    events.Dispatcher
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:   deps.RequestRepo,
		changelogs: deps.ChangeLogRepo,
		preparer:   deps.Preparer,
		dispatcher: deps.Dispatcher,
	}
}

// Create prepares and persists a new request. The returned request carries
// its generated ticket code.
func (s *RequestService) Create(ctx context.Context, request *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	request.Description = strings.TrimSpace(request.Description)
	request.Address = strings.TrimSpace(request.Address)
	if strings.TrimSpace(request.Reporter.Name) == "" || strings.TrimSpace(request.Reporter.Phone) == "" {
		return nil, apperrors.NewValidationError("reporter name and phone are required", nil)
	}
	if request.Reporter.Account == "" {
		request.Reporter.Account = uuid.NewString()
	}

	if err := s.preparer.Prepare(ctx, request); err != nil {
		return nil, err
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishCreated(ctx, request)
	return request, nil
}

// GetByID fetches a request with its changelogs.
func (s *RequestService) GetByID(ctx context.Context, id string, publicOnly bool) (*domain.ServiceRequest, []domain.ChangeLog, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("service request", map[string]any{"request_id": id})
		}
		return nil, nil, apperrors.MapError(err)
	}
	changelogs, err := s.changelogs.ListByRequest(ctx, request.ID, publicOnly)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return request, changelogs, nil
}

// GetByCode fetches a request by ticket code.
func (s *RequestService) GetByCode(ctx context.Context, code string) (*domain.ServiceRequest, error) {
	request, err := s.requests.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service request", map[string]any{"code": code})
		}
		return nil, apperrors.MapError(err)
	}
	return request, nil
}

// List returns requests matching the filter.
func (s *RequestService) List(ctx context.Context, filter repository.RequestFilter) ([]domain.ServiceRequest, error) {
	requests, err := s.requests.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// ListChangelogs returns the audit trail for a request.
func (s *RequestService) ListChangelogs(ctx context.Context, requestID string, publicOnly bool) ([]domain.ChangeLog, error) {
	entries, err := s.changelogs.ListByRequest(ctx, requestID, publicOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *RequestService) publishCreated(ctx context.Context, request *domain.ServiceRequest) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRequestCreated,
		RequestID: request.ID,
		ActorID:   request.OperatorID,
		Timestamp: time.Now(),
		Payload: events.RequestCreatedPayload{
			Code:           request.Code,
			JurisdictionID: request.JurisdictionID,
			ServiceID:      request.ServiceID,
			Reporter:       request.Reporter,
			ExpectedAt:     request.ExpectedAt,
		},
	})
}
