package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/open311-service/internal/domain"
	"github.com/spec-kit/open311-service/internal/events"
	"github.com/spec-kit/open311-service/internal/observability"
	"github.com/spec-kit/open311-service/internal/repository"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

// ChangeTracker applies a changelog to a service request: it runs the
// resolve/reopen cascades, extends the team, computes the audit entries,
// persists them, updates the request under optimistic concurrency and
// notifies downstream listeners.
type ChangeTracker struct {
	requests   repository.ServiceRequestRepository
	changelogs repository.ChangeLogRepository
	parties    repository.PartyRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// ChangeTrackerDependencies bundles collaborators for the tracker.
type ChangeTrackerDependencies struct {
	RequestRepo   repository.ServiceRequestRepository
	ChangeLogRepo repository.ChangeLogRepository
	PartyRepo     repository.PartyRepository
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// TrackInput describes one track invocation.
type TrackInput struct {
	RequestID string
	Delta     domain.ChangelogDelta
	// Dirty carries changelog entries queued by the caller but not yet
	// persisted; they are merged ahead of the computed entry.
	Dirty []domain.ChangeLog
}

// NewChangeTracker constructs the tracker.
func NewChangeTracker(deps ChangeTrackerDependencies) *ChangeTracker {
	return &ChangeTracker{
		requests:   deps.RequestRepo,
		changelogs: deps.ChangeLogRepo,
		parties:    deps.PartyRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Track applies the changelog and returns the reloaded request. A missing
// request id is a validation error; an unknown request is not found; a lost
// version race is a conflict the caller may retry.
func (s *ChangeTracker) Track(ctx context.Context, input TrackInput) (*domain.ServiceRequest, error) {
	requestID := input.RequestID
	if requestID == "" {
		requestID = input.Delta.RequestID
	}
	if requestID == "" {
		return nil, apperrors.NewValidationError("request id is required", nil)
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}

	now := time.Now()
	delta := input.Delta

	if delta.Reopen {
		request.Reopen(now)
	} else if delta.ResolvedAt != nil {
		request.Resolve(*delta.ResolvedAt)
		if request.AssigneeID == nil {
			// Whoever resolves an unassigned request owns it.
			if delta.AssigneeID == nil {
				delta.AssigneeID = delta.ChangerID
			}
			if err := s.adoptAssigneeZone(ctx, request, delta.AssigneeID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.extendTeam(ctx, request); err != nil {
		return nil, err
	}

	last, err := s.changelogs.LastRecorded(ctx, request.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	snap := Snapshot{
		Request:        request,
		HasChangelogs:  last.Exists,
		LastStatusID:   last.StatusID,
		LastPriorityID: last.PriorityID,
		LastAssigneeID: last.AssigneeID,
	}
	entries := ComputeChanges(snap, delta, input.Dirty, now)

	zone := delta.Zone
	if zone == nil {
		zone = request.Zone
	}
	assignedAt := delta.ResolvedAt
	if assignedAt == nil {
		assignedAt = &now
	}
	for i := range entries {
		if entries[i].AssigneeID != nil && entries[i].AssignedAt == nil {
			entries[i].AssignedAt = assignedAt
		}
		if entries[i].Zone == nil {
			entries[i].Zone = zone
		}
	}
	if request.Zone == nil {
		request.Zone = zone
	}

	for i := range entries {
		s.denormalize(&entries[i], request)
		if err := s.changelogs.Create(ctx, &entries[i]); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.applyDelta(request, &delta, assignedAt)

	if err := s.requests.Update(ctx, request); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.metrics.RecordTrackConflict()
			return nil, apperrors.NewConflict("service request was modified concurrently", map[string]any{
				"request_id": request.ID,
			})
		}
		return nil, apperrors.MapError(err)
	}

	reloaded, err := s.requests.GetByID(ctx, request.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.notify(ctx, reloaded, &delta, entries)
	return reloaded, nil
}

// adoptAssigneeZone inherits the assignee's zone when the request lacks one.
func (s *ChangeTracker) adoptAssigneeZone(ctx context.Context, request *domain.ServiceRequest, assigneeID *string) error {
	if assigneeID == nil || request.Zone != nil {
		return nil
	}
	party, err := s.parties.GetByID(ctx, *assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	request.Zone = party.Zone
	return nil
}

// extendTeam unions parties working the request's jurisdiction and zone into
// the team.
func (s *ChangeTracker) extendTeam(ctx context.Context, request *domain.ServiceRequest) error {
	parties, err := s.parties.ListByJurisdictionZone(ctx, request.JurisdictionID, request.Zone)
	if err != nil {
		return apperrors.MapError(err)
	}
	for i := range parties {
		request.AddTeamMember(parties[i].ID)
	}
	return nil
}

func (s *ChangeTracker) denormalize(entry *domain.ChangeLog, request *domain.ServiceRequest) {
	entry.RequestID = request.ID
	entry.JurisdictionID = request.JurisdictionID
	entry.GroupID = request.GroupID
	entry.TypeID = request.TypeID
	entry.ServiceID = request.ServiceID
	entry.ConfirmedAt = request.ConfirmedAt
	if entry.Visibility == "" {
		entry.Visibility = domain.VisibilityPrivate
	}
}

// applyDelta denormalizes the incoming fields onto the request. Binary
// attachments stay changelog-only; member is unioned into the team.
func (s *ChangeTracker) applyDelta(request *domain.ServiceRequest, delta *domain.ChangelogDelta, assignedAt *time.Time) {
	if delta.StatusID != nil {
		request.StatusID = delta.StatusID
	}
	if delta.PriorityID != nil {
		request.PriorityID = delta.PriorityID
	}
	if delta.AssigneeID != nil {
		request.AssigneeID = delta.AssigneeID
		request.AddTeamMember(*delta.AssigneeID)
		if request.AssignedAt == nil {
			request.AssignedAt = assignedAt
		}
	}
	if delta.Member != nil {
		request.AddTeamMember(*delta.Member)
	}
	if delta.Zone != nil {
		request.Zone = delta.Zone
	}
	if delta.AttendedAt != nil {
		request.AttendedAt = delta.AttendedAt
	}
	if delta.CompletedAt != nil {
		request.CompletedAt = delta.CompletedAt
	}
	if delta.VerifiedAt != nil {
		request.VerifiedAt = delta.VerifiedAt
	}
	if delta.ApprovedAt != nil {
		request.ApprovedAt = delta.ApprovedAt
	}
}

// notify publishes lifecycle events. Delivery is best effort; failures are
// logged and never propagated.
func (s *ChangeTracker) notify(ctx context.Context, request *domain.ServiceRequest, delta *domain.ChangelogDelta, entries []domain.ChangeLog) {
	if s.dispatcher == nil || len(entries) == 0 {
		return
	}
	latest := entries[len(entries)-1]
	publish := func(eventType events.EventType, payload any) {
		err := s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      eventType,
			RequestID: request.ID,
			ActorID:   latest.ChangerID,
			Timestamp: time.Now(),
			Payload:   payload,
		})
		if err != nil {
			s.logger.Warn("notification dispatch failed",
				zap.String("request_id", request.ID),
				zap.String("event", string(eventType)),
				zap.Error(err))
		}
	}

	publish(events.EventChangelogRecorded, events.ChangelogRecordedPayload{
		Code:       request.Code,
		StatusID:   latest.StatusID,
		PriorityID: latest.PriorityID,
		AssigneeID: latest.AssigneeID,
		Comment:    latest.Comment,
		Visibility: latest.Visibility,
		Reporter:   request.Reporter,
	})
	if delta.Reopen {
		publish(events.EventRequestReopened, events.ResolutionPayload{
			Code:       request.Code,
			ReopenedAt: request.ReopenedAt,
			Reporter:   request.Reporter,
		})
	} else if delta.ResolvedAt != nil {
		publish(events.EventRequestResolved, events.ResolutionPayload{
			Code:       request.Code,
			ResolvedAt: request.ResolvedAt,
			Reporter:   request.Reporter,
		})
	}
}
