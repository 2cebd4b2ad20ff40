package events

import (
	"time"

	"github.com/spec-kit/open311-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated    EventType = "request_created"
	EventChangelogRecorded EventType = "changelog_recorded"
	EventRequestResolved   EventType = "request_resolved"
	EventRequestReopened   EventType = "request_reopened"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Code           string          `json:"code"`
	JurisdictionID string          `json:"jurisdiction_id"`
	ServiceID      string          `json:"service_id"`
	Reporter       domain.Reporter `json:"reporter"`
	ExpectedAt     *time.Time      `json:"expected_at,omitempty"`
}

// ChangelogRecordedPayload payload.
type ChangelogRecordedPayload struct {
	Code       string            `json:"code"`
	StatusID   *string           `json:"status_id,omitempty"`
	PriorityID *string           `json:"priority_id,omitempty"`
	AssigneeID *string           `json:"assignee_id,omitempty"`
	Comment    *string           `json:"comment,omitempty"`
	Visibility domain.Visibility `json:"visibility"`
	Reporter   domain.Reporter   `json:"reporter"`
}

// ResolutionPayload covers resolve and reopen transitions.
type ResolutionPayload struct {
	Code       string          `json:"code"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
	ReopenedAt *time.Time      `json:"reopened_at,omitempty"`
	Reporter   domain.Reporter `json:"reporter"`
}
