package dto

import (
	"time"

	"github.com/spec-kit/open311-service/internal/domain"
)

// TrackChangelogRequest is the payload for recording a transition.
type TrackChangelogRequest struct {
	StatusID   *string `json:"status_id,omitempty"`
	PriorityID *string `json:"priority_id,omitempty"`
	AssigneeID *string `json:"assignee_id,omitempty"`
	Comment    *string `json:"comment,omitempty"`
	Visibility *string `json:"visibility,omitempty"`
	Member     *string `json:"member,omitempty"`
	Zone       *string `json:"zone,omitempty"`

	Item     *string `json:"item,omitempty"`
	Image    *string `json:"image,omitempty"`
	Audio    *string `json:"audio,omitempty"`
	Video    *string `json:"video,omitempty"`
	Document *string `json:"document,omitempty"`
	Location *string `json:"location,omitempty"`

	AttendedAt  *time.Time `json:"attended_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	Reopen      bool       `json:"reopen,omitempty"`
}

// ToDelta converts the payload into a domain delta.
func (r *TrackChangelogRequest) ToDelta(requestID string, changerID *string) domain.ChangelogDelta {
	delta := domain.ChangelogDelta{
		RequestID:   requestID,
		ChangerID:   changerID,
		StatusID:    r.StatusID,
		PriorityID:  r.PriorityID,
		AssigneeID:  r.AssigneeID,
		Comment:     r.Comment,
		Member:      r.Member,
		Zone:        r.Zone,
		Item:        r.Item,
		Image:       r.Image,
		Audio:       r.Audio,
		Video:       r.Video,
		Document:    r.Document,
		Location:    r.Location,
		AttendedAt:  r.AttendedAt,
		CompletedAt: r.CompletedAt,
		VerifiedAt:  r.VerifiedAt,
		ApprovedAt:  r.ApprovedAt,
		ResolvedAt:  r.ResolvedAt,
		Reopen:      r.Reopen,
	}
	if r.Visibility != nil {
		vis := domain.Visibility(*r.Visibility)
		delta.Visibility = &vis
	}
	return delta
}

// ChangelogResponse is one audit entry.
type ChangelogResponse struct {
	ID         string  `json:"id"`
	RequestID  string  `json:"request_id"`
	ChangerID  *string `json:"changer_id,omitempty"`
	StatusID   *string `json:"status_id,omitempty"`
	PriorityID *string `json:"priority_id,omitempty"`
	AssigneeID *string `json:"assignee_id,omitempty"`
	Comment    *string `json:"comment,omitempty"`
	Visibility string  `json:"visibility"`
	Zone       *string `json:"zone,omitempty"`

	Item     *string `json:"item,omitempty"`
	Image    *string `json:"image,omitempty"`
	Audio    *string `json:"audio,omitempty"`
	Video    *string `json:"video,omitempty"`
	Document *string `json:"document,omitempty"`
	Location *string `json:"location,omitempty"`

	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	AttendedAt  *time.Time `json:"attended_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ReopenedAt  *time.Time `json:"reopened_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewChangelogResponse maps a domain changelog entry.
func NewChangelogResponse(entry *domain.ChangeLog) ChangelogResponse {
	return ChangelogResponse{
		ID:          entry.ID,
		RequestID:   entry.RequestID,
		ChangerID:   entry.ChangerID,
		StatusID:    entry.StatusID,
		PriorityID:  entry.PriorityID,
		AssigneeID:  entry.AssigneeID,
		Comment:     entry.Comment,
		Visibility:  string(entry.Visibility),
		Zone:        entry.Zone,
		Item:        entry.Item,
		Image:       entry.Image,
		Audio:       entry.Audio,
		Video:       entry.Video,
		Document:    entry.Document,
		Location:    entry.Location,
		AssignedAt:  entry.AssignedAt,
		AttendedAt:  entry.AttendedAt,
		CompletedAt: entry.CompletedAt,
		VerifiedAt:  entry.VerifiedAt,
		ApprovedAt:  entry.ApprovedAt,
		ResolvedAt:  entry.ResolvedAt,
		ReopenedAt:  entry.ReopenedAt,
		CreatedAt:   entry.CreatedAt,
	}
}
