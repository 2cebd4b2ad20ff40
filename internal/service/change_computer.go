package service

import (
	"time"

	"github.com/spec-kit/open311-service/internal/domain"
)

// Snapshot captures the persisted state the change computation diffs
// against: the request itself plus the last changelog-recorded value of each
// tracked field.
type Snapshot struct {
	Request        *domain.ServiceRequest
	HasChangelogs  bool
	LastStatusID   *string
	LastPriorityID *string
	LastAssigneeID *string
}

// ComputeChanges derives the changelog entries to append for an incoming
// delta. It is a pure function; persistence and cascades belong to the
// tracker.
//
// A request with no history gets exactly one seed entry capturing its
// current status, priority and changer. Otherwise the incoming delta is
// merged with diffs of the request's tracked fields against their
// last-recorded values, dirty (unpersisted) entries are stamped and emitted
// first, and entries that record nothing are discarded.
func ComputeChanges(snap Snapshot, delta domain.ChangelogDelta, dirty []domain.ChangeLog, now time.Time) []domain.ChangeLog {
	request := snap.Request
	changer := delta.ChangerID
	if changer == nil {
		changer = request.OperatorID
	}

	if !snap.HasChangelogs {
		return []domain.ChangeLog{{
			RequestID:  request.ID,
			ChangerID:  changer,
			StatusID:   request.StatusID,
			PriorityID: request.PriorityID,
			Visibility: domain.VisibilityPublic,
			CreatedAt:  now,
		}}
	}

	out := make([]domain.ChangeLog, 0, len(dirty)+1)
	for i := range dirty {
		entry := dirty[i]
		if entry.ChangerID == nil {
			entry.ChangerID = changer
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if entry.Visibility == "" {
			entry.Visibility = domain.VisibilityPrivate
		}
		entry.RequestID = request.ID
		out = append(out, entry)
	}

	entry := domain.ChangeLog{
		RequestID: request.ID,
		ChangerID: changer,
		Comment:   delta.Comment,
		Zone:      delta.Zone,
		Item:      delta.Item,
		Image:     delta.Image,
		Audio:     delta.Audio,
		Video:     delta.Video,
		Document:  delta.Document,
		Location:  delta.Location,

		AttendedAt:  delta.AttendedAt,
		CompletedAt: delta.CompletedAt,
		VerifiedAt:  delta.VerifiedAt,
		ApprovedAt:  delta.ApprovedAt,
		ResolvedAt:  delta.ResolvedAt,

		CreatedAt: now,
	}
	if delta.Reopen {
		entry.ReopenedAt = request.ReopenedAt
		if entry.ReopenedAt == nil {
			entry.ReopenedAt = &now
		}
	}

	entry.StatusID = trackedChange(delta.StatusID, request.StatusID, snap.LastStatusID)
	entry.PriorityID = trackedChange(delta.PriorityID, request.PriorityID, snap.LastPriorityID)
	entry.AssigneeID = trackedChange(delta.AssigneeID, request.AssigneeID, snap.LastAssigneeID)

	// Explicit fields on a dirty entry take precedence over computed ones.
	for i := range dirty {
		if dirty[i].StatusID != nil {
			entry.StatusID = nil
		}
		if dirty[i].PriorityID != nil {
			entry.PriorityID = nil
		}
		if dirty[i].AssigneeID != nil {
			entry.AssigneeID = nil
		}
		if dirty[i].Comment != nil {
			entry.Comment = nil
		}
	}

	entry.Visibility = resolveVisibility(&entry, delta.Visibility)

	if entry.Meaningful() {
		out = append(out, entry)
	}
	return out
}

// trackedChange picks the value to record for one tracked field: an explicit
// incoming value wins; otherwise the request's current value is recorded
// when it drifted from the last changelog that set the field.
func trackedChange(incoming, current, lastRecorded *string) *string {
	if incoming != nil {
		return incoming
	}
	if current != nil && !equalPtr(current, lastRecorded) {
		return current
	}
	return nil
}

// resolveVisibility forces status-affecting entries public; anything else
// honors the caller's choice and defaults to private.
func resolveVisibility(entry *domain.ChangeLog, requested *domain.Visibility) domain.Visibility {
	if entry.StatusID != nil || entry.ResolvedAt != nil || entry.ReopenedAt != nil {
		return domain.VisibilityPublic
	}
	if requested != nil {
		return *requested
	}
	return domain.VisibilityPrivate
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
