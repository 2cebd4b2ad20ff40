package domain

import "time"

// Visibility controls whether a changelog is exposed to the reporter.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// ChangeLog is an immutable audit entry recording one observed transition of
// a service request. Entries are only ever appended, never edited.
type ChangeLog struct {
	ID        string
	RequestID string
	ChangerID *string

	StatusID   *string
	PriorityID *string
	AssigneeID *string
	Comment    *string
	Visibility Visibility
	Zone       *string

	Item     *string
	Image    *string
	Audio    *string
	Video    *string
	Document *string
	Location *string

	AssignedAt  *time.Time
	AttendedAt  *time.Time
	CompletedAt *time.Time
	VerifiedAt  *time.Time
	ApprovedAt  *time.Time
	ResolvedAt  *time.Time
	ReopenedAt  *time.Time

	// Denormalized from the request at persistence time for query efficiency.
	JurisdictionID string
	GroupID        *string
	TypeID         *string
	ServiceID      string
	ConfirmedAt    *time.Time

	CreatedAt time.Time
}

// IsDirty reports whether the entry has not been persisted yet.
func (c *ChangeLog) IsDirty() bool {
	return c.ID == ""
}

// Meaningful reports whether the entry records at least one observation
// worth keeping. Pure no-ops are discarded rather than persisted.
func (c *ChangeLog) Meaningful() bool {
	return c.StatusID != nil ||
		c.PriorityID != nil ||
		c.AssigneeID != nil ||
		c.Comment != nil ||
		c.ResolvedAt != nil ||
		c.ReopenedAt != nil ||
		c.CompletedAt != nil ||
		c.VerifiedAt != nil ||
		c.ApprovedAt != nil ||
		c.Item != nil ||
		c.Image != nil ||
		c.Audio != nil ||
		c.Video != nil ||
		c.Document != nil ||
		c.Location != nil
}

// ChangelogDelta is the set of observations proposed by a caller. Every
// field is optional; nil means "not observed". Reopening is an explicit flag
// rather than a cleared resolvedAt so intent survives serialization.
type ChangelogDelta struct {
	RequestID string
	ChangerID *string

	StatusID   *string
	PriorityID *string
	AssigneeID *string
	Comment    *string
	Visibility *Visibility
	Member     *string
	Zone       *string

	Item     *string
	Image    *string
	Audio    *string
	Video    *string
	Document *string
	Location *string

	AttendedAt  *time.Time
	CompletedAt *time.Time
	VerifiedAt  *time.Time
	ApprovedAt  *time.Time
	ResolvedAt  *time.Time
	Reopen      bool
}

// TouchesResolution reports whether the delta resolves or reopens the
// request. Such transitions are always publicly visible.
func (d *ChangelogDelta) TouchesResolution() bool {
	return d.ResolvedAt != nil || d.Reopen
}
