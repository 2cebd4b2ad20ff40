package domain

import "time"

// ServiceRequest is the mutable current state of a reported issue. It is
// created once through the preparer, mutated only through the change tracker
// and never physically deleted.
type ServiceRequest struct {
	ID             string
	Code           string
	JurisdictionID string
	GroupID        *string
	TypeID         *string
	ServiceID      string
	PriorityID     *string
	StatusID       *string
	Reporter       Reporter
	OperatorID     *string
	AssigneeID     *string
	Team           []string
	Description    string
	Address        string
	Zone           *string

	ConfirmedAt *time.Time
	ExpectedAt  *time.Time
	AssignedAt  *time.Time
	AttendedAt  *time.Time
	CompletedAt *time.Time
	VerifiedAt  *time.Time
	ApprovedAt  *time.Time
	ResolvedAt  *time.Time
	ReopenedAt  *time.Time

	TTRMillis *int64

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TTR returns the time-to-resolve as a Duration, or nil when unresolved.
func (r *ServiceRequest) TTR() *Duration {
	if r.TTRMillis == nil {
		return nil
	}
	d := DurationFromMillis(*r.TTRMillis)
	return &d
}

// AddTeamMember unions a party into the team, deduplicated by identity.
func (r *ServiceRequest) AddTeamMember(partyID string) {
	if partyID == "" {
		return
	}
	for _, id := range r.Team {
		if id == partyID {
			return
		}
	}
	r.Team = append(r.Team, partyID)
}

// Resolve stamps resolvedAt and backfills the downstream flow timestamps
// that were never reached, so the audit timeline stays monotone.
func (r *ServiceRequest) Resolve(at time.Time) {
	r.ResolvedAt = &at
	if r.AssignedAt == nil {
		r.AssignedAt = &at
	}
	if r.AttendedAt == nil {
		r.AttendedAt = &at
	}
	if r.CompletedAt == nil {
		r.CompletedAt = &at
	}
	if r.VerifiedAt == nil {
		r.VerifiedAt = &at
	}
	if r.ApprovedAt == nil {
		r.ApprovedAt = &at
	}
	ttr := at.Sub(r.CreatedAt).Milliseconds()
	if ttr < 0 {
		ttr = -ttr
	}
	r.TTRMillis = &ttr
}

// Reopen clears the resolution and its downstream timestamps and stamps a
// fresh reopenedAt.
func (r *ServiceRequest) Reopen(at time.Time) {
	r.TTRMillis = nil
	r.ResolvedAt = nil
	r.AttendedAt = nil
	r.CompletedAt = nil
	r.VerifiedAt = nil
	r.ApprovedAt = nil
	r.ReopenedAt = &at
}
