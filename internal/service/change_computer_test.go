package service

import (
	"testing"
	"time"

	"github.com/spec-kit/open311-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestComputeChangesSeedsFirstEntry(t *testing.T) {
	now := time.Now()
	operator := "op-1"
	request := &domain.ServiceRequest{
		ID:         "req-1",
		StatusID:   strPtr("st-open"),
		PriorityID: strPtr("pr-high"),
		OperatorID: &operator,
	}

	entries := ComputeChanges(Snapshot{Request: request}, domain.ChangelogDelta{}, nil, now)

	if len(entries) != 1 {
		t.Fatalf("expected one seed entry, got %d", len(entries))
	}
	seed := entries[0]
	if seed.StatusID == nil || *seed.StatusID != "st-open" {
		t.Fatalf("seed must capture current status, got %v", seed.StatusID)
	}
	if seed.PriorityID == nil || *seed.PriorityID != "pr-high" {
		t.Fatalf("seed must capture current priority, got %v", seed.PriorityID)
	}
	if seed.ChangerID == nil || *seed.ChangerID != operator {
		t.Fatalf("seed changer must default to operator, got %v", seed.ChangerID)
	}
	if seed.Visibility != domain.VisibilityPublic {
		t.Fatalf("seed must be public, got %s", seed.Visibility)
	}
}

func TestComputeChangesSuppressesNoOp(t *testing.T) {
	now := time.Now()
	request := &domain.ServiceRequest{
		ID:         "req-1",
		StatusID:   strPtr("st-open"),
		PriorityID: strPtr("pr-high"),
	}
	snap := Snapshot{
		Request:        request,
		HasChangelogs:  true,
		LastStatusID:   strPtr("st-open"),
		LastPriorityID: strPtr("pr-high"),
	}

	entries := ComputeChanges(snap, domain.ChangelogDelta{}, nil, now)
	if len(entries) != 0 {
		t.Fatalf("expected no entries for a no-op delta, got %d", len(entries))
	}
}

func TestComputeChangesRecordsDriftedFields(t *testing.T) {
	now := time.Now()
	request := &domain.ServiceRequest{
		ID:         "req-1",
		StatusID:   strPtr("st-progress"),
		PriorityID: strPtr("pr-high"),
		AssigneeID: strPtr("p-9"),
	}
	snap := Snapshot{
		Request:        request,
		HasChangelogs:  true,
		LastStatusID:   strPtr("st-open"),
		LastPriorityID: strPtr("pr-high"),
	}

	entries := ComputeChanges(snap, domain.ChangelogDelta{}, nil, now)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.StatusID == nil || *entry.StatusID != "st-progress" {
		t.Fatalf("drifted status must be recorded, got %v", entry.StatusID)
	}
	if entry.PriorityID != nil {
		t.Fatal("unchanged priority must not be recorded")
	}
	if entry.AssigneeID == nil || *entry.AssigneeID != "p-9" {
		t.Fatalf("assignee never recorded before must be recorded, got %v", entry.AssigneeID)
	}
	if entry.Visibility != domain.VisibilityPublic {
		t.Fatal("status-bearing entry must be public")
	}
}

func TestComputeChangesIncomingValueWins(t *testing.T) {
	now := time.Now()
	request := &domain.ServiceRequest{ID: "req-1", StatusID: strPtr("st-open")}
	snap := Snapshot{Request: request, HasChangelogs: true, LastStatusID: strPtr("st-open")}

	entries := ComputeChanges(snap, domain.ChangelogDelta{StatusID: strPtr("st-closed")}, nil, now)
	if len(entries) != 1 || entries[0].StatusID == nil || *entries[0].StatusID != "st-closed" {
		t.Fatalf("incoming status must win: %+v", entries)
	}
}

func TestComputeChangesCommentDefaultsPrivate(t *testing.T) {
	now := time.Now()
	request := &domain.ServiceRequest{ID: "req-1"}
	snap := Snapshot{Request: request, HasChangelogs: true}

	entries := ComputeChanges(snap, domain.ChangelogDelta{Comment: strPtr("internal note")}, nil, now)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].Visibility != domain.VisibilityPrivate {
		t.Fatalf("comment-only entry must default private, got %s", entries[0].Visibility)
	}

	public := domain.VisibilityPublic
	entries = ComputeChanges(snap, domain.ChangelogDelta{
		Comment:    strPtr("we are on it"),
		Visibility: &public,
	}, nil, now)
	if entries[0].Visibility != domain.VisibilityPublic {
		t.Fatal("requested public visibility must be honored")
	}
}

func TestComputeChangesResolutionForcesPublic(t *testing.T) {
	now := time.Now()
	resolvedAt := now.Add(-time.Minute)
	request := &domain.ServiceRequest{ID: "req-1"}
	snap := Snapshot{Request: request, HasChangelogs: true}

	private := domain.VisibilityPrivate
	entries := ComputeChanges(snap, domain.ChangelogDelta{
		ResolvedAt: &resolvedAt,
		Visibility: &private,
	}, nil, now)
	if len(entries) != 1 || entries[0].Visibility != domain.VisibilityPublic {
		t.Fatalf("resolution must be public regardless of request: %+v", entries)
	}
}

func TestComputeChangesReopenStampsReopenedAt(t *testing.T) {
	now := time.Now()
	reopenedAt := now.Add(-time.Hour)
	request := &domain.ServiceRequest{ID: "req-1", ReopenedAt: &reopenedAt}
	snap := Snapshot{Request: request, HasChangelogs: true}

	entries := ComputeChanges(snap, domain.ChangelogDelta{Reopen: true}, nil, now)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].ReopenedAt == nil || !entries[0].ReopenedAt.Equal(reopenedAt) {
		t.Fatalf("expected request reopenedAt on entry, got %v", entries[0].ReopenedAt)
	}
	if entries[0].Visibility != domain.VisibilityPublic {
		t.Fatal("reopen entry must be public")
	}
}

func TestComputeChangesStampsDirtyEntries(t *testing.T) {
	now := time.Now()
	changer := "op-1"
	request := &domain.ServiceRequest{ID: "req-1"}
	snap := Snapshot{Request: request, HasChangelogs: true}

	dirty := []domain.ChangeLog{{Comment: strPtr("queued note")}}
	entries := ComputeChanges(snap, domain.ChangelogDelta{ChangerID: &changer}, dirty, now)

	if len(entries) != 1 {
		t.Fatalf("expected only the dirty entry, got %d", len(entries))
	}
	stamped := entries[0]
	if stamped.ChangerID == nil || *stamped.ChangerID != changer {
		t.Fatalf("dirty changer must be backfilled, got %v", stamped.ChangerID)
	}
	if stamped.RequestID != "req-1" {
		t.Fatalf("dirty request id must be stamped, got %q", stamped.RequestID)
	}
	if !stamped.CreatedAt.Equal(now) {
		t.Fatal("dirty createdAt must be stamped")
	}
	if stamped.Visibility != domain.VisibilityPrivate {
		t.Fatal("dirty visibility must default private")
	}
}

func TestComputeChangesDirtyFieldSuppressesComputed(t *testing.T) {
	now := time.Now()
	request := &domain.ServiceRequest{ID: "req-1", StatusID: strPtr("st-progress")}
	snap := Snapshot{Request: request, HasChangelogs: true, LastStatusID: strPtr("st-open")}

	dirty := []domain.ChangeLog{{StatusID: strPtr("st-manual")}}
	entries := ComputeChanges(snap, domain.ChangelogDelta{Comment: strPtr("note")}, dirty, now)

	if len(entries) != 2 {
		t.Fatalf("expected dirty + computed entries, got %d", len(entries))
	}
	computed := entries[1]
	if computed.StatusID != nil {
		t.Fatal("explicit dirty status must suppress the computed status diff")
	}
	if computed.Comment == nil {
		t.Fatal("computed comment must survive when no dirty entry carries one")
	}
}
