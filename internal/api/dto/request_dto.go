package dto

import (
	"time"

	"github.com/spec-kit/open311-service/internal/domain"
)

// ReporterPayload carries the embedded reporter contact.
type ReporterPayload struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Account string `json:"account,omitempty"`
}

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	ServiceID      string          `json:"service_id"`
	JurisdictionID string          `json:"jurisdiction_id,omitempty"`
	Description    string          `json:"description"`
	Address        string          `json:"address"`
	Zone           *string         `json:"zone,omitempty"`
	Reporter       ReporterPayload `json:"reporter"`
}

// RequestSummary response.
type RequestSummary struct {
	ID             string           `json:"id"`
	Code           string           `json:"code"`
	JurisdictionID string           `json:"jurisdiction_id"`
	ServiceID      string           `json:"service_id"`
	StatusID       *string          `json:"status_id"`
	PriorityID     *string          `json:"priority_id"`
	AssigneeID     *string          `json:"assignee_id,omitempty"`
	Address        string           `json:"address"`
	Zone           *string          `json:"zone,omitempty"`
	ExpectedAt     *time.Time       `json:"expected_at,omitempty"`
	ResolvedAt     *time.Time       `json:"resolved_at,omitempty"`
	TTR            *domain.Duration `json:"ttr,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// RequestDetailResponse provides full request info.
type RequestDetailResponse struct {
	RequestSummary
	Reporter    ReporterPayload     `json:"reporter"`
	OperatorID  *string             `json:"operator_id,omitempty"`
	Team        []string            `json:"team"`
	Description string              `json:"description"`
	ConfirmedAt *time.Time          `json:"confirmed_at,omitempty"`
	AssignedAt  *time.Time          `json:"assigned_at,omitempty"`
	AttendedAt  *time.Time          `json:"attended_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	VerifiedAt  *time.Time          `json:"verified_at,omitempty"`
	ApprovedAt  *time.Time          `json:"approved_at,omitempty"`
	ReopenedAt  *time.Time          `json:"reopened_at,omitempty"`
	Changelogs  []ChangelogResponse `json:"changelogs"`
}

// NewRequestSummary maps a domain request.
func NewRequestSummary(request *domain.ServiceRequest) RequestSummary {
	return RequestSummary{
		ID:             request.ID,
		Code:           request.Code,
		JurisdictionID: request.JurisdictionID,
		ServiceID:      request.ServiceID,
		StatusID:       request.StatusID,
		PriorityID:     request.PriorityID,
		AssigneeID:     request.AssigneeID,
		Address:        request.Address,
		Zone:           request.Zone,
		ExpectedAt:     request.ExpectedAt,
		ResolvedAt:     request.ResolvedAt,
		TTR:            request.TTR(),
		CreatedAt:      request.CreatedAt,
		UpdatedAt:      request.UpdatedAt,
	}
}

// NewRequestDetail maps a domain request with its changelogs.
func NewRequestDetail(request *domain.ServiceRequest, changelogs []domain.ChangeLog) RequestDetailResponse {
	detail := RequestDetailResponse{
		RequestSummary: NewRequestSummary(request),
		Reporter: ReporterPayload{
			Name:    request.Reporter.Name,
			Phone:   request.Reporter.Phone,
			Email:   request.Reporter.Email,
			Account: request.Reporter.Account,
		},
		OperatorID:  request.OperatorID,
		Team:        request.Team,
		Description: request.Description,
		ConfirmedAt: request.ConfirmedAt,
		AssignedAt:  request.AssignedAt,
		AttendedAt:  request.AttendedAt,
		CompletedAt: request.CompletedAt,
		VerifiedAt:  request.VerifiedAt,
		ApprovedAt:  request.ApprovedAt,
		ReopenedAt:  request.ReopenedAt,
		Changelogs:  make([]ChangelogResponse, 0, len(changelogs)),
	}
	for i := range changelogs {
		detail.Changelogs = append(detail.Changelogs, NewChangelogResponse(&changelogs[i]))
	}
	return detail
}
