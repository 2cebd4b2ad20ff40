package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/open311-service/internal/api/dto"
	"github.com/spec-kit/open311-service/internal/auth"
	"github.com/spec-kit/open311-service/internal/domain"
	"github.com/spec-kit/open311-service/internal/repository"
	"github.com/spec-kit/open311-service/internal/service"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

// RequestsHandler exposes service request creation and reads.
type RequestsHandler struct {
	requests *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService) *RequestsHandler {
	return &RequestsHandler{requests: requests}
}

// Create handles POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ServiceID == "" {
		return apperrors.NewValidationError("service_id is required", nil)
	}

	request := &domain.ServiceRequest{
		JurisdictionID: req.JurisdictionID,
		ServiceID:      req.ServiceID,
		Description:    req.Description,
		Address:        req.Address,
		Zone:           req.Zone,
		Reporter: domain.Reporter{
			Name:    req.Reporter.Name,
			Phone:   req.Reporter.Phone,
			Email:   req.Reporter.Email,
			Account: req.Reporter.Account,
		},
	}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		request.OperatorID = &principal.Party.ID
	}

	created, err := h.requests.Create(c.Context(), request)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewRequestSummary(created),
	})
}

// List handles GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	filter := repository.RequestFilter{
		JurisdictionID: queryPtr(c, "jurisdiction_id"),
		ServiceID:      queryPtr(c, "service_id"),
		StatusID:       queryPtr(c, "status_id"),
		PriorityID:     queryPtr(c, "priority_id"),
		OperatorID:     queryPtr(c, "operator_id"),
		AssigneeID:     queryPtr(c, "assignee_id"),
		ReporterPhone:  queryPtr(c, "reporter_phone"),
		Limit:          c.QueryInt("limit", 50),
		Offset:         c.QueryInt("offset", 0),
	}
	if from, err := queryTime(c, "created_from"); err != nil {
		return err
	} else if from != nil {
		filter.CreatedFrom = from
	}
	if to, err := queryTime(c, "created_to"); err != nil {
		return err
	} else if to != nil {
		filter.CreatedTo = to
	}
	if raw := c.Query("resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewValidationError("resolved must be a boolean", nil)
		}
		filter.Resolved = &resolved
	}

	requests, err := h.requests.List(c.Context(), filter)
	if err != nil {
		return err
	}

	summaries := make([]dto.RequestSummary, 0, len(requests))
	for i := range requests {
		summaries = append(summaries, dto.NewRequestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": summaries})
}

// Get handles GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	_, authenticated := auth.PrincipalFromContext(c)
	request, changelogs, err := h.requests.GetByID(c.Context(), c.Params("id"), !authenticated)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestDetail(request, changelogs)})
}

// GetByCode handles GET /requests/code/:code. Reporters track their request
// with the ticket code alone, so only public changelogs are attached.
func (h *RequestsHandler) GetByCode(c *fiber.Ctx) error {
	request, err := h.requests.GetByCode(c.Context(), c.Params("code"))
	if err != nil {
		return err
	}
	changelogs, err := h.requests.ListChangelogs(c.Context(), request.ID, true)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestDetail(request, changelogs)})
}

func queryPtr(c *fiber.Ctx, key string) *string {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	return &val
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.NewValidationError(key+" must be RFC3339", nil)
	}
	return &parsed, nil
}
