package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/open311-service/internal/api/dto"
	"github.com/spec-kit/open311-service/internal/auth"
	"github.com/spec-kit/open311-service/internal/service"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

// ChangelogsHandler records and lists request transitions.
type ChangelogsHandler struct {
	tracker  *service.ChangeTracker
	requests *service.RequestService
}

// NewChangelogsHandler constructs handler.
func NewChangelogsHandler(tracker *service.ChangeTracker, requests *service.RequestService) *ChangelogsHandler {
	return &ChangelogsHandler{tracker: tracker, requests: requests}
}

// Create handles POST /requests/:id/changelogs.
func (h *ChangelogsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.TrackChangelogRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	requestID := c.Params("id")
	changerID := principal.Party.ID
	input := service.TrackInput{
		RequestID: requestID,
		Delta:     req.ToDelta(requestID, &changerID),
	}

	updated, err := h.tracker.Track(c.Context(), input)
	if err != nil {
		return err
	}

	changelogs, err := h.requests.ListChangelogs(c.Context(), updated.ID, false)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewRequestDetail(updated, changelogs),
	})
}

// List handles GET /requests/:id/changelogs.
func (h *ChangelogsHandler) List(c *fiber.Ctx) error {
	_, authenticated := auth.PrincipalFromContext(c)
	entries, err := h.requests.ListChangelogs(c.Context(), c.Params("id"), !authenticated)
	if err != nil {
		return err
	}

	responses := make([]dto.ChangelogResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, dto.NewChangelogResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}
