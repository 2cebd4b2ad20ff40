package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/open311-service/internal/repository"
	"github.com/spec-kit/open311-service/internal/service"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

// AnalyticsHandler exposes duration and volume reports.
type AnalyticsHandler struct {
	analytics *service.DurationAnalytics
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.DurationAnalytics) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Overview handles GET /analytics/overview.
func (h *AnalyticsHandler) Overview(c *fiber.Ctx) error {
	window, err := parseWindow(c)
	if err != nil {
		return err
	}
	report, err := h.analytics.Overview(c.Context(), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// Operators handles GET /analytics/operators.
func (h *AnalyticsHandler) Operators(c *fiber.Ctx) error {
	window, err := parseWindow(c)
	if err != nil {
		return err
	}
	reports, err := h.analytics.OperatorWork(c.Context(), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reports})
}

// parseWindow reads the optional from/to bounds. Absent bounds stay zero,
// which the repository treats as unbounded.
func parseWindow(c *fiber.Ctx) (repository.TimeWindow, error) {
	var window repository.TimeWindow
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return window, apperrors.NewValidationError("from must be RFC3339", nil)
		}
		window.From = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return window, apperrors.NewValidationError("to must be RFC3339", nil)
		}
		window.To = parsed
	}
	if !window.From.IsZero() && !window.To.IsZero() && window.To.Before(window.From) {
		return window, apperrors.NewValidationError("to must not precede from", nil)
	}
	return window, nil
}
