package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/open311-service/internal/api/dto"
	"github.com/spec-kit/open311-service/internal/auth"
	"github.com/spec-kit/open311-service/internal/service"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

// AuthHandler exposes authentication endpoints for parties.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	token, expiresAt, party, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			PartyID:   party.ID,
			Name:      party.Name,
		},
	})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.auth.ChangePassword(c.Context(), principal.Party.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"data": fiber.Map{"changed": true},
	})
}
