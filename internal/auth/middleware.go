package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/open311-service/internal/domain"
	"github.com/spec-kit/open311-service/internal/repository"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated party.
type Principal struct {
	Party *domain.Party
}

// AuthMiddleware validates bearer tokens and loads the acting party.
type AuthMiddleware struct {
	tokens  *TokenManager
	parties repository.PartyRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, parties repository.PartyRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, parties: parties}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	party, err := m.parties.GetByID(c.Context(), claims.PartyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("party not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{Party: party})
	return c.Next()
}

// Optional loads the acting party when a bearer token is present but lets
// anonymous callers through. Handlers downgrade to public-only views when no
// principal is set.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return c.Next()
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	party, err := m.parties.GetByID(c.Context(), claims.PartyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("party not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{Party: party})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated party.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
