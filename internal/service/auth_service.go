package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/open311-service/internal/auth"
	"github.com/spec-kit/open311-service/internal/config"
	"github.com/spec-kit/open311-service/internal/domain"
	"github.com/spec-kit/open311-service/internal/repository"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

// AuthService authenticates parties (operators, technicians) and issues
// bearer tokens for the protected API surface.
type AuthService struct {
	parties repository.PartyRepository
	tokens  *auth.TokenManager
	cfg     config.AuthConfig
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, parties repository.PartyRepository) *AuthService {
	return &AuthService{
		parties: parties,
		tokens:  auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		cfg:     cfg,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, *domain.Party, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", time.Time{}, nil, apperrors.NewValidationError("email and password are required", nil)
	}

	party, err := s.parties.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return "", time.Time{}, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(party.PasswordHash, password); err != nil {
		return "", time.Time{}, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(party.ID)
	if err != nil {
		return "", time.Time{}, nil, apperrors.MapError(err)
	}
	return token, expiresAt, party, nil
}

// ChangePassword rotates a party's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, partyID, current, next string) error {
	if strings.TrimSpace(next) == "" {
		return apperrors.NewValidationError("new password is required", nil)
	}
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("party", map[string]any{"party_id": partyID})
		}
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(party.PasswordHash, current); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hashed, err := auth.HashPassword(next, s.cfg.BcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	return apperrors.MapError(s.parties.UpdatePassword(ctx, party.ID, hashed))
}
