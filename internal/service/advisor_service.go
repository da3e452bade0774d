package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ticketero/queue-service/internal/auth"
	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/repository"
	apperrors "github.com/ticketero/queue-service/pkg/util"
)

// AdvisorService handles advisor authentication and availability.
type AdvisorService struct {
	advisors repository.AdvisorRepository
	tokens   *auth.TokenManager
	logger   *zap.Logger
	now      func() time.Time
}

// AdvisorDependencies bundles collaborators.
type AdvisorDependencies struct {
	AdvisorRepo repository.AdvisorRepository
	Tokens      *auth.TokenManager
	Logger      *zap.Logger
	Now         func() time.Time
}

// LoginResult carries the issued token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Advisor   *domain.Advisor
}

// NewAdvisorService constructs the service.
func NewAdvisorService(deps AdvisorDependencies) *AdvisorService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AdvisorService{
		advisors: deps.AdvisorRepo,
		tokens:   deps.Tokens,
		logger:   deps.Logger,
		now:      now,
	}
}

// Login verifies credentials and issues a bearer token.
func (s *AdvisorService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	advisor, err := s.advisors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(advisor.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(advisor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Advisor: advisor}, nil
}

// SetStatus flips an advisor between AVAILABLE and OFFLINE. BUSY is
// engine-managed and cannot be requested directly.
func (s *AdvisorService) SetStatus(ctx context.Context, advisor *domain.Advisor, status domain.AdvisorStatus) (*domain.Advisor, error) {
	if advisor == nil {
		return nil, apperrors.NewUnauthorized("advisor required")
	}
	if status != domain.AdvisorStatusAvailable && status != domain.AdvisorStatusOffline {
		return nil, apperrors.NewValidationError("status must be AVAILABLE or OFFLINE", map[string]any{"status": status})
	}

	if err := s.advisors.UpdateStatus(ctx, advisor.ID, status, s.now()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("advisor", map[string]any{"advisor_id": advisor.ID})
		}
		return nil, apperrors.MapError(err)
	}
	advisor.Status = status
	return advisor, nil
}

// List returns every advisor ordered by module number.
func (s *AdvisorService) List(ctx context.Context) ([]domain.Advisor, error) {
	advisors, err := s.advisors.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return advisors, nil
}
