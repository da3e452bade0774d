package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/repository"
	apperrors "github.com/ticketero/queue-service/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads the advisor behind them.
type AuthMiddleware struct {
	tokens   *TokenManager
	advisors repository.AdvisorRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, advisors repository.AdvisorRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, advisors: advisors}
}

// Handle enforces authentication for advisor routes.
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

	advisor, err := m.advisors.GetByID(c.Context(), claims.AdvisorID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("advisor not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, advisor)
	return c.Next()
}

// AdvisorFromContext retrieves the authenticated advisor.
func AdvisorFromContext(c *fiber.Ctx) (*domain.Advisor, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	advisor, ok := val.(*domain.Advisor)
	return advisor, ok
}
