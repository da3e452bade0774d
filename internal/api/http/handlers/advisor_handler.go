package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketero/queue-service/internal/api/dto"
	"github.com/ticketero/queue-service/internal/auth"
	"github.com/ticketero/queue-service/internal/service"
	apperrors "github.com/ticketero/queue-service/pkg/util"
)

// AdvisorHandler manages advisor authentication and ticket workflow
// endpoints.
type AdvisorHandler struct {
	advisors *service.AdvisorService
	tickets  *service.TicketService
}

// NewAdvisorHandler constructs handler.
func NewAdvisorHandler(advisorService *service.AdvisorService, ticketService *service.TicketService) *AdvisorHandler {
	return &AdvisorHandler{advisors: advisorService, tickets: ticketService}
}

// Login POST /auth/advisors/login.
func (h *AdvisorHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.advisors.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Advisor:   dto.NewAdvisorResponse(result.Advisor),
	}})
}

// SetStatus PUT /advisors/me/status.
func (h *AdvisorHandler) SetStatus(c *fiber.Ctx) error {
	advisor, ok := auth.AdvisorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("advisor required")
	}
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	updated, err := h.advisors.SetStatus(c.UserContext(), advisor, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAdvisorResponse(updated)})
}

// StartService POST /advisors/tickets/:number/start.
func (h *AdvisorHandler) StartService(c *fiber.Ctx) error {
	advisor, ok := auth.AdvisorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("advisor required")
	}
	ticket, err := h.tickets.StartService(c.UserContext(), advisor, c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Complete POST /advisors/tickets/:number/complete.
func (h *AdvisorHandler) Complete(c *fiber.Ctx) error {
	advisor, ok := auth.AdvisorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("advisor required")
	}
	ticket, err := h.tickets.Complete(c.UserContext(), advisor, c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// List GET /advisors.
func (h *AdvisorHandler) List(c *fiber.Ctx) error {
	advisors, err := h.advisors.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AdvisorResponse, 0, len(advisors))
	for i := range advisors {
		items = append(items, dto.NewAdvisorResponse(&advisors[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
