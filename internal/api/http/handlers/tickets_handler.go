package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketero/queue-service/internal/api/dto"
	"github.com/ticketero/queue-service/internal/service"
	apperrors "github.com/ticketero/queue-service/pkg/util"
)

// TicketsHandler manages the public ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		NationalID:   req.NationalID,
		Phone:        req.Phone,
		BranchOffice: req.BranchOffice,
		QueueClass:   req.QueueClass,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// GetTicket GET /tickets/:reference_code.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetByReferenceCode(c.UserContext(), c.Params("reference_code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// CancelTicket POST /tickets/:reference_code/cancel.
func (h *TicketsHandler) CancelTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Cancel(c.UserContext(), c.Params("reference_code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}
