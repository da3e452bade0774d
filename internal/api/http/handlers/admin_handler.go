package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketero/queue-service/internal/api/dto"
	"github.com/ticketero/queue-service/internal/service"
)

// AdminHandler serves the supervisor dashboard.
type AdminHandler struct {
	dashboard *service.DashboardService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(dashboardService *service.DashboardService) *AdminHandler {
	return &AdminHandler{dashboard: dashboardService}
}

// Dashboard GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	snapshot, err := h.dashboard.Snapshot(c.UserContext())
	if err != nil {
		return err
	}

	advisors := make([]dto.AdvisorResponse, 0, len(snapshot.Advisors))
	for i := range snapshot.Advisors {
		advisors = append(advisors, dto.NewAdvisorResponse(&snapshot.Advisors[i]))
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"queues":        snapshot.Queues,
		"advisors":      advisors,
		"advisor_stats": snapshot.AdvisorStats,
		"recent_events": snapshot.RecentEvents,
	}})
}

// Audit GET /admin/audit.
func (h *AdminHandler) Audit(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	events, err := h.dashboard.AuditTrail(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": events})
}
