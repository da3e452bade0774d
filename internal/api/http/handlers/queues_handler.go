package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketero/queue-service/internal/api/dto"
	"github.com/ticketero/queue-service/internal/cache"
	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/service"
	apperrors "github.com/ticketero/queue-service/pkg/util"
)

// QueuesHandler serves the public queue status views from the snapshot
// cache, falling back to live counts when a snapshot has expired.
type QueuesHandler struct {
	snapshots *cache.QueueSnapshotCache
	dashboard *service.DashboardService
}

// NewQueuesHandler constructs handler.
func NewQueuesHandler(snapshots *cache.QueueSnapshotCache, dashboard *service.DashboardService) *QueuesHandler {
	return &QueuesHandler{snapshots: snapshots, dashboard: dashboard}
}

// ListQueues GET /queues.
func (h *QueuesHandler) ListQueues(c *fiber.Ctx) error {
	items := make([]dto.QueueStatusResponse, 0, len(domain.QueueClasses()))
	for _, class := range domain.QueueClasses() {
		status, err := h.queueStatus(c, class)
		if err != nil {
			return err
		}
		items = append(items, *status)
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetQueue GET /queues/:class.
func (h *QueuesHandler) GetQueue(c *fiber.Ctx) error {
	class, err := domain.ParseQueueClass(c.Params("class"))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"class": c.Params("class")})
	}
	status, err := h.queueStatus(c, class)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": status})
}

func (h *QueuesHandler) queueStatus(c *fiber.Ctx, class domain.QueueClass) (*dto.QueueStatusResponse, error) {
	snapshot, err := h.snapshots.Get(c.UserContext(), class)
	if err == nil && snapshot != nil {
		status := &dto.QueueStatusResponse{
			Class:                 snapshot.Class,
			DisplayName:           snapshot.Class.DisplayName(),
			Waiting:               snapshot.Waiting,
			TotalEstimatedMinutes: snapshot.TotalEstimatedMinutes,
			NextNumber:            snapshot.NextNumber,
			UpdatedAt:             snapshot.UpdatedAt,
		}
		for _, ticket := range snapshot.Tickets {
			status.Tickets = append(status.Tickets, dto.QueueStatusTicket{
				Number:               ticket.Number,
				Position:             ticket.Position,
				EstimatedWaitMinutes: ticket.EstimatedWaitMinutes,
			})
		}
		return status, nil
	}

	// Cache miss or Redis outage: fall back to the live counts.
	board, err := h.dashboard.Snapshot(c.UserContext())
	if err != nil {
		return nil, err
	}
	for _, queue := range board.Queues {
		if queue.Class == class {
			return &dto.QueueStatusResponse{
				Class:                 queue.Class,
				DisplayName:           queue.DisplayName,
				Waiting:               queue.Waiting,
				TotalEstimatedMinutes: queue.TotalEstimatedMinutes,
			}, nil
		}
	}
	return &dto.QueueStatusResponse{Class: class, DisplayName: class.DisplayName()}, nil
}
