package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/events"
	"github.com/ticketero/queue-service/internal/observability"
	"github.com/ticketero/queue-service/internal/repository"
)

// AssignmentService matches waiting tickets to available advisors. Each
// tick drains as many pairs as it can: assignment stops only when tickets
// or advisor capacity run out.
type AssignmentService struct {
	tickets    repository.TicketRepository
	advisors   repository.AdvisorRepository
	messages   repository.MessageRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo  repository.TicketRepository
	AdvisorRepo repository.AdvisorRepository
	MessageRepo repository.MessageRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		advisors:   deps.AdvisorRepo,
		messages:   deps.MessageRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        now,
	}
}

// RunTick performs one assignment pass. Tickets are taken in queue
// priority order (class rank descending, then FIFO); advisors by fewest
// current tickets, then longest idle. A bind that loses a concurrent race
// is skipped, never retried within the tick.
func (s *AssignmentService) RunTick(ctx context.Context) (int, error) {
	waiting, err := s.tickets.FindWaitingOrderedByPriority(ctx)
	if err != nil {
		return 0, err
	}
	if len(waiting) == 0 {
		return 0, nil
	}

	available, err := s.advisors.FindAvailableOrderedByLoad(ctx)
	if err != nil {
		return 0, err
	}
	if len(available) == 0 {
		return 0, nil
	}

	assigned := 0
	for i := range waiting {
		advisor := pickAdvisor(available)
		if advisor == nil {
			break
		}

		ticket := &waiting[i]
		bound, err := s.tickets.BindToAdvisor(ctx, ticket.ID, advisor.ID, s.now())
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				// Ticket or advisor changed under us; the next tick
				// sees the fresh state.
				s.logger.Warn("assignment lost concurrent race",
					zap.String("ticket", ticket.Number),
					zap.Int64("advisor_id", advisor.ID))
				advisor.Status = domain.AdvisorStatusOffline
				continue
			}
			return assigned, err
		}

		advisor.AssignTicket(s.now())
		assigned++
		s.metrics.RecordAssignment(string(bound.QueueClass))

		if err := s.enqueueAgentReady(ctx, bound); err != nil {
			s.logger.Error("enqueue agent ready failed",
				zap.String("ticket", bound.Number), zap.Error(err))
		}

		s.publishAssigned(ctx, bound)
	}
	return assigned, nil
}

// pickAdvisor returns the least loaded advisor that still has capacity,
// or nil when capacity is exhausted.
func pickAdvisor(advisors []domain.Advisor) *domain.Advisor {
	sort.SliceStable(advisors, func(i, j int) bool {
		if advisors[i].CurrentTickets != advisors[j].CurrentTickets {
			return advisors[i].CurrentTickets < advisors[j].CurrentTickets
		}
		if !advisors[i].UpdatedAt.Equal(advisors[j].UpdatedAt) {
			return advisors[i].UpdatedAt.Before(advisors[j].UpdatedAt)
		}
		return advisors[i].ID < advisors[j].ID
	})
	for i := range advisors {
		if advisors[i].Eligible() {
			return &advisors[i]
		}
	}
	return nil
}

func (s *AssignmentService) enqueueAgentReady(ctx context.Context, ticket *domain.Ticket) error {
	message := &domain.OutboundMessage{
		TicketID: ticket.ID,
		Address:  ticket.Phone,
		Template: domain.TemplateAgentReady,
		Status:   domain.DeliveryStatusPending,
	}
	return s.messages.Create(ctx, message)
}

func (s *AssignmentService) publishAssigned(ctx context.Context, ticket *domain.Ticket) {
	payload := events.TicketAssignedPayload{}
	if ticket.AdvisorID != nil {
		payload.AdvisorID = *ticket.AdvisorID
	}
	if ticket.AdvisorName != nil {
		payload.AdvisorName = *ticket.AdvisorName
	}
	if ticket.ModuleNumber != nil {
		payload.ModuleNumber = *ticket.ModuleNumber
	}
	event := events.Event{
		ID:           uuid.NewString(),
		Type:         events.EventTicketAssigned,
		TicketNumber: ticket.Number,
		Actor:        systemActor(),
		Timestamp:    s.now(),
		Payload:      payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Error("publish assignment event failed", zap.Error(err))
	}
}
