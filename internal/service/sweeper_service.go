package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/events"
	"github.com/ticketero/queue-service/internal/observability"
	"github.com/ticketero/queue-service/internal/repository"
)

// SweeperService expires assigned tickets whose customer never showed up,
// returning the advisor's capacity to the pool.
type SweeperService struct {
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	timeout    time.Duration
	now        func() time.Time
}

// SweeperDependencies bundles collaborators.
type SweeperDependencies struct {
	TicketRepo    repository.TicketRepository
	MessageRepo   repository.MessageRepository
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	NoShowTimeout time.Duration
	Now           func() time.Time
}

// NewSweeperService creates the service.
func NewSweeperService(deps SweeperDependencies) *SweeperService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	timeout := deps.NoShowTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &SweeperService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		timeout:    timeout,
		now:        now,
	}
}

// RunTick expires every ticket that has sat in ASSIGNED longer than the
// no-show timeout. The conditional transition makes the sweep idempotent:
// a ticket that moved on concurrently is simply skipped.
func (s *SweeperService) RunTick(ctx context.Context) (int, error) {
	now := s.now()
	stale, err := s.tickets.FindAssignedOlderThan(ctx, now.Add(-s.timeout))
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		ticket := &stale[i]
		if err := s.tickets.Transition(ctx, ticket.ID, domain.TicketStatusAssigned, domain.TicketStatusNoShow, now); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			return expired, err
		}
		expired++
		s.metrics.RecordNoShow()

		if ticket.AdvisorID != nil {
			if err := s.tickets.ReleaseAdvisor(ctx, *ticket.AdvisorID, now); err != nil {
				s.logger.Error("release advisor after no-show failed",
					zap.Int64("advisor_id", *ticket.AdvisorID), zap.Error(err))
			}
		}
		if _, err := s.messages.CancelPendingByTicket(ctx, ticket.ID); err != nil {
			s.logger.Error("cancel pending messages after no-show failed",
				zap.String("ticket", ticket.Number), zap.Error(err))
		}

		event := events.Event{
			ID:           uuid.NewString(),
			Type:         events.EventTicketNoShow,
			TicketNumber: ticket.Number,
			Actor:        systemActor(),
			Timestamp:    now,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: domain.TicketStatusAssigned,
				NewStatus: domain.TicketStatusNoShow,
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Error("publish no-show event failed", zap.Error(err))
		}
	}
	return expired, nil
}
