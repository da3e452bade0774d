package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ticketero/queue-service/internal/cache"
	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/observability"
	"github.com/ticketero/queue-service/internal/repository"
)

// PositionService recomputes queue positions, wait estimates and
// proximity alerts on every engine tick, then publishes per-class
// snapshots for the public status endpoint.
type PositionService struct {
	tickets   repository.TicketRepository
	messages  repository.MessageRepository
	snapshots *cache.QueueSnapshotCache
	metrics   *observability.Metrics
	logger    *zap.Logger
	threshold int
	now       func() time.Time
}

// PositionDependencies bundles collaborators.
type PositionDependencies struct {
	TicketRepo         repository.TicketRepository
	MessageRepo        repository.MessageRepository
	Snapshots          *cache.QueueSnapshotCache
	Metrics            *observability.Metrics
	Logger             *zap.Logger
	ProximityThreshold int
	Now                func() time.Time
}

// NewPositionService creates the service.
func NewPositionService(deps PositionDependencies) *PositionService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	threshold := deps.ProximityThreshold
	if threshold < 1 {
		threshold = 3
	}
	return &PositionService{
		tickets:   deps.TicketRepo,
		messages:  deps.MessageRepo,
		snapshots: deps.Snapshots,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		threshold: threshold,
		now:       now,
	}
}

// RunTick renumbers every waiting ticket per class (1-based, FIFO within
// the class), refreshes wait estimates, fires proximity alerts for
// tickets entering the threshold band and re-arms the alert for tickets
// pushed back out of it.
func (s *PositionService) RunTick(ctx context.Context) error {
	waiting, err := s.tickets.FindWaitingOrderedByPriority(ctx)
	if err != nil {
		return err
	}

	byClass := make(map[domain.QueueClass][]domain.Ticket, len(domain.QueueClasses()))
	for _, ticket := range waiting {
		byClass[ticket.QueueClass] = append(byClass[ticket.QueueClass], ticket)
	}

	now := s.now()
	for _, class := range domain.QueueClasses() {
		tickets := byClass[class]
		s.metrics.SetQueueLength(string(class), len(tickets))

		snapshot := &cache.QueueSnapshot{
			Class:     class,
			Waiting:   len(tickets),
			UpdatedAt: now,
		}
		for i := range tickets {
			ticket := &tickets[i]
			position := i + 1
			estimated := position * class.AvgServiceMinutes()

			changed := ticket.Position == nil || *ticket.Position != position ||
				ticket.EstimatedWaitMinutes != estimated

			if position <= s.threshold && !ticket.ProximityNotified {
				if err := s.enqueueProximityAlert(ctx, ticket); err != nil {
					s.logger.Error("enqueue proximity alert failed",
						zap.String("ticket", ticket.Number), zap.Error(err))
				} else {
					ticket.ProximityNotified = true
					changed = true
				}
			} else if position > s.threshold && ticket.ProximityNotified {
				// Pushed back out of the band; re-arm so the alert
				// fires again when the ticket comes back.
				ticket.ProximityNotified = false
				changed = true
			}

			ticket.Position = &position
			ticket.EstimatedWaitMinutes = estimated
			ticket.UpdatedAt = now

			if changed {
				if err := s.tickets.UpdateQueueState(ctx, ticket); err != nil {
					if errors.Is(err, repository.ErrConflict) {
						// Ticket left WAITING mid-tick; skip it.
						continue
					}
					return err
				}
			}

			if snapshot.NextNumber == "" {
				snapshot.NextNumber = ticket.Number
			}
			snapshot.Tickets = append(snapshot.Tickets, cache.SnapshotTicket{
				Number:               ticket.Number,
				Position:             position,
				EstimatedWaitMinutes: estimated,
			})
			snapshot.TotalEstimatedMinutes = estimated
		}

		if s.snapshots != nil {
			if err := s.snapshots.Put(ctx, snapshot); err != nil {
				s.logger.Error("publish queue snapshot failed",
					zap.String("queue_class", string(class)), zap.Error(err))
			}
		}
	}
	return nil
}

func (s *PositionService) enqueueProximityAlert(ctx context.Context, ticket *domain.Ticket) error {
	message := &domain.OutboundMessage{
		TicketID: ticket.ID,
		Address:  ticket.Phone,
		Template: domain.TemplateProximityAlert,
		Status:   domain.DeliveryStatusPending,
	}
	return s.messages.Create(ctx, message)
}
