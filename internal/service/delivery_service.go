package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/events"
	"github.com/ticketero/queue-service/internal/notify"
	"github.com/ticketero/queue-service/internal/observability"
	"github.com/ticketero/queue-service/internal/repository"
	apperrors "github.com/ticketero/queue-service/pkg/util"
)

// DeliveryService drains the outbound message queue: due PENDING messages
// are rendered and handed to the notification channel, with bounded
// exponential backoff on failure.
type DeliveryService struct {
	messages    repository.MessageRepository
	tickets     repository.TicketRepository
	channel     notify.Channel
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	sendTimeout time.Duration
	batchSize   int
	now         func() time.Time
}

// DeliveryDependencies bundles collaborators.
type DeliveryDependencies struct {
	MessageRepo repository.MessageRepository
	TicketRepo  repository.TicketRepository
	Channel     notify.Channel
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	SendTimeout time.Duration
	BatchSize   int
	Now         func() time.Time
}

// NewDeliveryService creates the service.
func NewDeliveryService(deps DeliveryDependencies) *DeliveryService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	batch := deps.BatchSize
	if batch <= 0 {
		batch = 100
	}
	timeout := deps.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DeliveryService{
		messages:    deps.MessageRepo,
		tickets:     deps.TicketRepo,
		channel:     deps.Channel,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		sendTimeout: timeout,
		batchSize:   batch,
		now:         now,
	}
}

// RunTick attempts every due message once. A failed attempt below the
// retry ceiling stays PENDING with its next attempt pushed out 30s, 60s,
// then 120s; at the ceiling the message is FAILED for good.
func (s *DeliveryService) RunTick(ctx context.Context) (int, error) {
	due, err := s.messages.FindDue(ctx, s.now(), s.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		message := &due[i]
		if s.attempt(ctx, message) {
			sent++
		}
	}
	return sent, nil
}

// attempt delivers one message and persists the outcome. Returns true on
// a successful send.
func (s *DeliveryService) attempt(ctx context.Context, message *domain.OutboundMessage) bool {
	ticket, err := s.tickets.GetByID(ctx, message.TicketID)
	if err != nil {
		s.logger.Error("load ticket for delivery failed",
			zap.Int64("message_id", message.ID), zap.Error(err))
		return false
	}

	text, err := domain.RenderTemplate(message.Template, ticket)
	if err != nil {
		// Unknown template; fail the message outright rather than
		// retrying a render that cannot succeed.
		violation := apperrors.NewInvariantViolation(err.Error(), map[string]any{
			"message_id": message.ID,
			"template":   string(message.Template),
		})
		s.logger.Error("render template failed",
			zap.Int64("message_id", message.ID), zap.Error(violation))
		message.Status = domain.DeliveryStatusFailed
		reason := violation.Error()
		message.LastError = &reason
		message.NextAttemptAt = nil
		if err := s.messages.Update(ctx, message); err != nil {
			s.logger.Error("persist render failure failed", zap.Error(err))
		}
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	providerID, sendErr := s.channel.Send(sendCtx, message.Address, text)
	cancel()

	now := s.now()
	if sendErr != nil {
		message.RegisterFailure(sendErr.Error(), now)
		if err := s.messages.Update(ctx, message); err != nil {
			s.logger.Error("persist delivery failure failed",
				zap.Int64("message_id", message.ID), zap.Error(err))
			return false
		}
		outcome := "retry"
		if message.Status == domain.DeliveryStatusFailed {
			outcome = "failed"
			s.publishDelivery(ctx, events.EventMessageFailed, ticket, message, sendErr.Error())
		}
		s.metrics.RecordDelivery(string(message.Template), outcome)
		s.logger.Warn("message delivery failed",
			zap.Int64("message_id", message.ID),
			zap.String("ticket", ticket.Number),
			zap.Int("attempt", message.AttemptCount),
			zap.String("outcome", outcome),
			zap.Error(sendErr))
		return false
	}

	message.MarkSent(providerID, now)
	if err := s.messages.Update(ctx, message); err != nil {
		s.logger.Error("persist delivery success failed",
			zap.Int64("message_id", message.ID), zap.Error(err))
		return false
	}
	s.metrics.RecordDelivery(string(message.Template), "sent")
	s.publishDelivery(ctx, events.EventMessageSent, ticket, message, "")
	return true
}

func (s *DeliveryService) publishDelivery(ctx context.Context, eventType events.EventType, ticket *domain.Ticket, message *domain.OutboundMessage, reason string) {
	event := events.Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		TicketNumber: ticket.Number,
		Actor:        systemActor(),
		Timestamp:    s.now(),
		Payload: events.MessageDeliveryPayload{
			MessageID: message.ID,
			Template:  message.Template,
			Attempts:  message.AttemptCount,
			Error:     reason,
		},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Error("publish delivery event failed", zap.Error(err))
	}
}
