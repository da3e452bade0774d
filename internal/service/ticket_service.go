package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/events"
	"github.com/ticketero/queue-service/internal/repository"
	apperrors "github.com/ticketero/queue-service/pkg/util"
)

// TicketService coordinates the client-facing ticket workflows: intake,
// status lookup, cancellation and the advisor-driven service transitions.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.MessageRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Now         func() time.Time
}

// TicketCreateInput describes the intake payload.
type TicketCreateInput struct {
	NationalID   string
	Phone        string
	BranchOffice string
	QueueClass   string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        now,
	}
}

// CreateTicket registers a customer in the queue. A customer identified by
// national id holds at most one active ticket; a second request is
// rejected with the existing ticket's coordinates.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	nationalID := strings.TrimSpace(input.NationalID)
	phone := strings.TrimSpace(input.Phone)
	if nationalID == "" {
		return nil, apperrors.NewValidationError("national_id is required", nil)
	}
	if phone == "" {
		return nil, apperrors.NewValidationError("phone is required", nil)
	}
	class, err := domain.ParseQueueClass(input.QueueClass)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"queue_class": input.QueueClass})
	}

	existing, err := s.tickets.FindActiveByNationalID(ctx, nationalID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if existing != nil {
		return nil, apperrors.NewConflict("customer already holds an active ticket", map[string]any{
			"number":         existing.Number,
			"reference_code": existing.ReferenceCode,
			"status":         existing.Status,
		})
	}

	number, err := s.nextNumber(ctx, class)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	waiting, err := s.tickets.CountByStatusAndClass(ctx, domain.TicketStatusWaiting, class)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	position := waiting + 1

	ticket := &domain.Ticket{
		ReferenceCode:        uuid.NewString(),
		Number:               number,
		NationalID:           nationalID,
		Phone:                phone,
		BranchOffice:         strings.TrimSpace(input.BranchOffice),
		QueueClass:           class,
		Status:               domain.TicketStatusWaiting,
		Position:             &position,
		EstimatedWaitMinutes: position * class.AvgServiceMinutes(),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.enqueueMessage(ctx, ticket, domain.TemplateCreatedConfirmation); err != nil {
		s.logger.Error("enqueue creation confirmation failed",
			zap.String("ticket", ticket.Number), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketNumber: ticket.Number,
		Actor:        clientActor(nationalID),
		Payload: events.TicketCreatedPayload{
			QueueClass:   ticket.QueueClass,
			BranchOffice: ticket.BranchOffice,
			Position:     position,
		},
	})
	return ticket, nil
}

// GetByReferenceCode fetches a ticket by its opaque client handle.
func (s *TicketService) GetByReferenceCode(ctx context.Context, code string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByReferenceCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"reference_code": code})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// Cancel withdraws a ticket from the queue. Permitted from WAITING and
// ASSIGNED only; any pending notifications for the ticket are cancelled
// with it, and an assigned advisor gets the capacity back.
func (s *TicketService) Cancel(ctx context.Context, referenceCode string) (*domain.Ticket, error) {
	ticket, err := s.GetByReferenceCode(ctx, referenceCode)
	if err != nil {
		return nil, err
	}
	now := s.now()
	previous := ticket.Status
	if err := ticket.TransitionTo(domain.TicketStatusCancelled, now); err != nil {
		return nil, apperrors.NewConflict("ticket cannot be cancelled", map[string]any{
			"number": ticket.Number,
			"status": previous,
		})
	}
	if err := s.tickets.Transition(ctx, ticket.ID, previous, domain.TicketStatusCancelled, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("ticket state changed concurrently", map[string]any{"number": ticket.Number})
		}
		return nil, apperrors.MapError(err)
	}

	if previous == domain.TicketStatusAssigned && ticket.AdvisorID != nil {
		if err := s.tickets.ReleaseAdvisor(ctx, *ticket.AdvisorID, now); err != nil {
			s.logger.Error("release advisor after cancel failed",
				zap.Int64("advisor_id", *ticket.AdvisorID), zap.Error(err))
		}
	}
	if _, err := s.messages.CancelPendingByTicket(ctx, ticket.ID); err != nil {
		s.logger.Error("cancel pending messages failed",
			zap.String("ticket", ticket.Number), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCancelled,
		TicketNumber: ticket.Number,
		Actor:        clientActor(ticket.NationalID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: previous,
			NewStatus: domain.TicketStatusCancelled,
		},
	})
	return ticket, nil
}

// StartService moves an assigned ticket into service when the customer
// arrives at the advisor's module.
func (s *TicketService) StartService(ctx context.Context, advisor *domain.Advisor, number string) (*domain.Ticket, error) {
	ticket, err := s.ticketForAdvisor(ctx, advisor, number)
	if err != nil {
		return nil, err
	}

	now := s.now()
	previous := ticket.Status
	if err := ticket.TransitionTo(domain.TicketStatusInService, now); err != nil {
		return nil, apperrors.NewConflict("ticket is not awaiting service", map[string]any{
			"number": ticket.Number,
			"status": previous,
		})
	}
	if err := s.tickets.Transition(ctx, ticket.ID, previous, domain.TicketStatusInService, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("ticket state changed concurrently", map[string]any{"number": ticket.Number})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketInService,
		TicketNumber: ticket.Number,
		Actor:        advisorActor(advisor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: previous,
			NewStatus: domain.TicketStatusInService,
		},
	})
	return ticket, nil
}

// Complete finishes service for a ticket and returns the advisor's
// capacity.
func (s *TicketService) Complete(ctx context.Context, advisor *domain.Advisor, number string) (*domain.Ticket, error) {
	ticket, err := s.ticketForAdvisor(ctx, advisor, number)
	if err != nil {
		return nil, err
	}

	now := s.now()
	previous := ticket.Status
	if err := ticket.TransitionTo(domain.TicketStatusCompleted, now); err != nil {
		return nil, apperrors.NewConflict("ticket is not in service", map[string]any{
			"number": ticket.Number,
			"status": previous,
		})
	}
	if err := s.tickets.Transition(ctx, ticket.ID, previous, domain.TicketStatusCompleted, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("ticket state changed concurrently", map[string]any{"number": ticket.Number})
		}
		return nil, apperrors.MapError(err)
	}

	if err := s.tickets.ReleaseAdvisor(ctx, advisor.ID, now); err != nil {
		s.logger.Error("release advisor after completion failed",
			zap.Int64("advisor_id", advisor.ID), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCompleted,
		TicketNumber: ticket.Number,
		Actor:        advisorActor(advisor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: previous,
			NewStatus: domain.TicketStatusCompleted,
		},
	})
	return ticket, nil
}

func (s *TicketService) ticketForAdvisor(ctx context.Context, advisor *domain.Advisor, number string) (*domain.Ticket, error) {
	if advisor == nil {
		return nil, apperrors.NewUnauthorized("advisor required")
	}
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"number": number})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.AdvisorID == nil || *ticket.AdvisorID != advisor.ID {
		return nil, apperrors.NewConflict("ticket is not assigned to this advisor", map[string]any{"number": number})
	}
	return ticket, nil
}

// nextNumber produces the daily display number: class prefix plus a
// per-class sequence that resets each day.
func (s *TicketService) nextNumber(ctx context.Context, class domain.QueueClass) (string, error) {
	count, err := s.tickets.CountCreatedTodayByClass(ctx, class)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%02d", class.Prefix(), count+1), nil
}

func (s *TicketService) enqueueMessage(ctx context.Context, ticket *domain.Ticket, template domain.MessageTemplate) error {
	message := &domain.OutboundMessage{
		TicketID: ticket.ID,
		Address:  ticket.Phone,
		Template: template,
		Status:   domain.DeliveryStatusPending,
	}
	return s.messages.Create(ctx, message)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Error("publish event failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func clientActor(nationalID string) events.Actor {
	return events.Actor{Type: domain.ActorTypeClient, ID: nationalID}
}

func advisorActor(advisor *domain.Advisor) events.Actor {
	return events.Actor{Type: domain.ActorTypeAdvisor, ID: fmt.Sprintf("%d", advisor.ID)}
}

func systemActor() events.Actor {
	return events.Actor{Type: domain.ActorTypeSystem, ID: "engine"}
}
