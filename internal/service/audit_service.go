package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/events"
	"github.com/ticketero/queue-service/internal/repository"
)

// AuditService records every published domain event as an immutable audit
// row. It sits behind the dispatcher so a slow audit write never blocks
// the engine.
type AuditService struct {
	audits repository.AuditRepository
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(audits repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{audits: audits, logger: logger}
}

var auditedEvents = []events.EventType{
	events.EventTicketCreated,
	events.EventTicketAssigned,
	events.EventTicketInService,
	events.EventTicketCompleted,
	events.EventTicketCancelled,
	events.EventTicketNoShow,
	events.EventMessageSent,
	events.EventMessageFailed,
}

// Register subscribes the audit sink to every event type.
func (s *AuditService) Register(dispatcher events.Dispatcher) {
	for _, eventType := range auditedEvents {
		dispatcher.Subscribe(eventType, s.record)
	}
}

func (s *AuditService) record(ctx context.Context, event events.Event) error {
	row := &domain.AuditEvent{
		EventType:    string(event.Type),
		Actor:        event.Actor.ID,
		ActorType:    event.Actor.Type,
		TicketNumber: event.TicketNumber,
		Detail:       payloadDetail(event.Payload),
	}
	if change, ok := event.Payload.(events.TicketStatusChangedPayload); ok {
		row.PreviousState = string(change.OldStatus)
		row.NewState = string(change.NewStatus)
	}

	if err := s.audits.Create(ctx, row); err != nil {
		s.logger.Error("write audit row failed",
			zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}
	return nil
}

// payloadDetail flattens a typed payload into the JSONB detail column.
func payloadDetail(payload interface{}) map[string]any {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	var detail map[string]any
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil
	}
	return detail
}
