package events

import (
	"time"

	"github.com/ticketero/queue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketAssigned  EventType = "ticket_assigned"
	EventTicketInService EventType = "ticket_in_service"
	EventTicketCompleted EventType = "ticket_completed"
	EventTicketCancelled EventType = "ticket_cancelled"
	EventTicketNoShow    EventType = "ticket_no_show"
	EventMessageSent     EventType = "message_sent"
	EventMessageFailed   EventType = "message_failed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.ActorType `json:"type"`
	ID   string           `json:"id,omitempty"`
}

// Event represents a domain event emitted by services. Audit and
// dashboard collaborators consume these read-only; handlers never sit on
// the engine's critical path.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketNumber string      `json:"ticket_number"`
	Actor        Actor       `json:"actor"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	QueueClass   domain.QueueClass `json:"queue_class"`
	BranchOffice string            `json:"branch_office"`
	Position     int               `json:"position"`
}

// TicketStatusChangedPayload payload for lifecycle transitions.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AdvisorID    int64  `json:"advisor_id"`
	AdvisorName  string `json:"advisor_name"`
	ModuleNumber int    `json:"module_number"`
}

// MessageDeliveryPayload payload for delivery outcomes.
type MessageDeliveryPayload struct {
	MessageID int64                  `json:"message_id"`
	Template  domain.MessageTemplate `json:"template"`
	Attempts  int                    `json:"attempts"`
	Error     string                 `json:"error,omitempty"`
}
