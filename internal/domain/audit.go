package domain

import "time"

// ActorType identifies who triggered an audited action.
type ActorType string

const (
	ActorTypeSystem  ActorType = "SYSTEM"
	ActorTypeClient  ActorType = "CLIENT"
	ActorTypeAdvisor ActorType = "ADVISOR"
)

// AuditEvent is one immutable row in the audit trail. Audit rows are
// written off the engine's critical path via the event dispatcher.
type AuditEvent struct {
	ID            int64
	Timestamp     time.Time
	EventType     string
	Actor         string
	ActorType     ActorType
	TicketNumber  string
	PreviousState string
	NewState      string
	Detail        map[string]any
}
