package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for queue tickets.
type TicketStatus string

const (
	TicketStatusWaiting   TicketStatus = "WAITING"
	TicketStatusAssigned  TicketStatus = "ASSIGNED"
	TicketStatusInService TicketStatus = "IN_SERVICE"
	TicketStatusCompleted TicketStatus = "COMPLETED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
	TicketStatusNoShow    TicketStatus = "NO_SHOW"
)

// ticketTransitions is the authoritative transition table. WAITING is the
// only initial state; COMPLETED, CANCELLED and NO_SHOW are terminal.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusWaiting:   {TicketStatusAssigned, TicketStatusCancelled},
	TicketStatusAssigned:  {TicketStatusInService, TicketStatusCancelled, TicketStatusNoShow},
	TicketStatusInService: {TicketStatusCompleted},
}

// Terminal reports whether no further transition is permitted.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled || s == TicketStatusNoShow
}

// Active reports whether the ticket still occupies the queue or an advisor.
func (s TicketStatus) Active() bool {
	return s == TicketStatusWaiting || s == TicketStatusAssigned || s == TicketStatusInService
}

// CanTransitionTo consults the transition table.
func (s TicketStatus) CanTransitionTo(to TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ErrInvalidTransition marks a forbidden lifecycle transition. Callers
// treat it as a contract violation, not a retryable failure.
type ErrInvalidTransition struct {
	From, To TicketStatus
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid ticket transition %s -> %s", e.From, e.To)
}

// Ticket is one customer's place in line.
type Ticket struct {
	ID                   int64
	ReferenceCode        string
	Number               string
	NationalID           string
	Phone                string
	BranchOffice         string
	QueueClass           QueueClass
	Status               TicketStatus
	Position             *int
	EstimatedWaitMinutes int
	ProximityNotified    bool
	AdvisorID            *int64
	AdvisorName          *string
	ModuleNumber         *int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TransitionTo mutates the status after validating it against the
// transition table. Position is only defined while WAITING, so any
// transition clears it.
func (t *Ticket) TransitionTo(to TicketStatus, now time.Time) error {
	if !t.Status.CanTransitionTo(to) {
		return &ErrInvalidTransition{From: t.Status, To: to}
	}
	t.Status = to
	t.UpdatedAt = now
	t.Position = nil
	return nil
}
