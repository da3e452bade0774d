package domain

import "time"

// AdvisorStatus enumerates advisor availability states.
type AdvisorStatus string

const (
	AdvisorStatusAvailable AdvisorStatus = "AVAILABLE"
	AdvisorStatusBusy      AdvisorStatus = "BUSY"
	AdvisorStatusOffline   AdvisorStatus = "OFFLINE"
)

// Advisor models one staffed service point at a branch module.
type Advisor struct {
	ID                   int64
	Name                 string
	Email                string
	PasswordHash         string
	ModuleNumber         int
	Status               AdvisorStatus
	CurrentTickets       int
	MaxConcurrentTickets int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Eligible reports whether the advisor may receive a new assignment.
// Only AVAILABLE advisors are selectable; an advisor below the ceiling
// stays AVAILABLE, BUSY means the ceiling was reached.
func (a *Advisor) Eligible() bool {
	return a.Status == AdvisorStatusAvailable && a.CurrentTickets < a.MaxConcurrentTickets
}

// AssignTicket increments the load counter and flips the advisor to BUSY
// once the concurrency ceiling is reached.
func (a *Advisor) AssignTicket(now time.Time) {
	a.CurrentTickets++
	if a.CurrentTickets >= a.MaxConcurrentTickets {
		a.Status = AdvisorStatusBusy
	}
	a.UpdatedAt = now
}

// ReleaseTicket decrements the load counter and returns a BUSY advisor to
// AVAILABLE once below the ceiling. OFFLINE advisors stay OFFLINE.
func (a *Advisor) ReleaseTicket(now time.Time) {
	if a.CurrentTickets > 0 {
		a.CurrentTickets--
	}
	if a.Status == AdvisorStatusBusy && a.CurrentTickets < a.MaxConcurrentTickets {
		a.Status = AdvisorStatusAvailable
	}
	a.UpdatedAt = now
}
