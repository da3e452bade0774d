package domain

import "time"

// MessageTemplate identifies the notification being sent. The set is
// closed; rendering switches over it exhaustively.
type MessageTemplate string

const (
	TemplateCreatedConfirmation MessageTemplate = "CREATED_CONFIRMATION"
	TemplateProximityAlert      MessageTemplate = "PROXIMITY_ALERT"
	TemplateAgentReady          MessageTemplate = "AGENT_READY"
)

// DeliveryStatus enumerates outbound message delivery states.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusSent      DeliveryStatus = "SENT"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
	DeliveryStatusCancelled DeliveryStatus = "CANCELLED"
)

// Terminal reports whether the delivery state machine is done with the
// message. SENT, FAILED and CANCELLED are reachable only from PENDING.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryStatusSent || s == DeliveryStatusFailed || s == DeliveryStatusCancelled
}

// RetryCeiling bounds delivery attempts per message.
const RetryCeiling = 3

// BackoffDelay returns the wait before the next delivery attempt after
// the given failed attempt: 30s, 60s, 120s (doubling from a 30s base).
func BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return 30 * time.Second << (attempt - 1)
}

// OutboundMessage is one notification attempt series tied to one ticket
// event.
type OutboundMessage struct {
	ID                int64
	TicketID          int64
	Address           string
	Template          MessageTemplate
	Status            DeliveryStatus
	AttemptCount      int
	NextAttemptAt     *time.Time
	ProviderMessageID *string
	LastError         *string
	SentAt            *time.Time
	CreatedAt         time.Time
}

// MarkSent records a successful delivery.
func (m *OutboundMessage) MarkSent(providerID string, now time.Time) {
	m.Status = DeliveryStatusSent
	m.ProviderMessageID = &providerID
	m.SentAt = &now
	m.NextAttemptAt = nil
}

// RegisterFailure records one failed attempt. Below the retry ceiling the
// message stays PENDING with the next attempt scheduled per BackoffDelay;
// at the ceiling it becomes FAILED and is never attempted again.
func (m *OutboundMessage) RegisterFailure(reason string, now time.Time) {
	m.AttemptCount++
	m.LastError = &reason
	if m.AttemptCount >= RetryCeiling {
		m.Status = DeliveryStatusFailed
		m.NextAttemptAt = nil
		return
	}
	next := now.Add(BackoffDelay(m.AttemptCount))
	m.NextAttemptAt = &next
}

// Cancel stops any further delivery of a PENDING message. Cancelling a
// message already in a terminal state is a no-op.
func (m *OutboundMessage) Cancel() {
	if m.Status != DeliveryStatusPending {
		return
	}
	m.Status = DeliveryStatusCancelled
	m.NextAttemptAt = nil
}

// Due reports whether the queue should attempt delivery now.
func (m *OutboundMessage) Due(now time.Time) bool {
	if m.Status != DeliveryStatusPending {
		return false
	}
	return m.NextAttemptAt == nil || !m.NextAttemptAt.After(now)
}
