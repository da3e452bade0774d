package dto

import (
	"time"

	"github.com/ticketero/queue-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	NationalID   string `json:"national_id"`
	Phone        string `json:"phone"`
	BranchOffice string `json:"branch_office"`
	QueueClass   string `json:"queue_class"`
}

// TicketResponse is the client view of a ticket.
type TicketResponse struct {
	ReferenceCode        string              `json:"reference_code"`
	Number               string              `json:"number"`
	QueueClass           domain.QueueClass   `json:"queue_class"`
	QueueDisplayName     string              `json:"queue_display_name"`
	BranchOffice         string              `json:"branch_office"`
	Status               domain.TicketStatus `json:"status"`
	Position             *int                `json:"position,omitempty"`
	EstimatedWaitMinutes int                 `json:"estimated_wait_minutes"`
	AdvisorName          *string             `json:"advisor_name,omitempty"`
	ModuleNumber         *int                `json:"module_number,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ReferenceCode:        ticket.ReferenceCode,
		Number:               ticket.Number,
		QueueClass:           ticket.QueueClass,
		QueueDisplayName:     ticket.QueueClass.DisplayName(),
		BranchOffice:         ticket.BranchOffice,
		Status:               ticket.Status,
		Position:             ticket.Position,
		EstimatedWaitMinutes: ticket.EstimatedWaitMinutes,
		AdvisorName:          ticket.AdvisorName,
		ModuleNumber:         ticket.ModuleNumber,
		CreatedAt:            ticket.CreatedAt,
		UpdatedAt:            ticket.UpdatedAt,
	}
}

// QueueStatusResponse is the public per-class queue view.
type QueueStatusResponse struct {
	Class                 domain.QueueClass   `json:"class"`
	DisplayName           string              `json:"display_name"`
	Waiting               int                 `json:"waiting"`
	TotalEstimatedMinutes int                 `json:"total_estimated_minutes"`
	NextNumber            string              `json:"next_number,omitempty"`
	Tickets               []QueueStatusTicket `json:"tickets,omitempty"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// QueueStatusTicket is one waiting ticket inside the queue view.
type QueueStatusTicket struct {
	Number               string `json:"number"`
	Position             int    `json:"position"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"`
}
