package dto

import (
	"time"

	"github.com/ticketero/queue-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Advisor   AdvisorResponse `json:"advisor"`
}

// SetStatusRequest payload.
type SetStatusRequest struct {
	Status domain.AdvisorStatus `json:"status"`
}

// AdvisorResponse is the public advisor view. The password hash never
// leaves the service.
type AdvisorResponse struct {
	ID                   int64                `json:"id"`
	Name                 string               `json:"name"`
	Email                string               `json:"email"`
	ModuleNumber         int                  `json:"module_number"`
	Status               domain.AdvisorStatus `json:"status"`
	CurrentTickets       int                  `json:"current_tickets"`
	MaxConcurrentTickets int                  `json:"max_concurrent_tickets"`
}

// NewAdvisorResponse maps a domain advisor.
func NewAdvisorResponse(advisor *domain.Advisor) AdvisorResponse {
	return AdvisorResponse{
		ID:                   advisor.ID,
		Name:                 advisor.Name,
		Email:                advisor.Email,
		ModuleNumber:         advisor.ModuleNumber,
		Status:               advisor.Status,
		CurrentTickets:       advisor.CurrentTickets,
		MaxConcurrentTickets: advisor.MaxConcurrentTickets,
	}
}
