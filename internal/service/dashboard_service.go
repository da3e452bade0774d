package service

import (
	"context"

	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/repository"
	apperrors "github.com/ticketero/queue-service/pkg/util"
)

// DashboardService aggregates the branch-wide state for supervisors.
type DashboardService struct {
	tickets  repository.TicketRepository
	advisors repository.AdvisorRepository
	audits   repository.AuditRepository
}

// DashboardDependencies bundles collaborators.
type DashboardDependencies struct {
	TicketRepo  repository.TicketRepository
	AdvisorRepo repository.AdvisorRepository
	AuditRepo   repository.AuditRepository
}

// QueueSummary is the per-class line on the dashboard.
type QueueSummary struct {
	Class                 domain.QueueClass
	DisplayName           string
	Waiting               int
	TotalEstimatedMinutes int
}

// DashboardSnapshot is the assembled dashboard view.
type DashboardSnapshot struct {
	Queues       []QueueSummary
	Advisors     []domain.Advisor
	AdvisorStats map[domain.AdvisorStatus]int
	RecentEvents []domain.AuditEvent
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{
		tickets:  deps.TicketRepo,
		advisors: deps.AdvisorRepo,
		audits:   deps.AuditRepo,
	}
}

// Snapshot assembles queue depths, advisor states and the recent audit
// trail in one call.
func (s *DashboardService) Snapshot(ctx context.Context) (*DashboardSnapshot, error) {
	snapshot := &DashboardSnapshot{}

	for _, class := range domain.QueueClasses() {
		waiting, err := s.tickets.CountByStatusAndClass(ctx, domain.TicketStatusWaiting, class)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		snapshot.Queues = append(snapshot.Queues, QueueSummary{
			Class:                 class,
			DisplayName:           class.DisplayName(),
			Waiting:               waiting,
			TotalEstimatedMinutes: waiting * class.AvgServiceMinutes(),
		})
	}

	advisors, err := s.advisors.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	snapshot.Advisors = advisors

	stats, err := s.advisors.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	snapshot.AdvisorStats = stats

	recent, err := s.audits.ListRecent(ctx, 50, 0)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	snapshot.RecentEvents = recent

	return snapshot, nil
}

// AuditTrail pages through the audit log, newest first.
func (s *DashboardService) AuditTrail(ctx context.Context, limit, offset int) ([]domain.AuditEvent, error) {
	events, err := s.audits.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return events, nil
}
