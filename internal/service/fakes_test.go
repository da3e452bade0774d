package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/repository"
)

// fakeClock is a controllable time source shared by services and fakes.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeStore backs both the ticket and advisor repositories so that
// BindToAdvisor and ReleaseAdvisor can touch advisor state the way the
// SQL transaction does.
type fakeStore struct {
	mu       sync.Mutex
	clock    *fakeClock
	tickets  map[int64]*domain.Ticket
	advisors map[int64]*domain.Advisor
	nextID   int64
}

func newFakeStore(clock *fakeClock) *fakeStore {
	return &fakeStore{
		clock:    clock,
		tickets:  make(map[int64]*domain.Ticket),
		advisors: make(map[int64]*domain.Advisor),
		nextID:   1,
	}
}

func (s *fakeStore) addAdvisor(advisor domain.Advisor) *domain.Advisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if advisor.ID == 0 {
		advisor.ID = s.nextID
		s.nextID++
	}
	if advisor.MaxConcurrentTickets == 0 {
		advisor.MaxConcurrentTickets = 3
	}
	stored := advisor
	s.advisors[stored.ID] = &stored
	return &stored
}

func (s *fakeStore) getTicket(id int64) domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tickets[id]
}

func (s *fakeStore) getAdvisor(id int64) domain.Advisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.advisors[id]
}

type fakeTicketRepo struct {
	store *fakeStore
}

func newFakeTicketRepo(store *fakeStore) *fakeTicketRepo {
	return &fakeTicketRepo{store: store}
}

var _ repository.TicketRepository = (*fakeTicketRepo)(nil)

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket.ID = s.nextID
	s.nextID++
	now := s.clock.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := *ticket
	s.tickets[stored.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByReferenceCode(_ context.Context, code string) (*domain.Ticket, error) {
	return r.findOne(func(t *domain.Ticket) bool { return t.ReferenceCode == code })
}

func (r *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	return r.findOne(func(t *domain.Ticket) bool { return t.Number == number })
}

func (r *fakeTicketRepo) FindActiveByNationalID(_ context.Context, nationalID string) (*domain.Ticket, error) {
	return r.findOne(func(t *domain.Ticket) bool {
		return t.NationalID == nationalID && t.Status.Active()
	})
}

func (r *fakeTicketRepo) findOne(match func(*domain.Ticket) bool) (*domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ticket := range s.tickets {
		if match(ticket) {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) FindWaitingOrderedByPriority(_ context.Context) ([]domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.Status == domain.TicketStatusWaiting {
			result = append(result, *ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].QueueClass.PriorityRank() != result[j].QueueClass.PriorityRank() {
			return result[i].QueueClass.PriorityRank() > result[j].QueueClass.PriorityRank()
		}
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *fakeTicketRepo) FindAssignedOlderThan(_ context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.Status == domain.TicketStatusAssigned && ticket.UpdatedAt.Before(cutoff) {
			result = append(result, *ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.Before(result[j].UpdatedAt) })
	return result, nil
}

func (r *fakeTicketRepo) Transition(_ context.Context, ticketID int64, from, to domain.TicketStatus, now time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok || ticket.Status != from {
		return repository.ErrConflict
	}
	ticket.Status = to
	ticket.Position = nil
	ticket.UpdatedAt = now
	return nil
}

func (r *fakeTicketRepo) UpdateQueueState(_ context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tickets[ticket.ID]
	if !ok || stored.Status != domain.TicketStatusWaiting {
		return repository.ErrConflict
	}
	stored.Position = ticket.Position
	stored.EstimatedWaitMinutes = ticket.EstimatedWaitMinutes
	stored.ProximityNotified = ticket.ProximityNotified
	stored.UpdatedAt = ticket.UpdatedAt
	return nil
}

func (r *fakeTicketRepo) CountByStatusAndClass(_ context.Context, status domain.TicketStatus, class domain.QueueClass) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ticket := range s.tickets {
		if ticket.Status == status && ticket.QueueClass == class {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) CountCreatedTodayByClass(_ context.Context, class domain.QueueClass) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.clock.Now().Truncate(24 * time.Hour)
	count := 0
	for _, ticket := range s.tickets {
		if ticket.QueueClass == class && !ticket.CreatedAt.Before(today) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) BindToAdvisor(_ context.Context, ticketID, advisorID int64, now time.Time) (*domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	advisor, ok := s.advisors[advisorID]
	if !ok || !advisor.Eligible() {
		return nil, repository.ErrConflict
	}
	ticket, ok := s.tickets[ticketID]
	if !ok || ticket.Status != domain.TicketStatusWaiting {
		return nil, repository.ErrConflict
	}

	advisor.AssignTicket(now)
	ticket.Status = domain.TicketStatusAssigned
	ticket.AdvisorID = &advisor.ID
	name := advisor.Name
	ticket.AdvisorName = &name
	module := advisor.ModuleNumber
	ticket.ModuleNumber = &module
	ticket.Position = nil
	ticket.UpdatedAt = now

	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) ReleaseAdvisor(_ context.Context, advisorID int64, now time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	advisor, ok := s.advisors[advisorID]
	if !ok {
		return errors.New("advisor not found")
	}
	advisor.ReleaseTicket(now)
	return nil
}

type fakeAdvisorRepo struct {
	store *fakeStore
}

func newFakeAdvisorRepo(store *fakeStore) *fakeAdvisorRepo {
	return &fakeAdvisorRepo{store: store}
}

var _ repository.AdvisorRepository = (*fakeAdvisorRepo)(nil)

func (r *fakeAdvisorRepo) GetByID(_ context.Context, id int64) (*domain.Advisor, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	advisor, ok := s.advisors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *advisor
	return &copied, nil
}

func (r *fakeAdvisorRepo) GetByEmail(_ context.Context, email string) (*domain.Advisor, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, advisor := range s.advisors {
		if advisor.Email == email {
			copied := *advisor
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAdvisorRepo) List(_ context.Context) ([]domain.Advisor, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Advisor
	for _, advisor := range s.advisors {
		result = append(result, *advisor)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ModuleNumber < result[j].ModuleNumber })
	return result, nil
}

func (r *fakeAdvisorRepo) FindAvailableOrderedByLoad(_ context.Context) ([]domain.Advisor, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Advisor
	for _, advisor := range s.advisors {
		if advisor.Eligible() {
			result = append(result, *advisor)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CurrentTickets != result[j].CurrentTickets {
			return result[i].CurrentTickets < result[j].CurrentTickets
		}
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.Before(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *fakeAdvisorRepo) UpdateStatus(_ context.Context, id int64, status domain.AdvisorStatus, now time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	advisor, ok := s.advisors[id]
	if !ok {
		return pgx.ErrNoRows
	}
	advisor.Status = status
	advisor.UpdatedAt = now
	return nil
}

func (r *fakeAdvisorRepo) CountByStatus(_ context.Context) (map[domain.AdvisorStatus]int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.AdvisorStatus]int)
	for _, advisor := range s.advisors {
		counts[advisor.Status]++
	}
	return counts, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	clock    *fakeClock
	messages map[int64]*domain.OutboundMessage
	nextID   int64
}

func newFakeMessageRepo(clock *fakeClock) *fakeMessageRepo {
	return &fakeMessageRepo{
		clock:    clock,
		messages: make(map[int64]*domain.OutboundMessage),
		nextID:   1,
	}
}

var _ repository.MessageRepository = (*fakeMessageRepo)(nil)

func (r *fakeMessageRepo) Create(_ context.Context, message *domain.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message.ID = r.nextID
	r.nextID++
	message.CreatedAt = r.clock.Now()
	stored := *message
	r.messages[stored.ID] = &stored
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id int64) (*domain.OutboundMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *message
	return &copied, nil
}

func (r *fakeMessageRepo) FindDue(_ context.Context, now time.Time, limit int) ([]domain.OutboundMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.OutboundMessage
	for _, message := range r.messages {
		if message.Due(now) {
			result = append(result, *message)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeMessageRepo) Update(_ context.Context, message *domain.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[message.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *message
	r.messages[stored.ID] = &stored
	return nil
}

func (r *fakeMessageRepo) CancelPendingByTicket(_ context.Context, ticketID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancelled := 0
	for _, message := range r.messages {
		if message.TicketID == ticketID && message.Status == domain.DeliveryStatusPending {
			message.Cancel()
			cancelled++
		}
	}
	return cancelled, nil
}

// byTemplate returns the stored messages for a ticket and template.
func (r *fakeMessageRepo) byTemplate(ticketID int64, template domain.MessageTemplate) []domain.OutboundMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.OutboundMessage
	for _, message := range r.messages {
		if message.TicketID == ticketID && message.Template == template {
			result = append(result, *message)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// fakeChannel is a scriptable notification channel.
type fakeChannel struct {
	mu    sync.Mutex
	fail  error
	sends []fakeSend
}

type fakeSend struct {
	Address string
	Text    string
}

func (c *fakeChannel) Send(_ context.Context, address, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return "", c.fail
	}
	c.sends = append(c.sends, fakeSend{Address: address, Text: text})
	return "prov-1", nil
}

func (c *fakeChannel) setFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = err
}

func (c *fakeChannel) sent() []fakeSend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]fakeSend{}, c.sends...)
}
