package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/events"
)

type sweeperFixture struct {
	clock    *fakeClock
	store    *fakeStore
	tickets  *fakeTicketRepo
	messages *fakeMessageRepo
	service  *SweeperService
}

func newSweeperFixture(t *testing.T) *sweeperFixture {
	t.Helper()
	clock := newFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	store := newFakeStore(clock)
	tickets := newFakeTicketRepo(store)
	messages := newFakeMessageRepo(clock)

	return &sweeperFixture{
		clock:    clock,
		store:    store,
		tickets:  tickets,
		messages: messages,
		service: NewSweeperService(SweeperDependencies{
			TicketRepo:    tickets,
			MessageRepo:   messages,
			Dispatcher:    events.NewInMemoryDispatcher(),
			Logger:        zap.NewNop(),
			NoShowTimeout: 5 * time.Minute,
			Now:           clock.Now,
		}),
	}
}

// assign puts a ticket into ASSIGNED bound to a fresh advisor.
func (f *sweeperFixture) assign(t *testing.T, number string) (*domain.Ticket, *domain.Advisor) {
	t.Helper()
	advisor := f.store.addAdvisor(domain.Advisor{
		Name: "Ana " + number, ModuleNumber: 1,
		Status: domain.AdvisorStatusAvailable, MaxConcurrentTickets: 3,
	})
	ticket := &domain.Ticket{
		ReferenceCode: number + "-ref",
		Number:        number,
		NationalID:    number + "-nid",
		Phone:         "555",
		QueueClass:    domain.QueueCaja,
		Status:        domain.TicketStatusWaiting,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))
	bound, err := f.tickets.BindToAdvisor(context.Background(), ticket.ID, advisor.ID, f.clock.Now())
	require.NoError(t, err)
	return bound, advisor
}

func TestSweeperExpiresStaleAssignments(t *testing.T) {
	f := newSweeperFixture(t)
	ticket, advisor := f.assign(t, "C01")
	ready := &domain.OutboundMessage{
		TicketID: ticket.ID, Address: "555",
		Template: domain.TemplateAgentReady, Status: domain.DeliveryStatusPending,
	}
	require.NoError(t, f.messages.Create(context.Background(), ready))

	f.clock.Advance(6 * time.Minute)
	expired, err := f.service.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	assert.Equal(t, domain.TicketStatusNoShow, f.store.getTicket(ticket.ID).Status)

	released := f.store.getAdvisor(advisor.ID)
	assert.Zero(t, released.CurrentTickets)
	assert.Equal(t, domain.AdvisorStatusAvailable, released.Status)

	messages := f.messages.byTemplate(ticket.ID, domain.TemplateAgentReady)
	require.Len(t, messages, 1)
	assert.Equal(t, domain.DeliveryStatusCancelled, messages[0].Status)
}

func TestSweeperLeavesRecentAssignments(t *testing.T) {
	f := newSweeperFixture(t)
	ticket, _ := f.assign(t, "C01")

	f.clock.Advance(4 * time.Minute)
	expired, err := f.service.RunTick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)
	assert.Equal(t, domain.TicketStatusAssigned, f.store.getTicket(ticket.ID).Status)
}

func TestSweeperIsIdempotent(t *testing.T) {
	f := newSweeperFixture(t)
	_, advisor := f.assign(t, "C01")

	f.clock.Advance(6 * time.Minute)
	first, err := f.service.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := f.service.RunTick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second, "a second sweep must not expire or release twice")
	assert.Zero(t, f.store.getAdvisor(advisor.ID).CurrentTickets)
}
