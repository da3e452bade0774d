package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ticketero/queue-service/internal/domain"
	"github.com/ticketero/queue-service/internal/events"
)

type deliveryFixture struct {
	clock    *fakeClock
	store    *fakeStore
	tickets  *fakeTicketRepo
	messages *fakeMessageRepo
	channel  *fakeChannel
	service  *DeliveryService
}

func newDeliveryFixture(t *testing.T) *deliveryFixture {
	t.Helper()
	clock := newFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	store := newFakeStore(clock)
	tickets := newFakeTicketRepo(store)
	messages := newFakeMessageRepo(clock)
	channel := &fakeChannel{}

	return &deliveryFixture{
		clock:    clock,
		store:    store,
		tickets:  tickets,
		messages: messages,
		channel:  channel,
		service: NewDeliveryService(DeliveryDependencies{
			MessageRepo: messages,
			TicketRepo:  tickets,
			Channel:     channel,
			Dispatcher:  events.NewInMemoryDispatcher(),
			Logger:      zap.NewNop(),
			SendTimeout: time.Second,
			BatchSize:   10,
			Now:         clock.Now,
		}),
	}
}

func (f *deliveryFixture) enqueue(t *testing.T, template domain.MessageTemplate) (*domain.Ticket, *domain.OutboundMessage) {
	t.Helper()
	position := 2
	ticket := &domain.Ticket{
		ReferenceCode:        "ref",
		Number:               "C02",
		NationalID:           "nid",
		Phone:                "555",
		QueueClass:           domain.QueueCaja,
		Status:               domain.TicketStatusWaiting,
		Position:             &position,
		EstimatedWaitMinutes: 10,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))
	message := &domain.OutboundMessage{
		TicketID: ticket.ID, Address: ticket.Phone,
		Template: template, Status: domain.DeliveryStatusPending,
	}
	require.NoError(t, f.messages.Create(context.Background(), message))
	return ticket, message
}

func TestDeliverySuccessMarksSent(t *testing.T) {
	f := newDeliveryFixture(t)
	_, message := f.enqueue(t, domain.TemplateCreatedConfirmation)

	sent, err := f.service.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusSent, stored.Status)
	require.NotNil(t, stored.ProviderMessageID)
	require.NotNil(t, stored.SentAt)

	sends := f.channel.sent()
	require.Len(t, sends, 1)
	assert.Equal(t, "555", sends[0].Address)
	assert.Contains(t, sends[0].Text, "C02")
}

func TestDeliveryRetrySchedule(t *testing.T) {
	f := newDeliveryFixture(t)
	_, message := f.enqueue(t, domain.TemplateCreatedConfirmation)
	f.channel.setFailure(errors.New("provider down"))

	// First attempt fails and reschedules 30s out.
	_, err := f.service.RunTick(context.Background())
	require.NoError(t, err)
	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusPending, stored.Status)
	assert.Equal(t, 1, stored.AttemptCount)
	require.NotNil(t, stored.NextAttemptAt)
	assert.Equal(t, f.clock.Now().Add(30*time.Second), *stored.NextAttemptAt)

	// Before the backoff elapses nothing is attempted.
	f.clock.Advance(10 * time.Second)
	_, err = f.service.RunTick(context.Background())
	require.NoError(t, err)
	stored, err = f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AttemptCount)

	// Past the backoff the second attempt fires and reschedules 60s out.
	f.clock.Advance(21 * time.Second)
	_, err = f.service.RunTick(context.Background())
	require.NoError(t, err)
	stored, err = f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.AttemptCount)
	assert.Equal(t, domain.DeliveryStatusPending, stored.Status)
	require.NotNil(t, stored.NextAttemptAt)
	assert.Equal(t, f.clock.Now().Add(60*time.Second), *stored.NextAttemptAt)
}

func TestDeliveryFailsForGoodAtCeiling(t *testing.T) {
	f := newDeliveryFixture(t)
	_, message := f.enqueue(t, domain.TemplateCreatedConfirmation)
	f.channel.setFailure(errors.New("provider down"))

	for i := 0; i < domain.RetryCeiling; i++ {
		_, err := f.service.RunTick(context.Background())
		require.NoError(t, err)
		f.clock.Advance(3 * time.Minute)
	}

	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusFailed, stored.Status)
	assert.Equal(t, domain.RetryCeiling, stored.AttemptCount)
	assert.Nil(t, stored.NextAttemptAt)

	// FAILED messages are never picked up again.
	sent, err := f.service.RunTick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	stored, err = f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RetryCeiling, stored.AttemptCount)
}

func TestDeliveryRecoversAfterRetry(t *testing.T) {
	f := newDeliveryFixture(t)
	_, message := f.enqueue(t, domain.TemplateCreatedConfirmation)
	f.channel.setFailure(errors.New("blip"))

	_, err := f.service.RunTick(context.Background())
	require.NoError(t, err)

	f.channel.setFailure(nil)
	f.clock.Advance(31 * time.Second)
	sent, err := f.service.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusSent, stored.Status)
	assert.Equal(t, 1, stored.AttemptCount)
}

func TestDeliveryFailsUnrenderableMessage(t *testing.T) {
	f := newDeliveryFixture(t)
	_, message := f.enqueue(t, domain.MessageTemplate("LEGACY_TEMPLATE"))

	sent, err := f.service.RunTick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.channel.sent())

	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusFailed, stored.Status)
	assert.Nil(t, stored.NextAttemptAt)
	require.NotNil(t, stored.LastError)
	assert.Contains(t, *stored.LastError, "LEGACY_TEMPLATE")
}

func TestDeliverySkipsCancelledMessages(t *testing.T) {
	f := newDeliveryFixture(t)
	ticket, message := f.enqueue(t, domain.TemplateProximityAlert)
	_, err := f.messages.CancelPendingByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)

	sent, err := f.service.RunTick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.channel.sent())

	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusCancelled, stored.Status)
	assert.Zero(t, stored.AttemptCount)
}
