package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketStatusTransitions(t *testing.T) {
	cases := []struct {
		from    TicketStatus
		to      TicketStatus
		allowed bool
	}{
		{TicketStatusWaiting, TicketStatusAssigned, true},
		{TicketStatusWaiting, TicketStatusCancelled, true},
		{TicketStatusWaiting, TicketStatusInService, false},
		{TicketStatusWaiting, TicketStatusCompleted, false},
		{TicketStatusWaiting, TicketStatusNoShow, false},
		{TicketStatusAssigned, TicketStatusInService, true},
		{TicketStatusAssigned, TicketStatusCancelled, true},
		{TicketStatusAssigned, TicketStatusNoShow, true},
		{TicketStatusAssigned, TicketStatusCompleted, false},
		{TicketStatusAssigned, TicketStatusWaiting, false},
		{TicketStatusInService, TicketStatusCompleted, true},
		{TicketStatusInService, TicketStatusCancelled, false},
		{TicketStatusInService, TicketStatusNoShow, false},
		{TicketStatusCompleted, TicketStatusWaiting, false},
		{TicketStatusCancelled, TicketStatusAssigned, false},
		{TicketStatusNoShow, TicketStatusWaiting, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, TicketStatusCompleted.Terminal())
	assert.True(t, TicketStatusCancelled.Terminal())
	assert.True(t, TicketStatusNoShow.Terminal())
	assert.False(t, TicketStatusWaiting.Terminal())
	assert.False(t, TicketStatusAssigned.Terminal())
	assert.False(t, TicketStatusInService.Terminal())
}

func TestTransitionToClearsPosition(t *testing.T) {
	position := 4
	now := time.Now()
	ticket := &Ticket{Status: TicketStatusWaiting, Position: &position}

	require.NoError(t, ticket.TransitionTo(TicketStatusAssigned, now))
	assert.Equal(t, TicketStatusAssigned, ticket.Status)
	assert.Nil(t, ticket.Position)
	assert.Equal(t, now, ticket.UpdatedAt)
}

func TestTransitionToRejectsForbidden(t *testing.T) {
	ticket := &Ticket{Status: TicketStatusCompleted}
	err := ticket.TransitionTo(TicketStatusWaiting, time.Now())

	var invalid *ErrInvalidTransition
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, TicketStatusCompleted, invalid.From)
	assert.Equal(t, TicketStatusWaiting, invalid.To)
	assert.Equal(t, TicketStatusCompleted, ticket.Status)
}
