package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCreatedConfirmation(t *testing.T) {
	position := 3
	ticket := &Ticket{Number: "C03", Position: &position, EstimatedWaitMinutes: 15}

	text, err := RenderTemplate(TemplateCreatedConfirmation, ticket)
	require.NoError(t, err)
	assert.Contains(t, text, "C03")
	assert.Contains(t, text, "Posición: 3")
	assert.Contains(t, text, "15 min")
}

func TestRenderProximityAlert(t *testing.T) {
	position := 2
	ticket := &Ticket{Number: "G01", Position: &position}

	text, err := RenderTemplate(TemplateProximityAlert, ticket)
	require.NoError(t, err)
	assert.Contains(t, text, "G01")
	assert.Contains(t, text, "Posición: 2")
}

func TestRenderAgentReady(t *testing.T) {
	module := 4
	advisor := "Maria"
	ticket := &Ticket{Number: "P07", ModuleNumber: &module, AdvisorName: &advisor}

	text, err := RenderTemplate(TemplateAgentReady, ticket)
	require.NoError(t, err)
	assert.Contains(t, text, "P07")
	assert.Contains(t, text, "Módulo: 4")
	assert.Contains(t, text, "Maria")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := RenderTemplate(MessageTemplate("NOPE"), &Ticket{})
	assert.Error(t, err)
}
