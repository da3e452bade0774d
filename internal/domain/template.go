package domain

import "fmt"

// RenderTemplate produces the outbound message text for a template from
// the ticket's current state. The switch is exhaustive over the closed
// template set; an unknown template is a contract violation surfaced to
// the caller.
func RenderTemplate(template MessageTemplate, ticket *Ticket) (string, error) {
	switch template {
	case TemplateCreatedConfirmation:
		position := 0
		if ticket.Position != nil {
			position = *ticket.Position
		}
		return fmt.Sprintf(
			"🎫 Ticket creado\n\nNúmero: %s\nPosición: %d\nTiempo estimado: %d min",
			ticket.Number, position, ticket.EstimatedWaitMinutes), nil
	case TemplateProximityAlert:
		position := 0
		if ticket.Position != nil {
			position = *ticket.Position
		}
		return fmt.Sprintf(
			"🔔 ¡Tu turno está próximo!\n\nTicket: %s\nPosición: %d\nDirígete a la sucursal",
			ticket.Number, position), nil
	case TemplateAgentReady:
		module := 0
		advisor := ""
		if ticket.ModuleNumber != nil {
			module = *ticket.ModuleNumber
		}
		if ticket.AdvisorName != nil {
			advisor = *ticket.AdvisorName
		}
		return fmt.Sprintf(
			"✅ ¡Es tu turno!\n\nTicket: %s\nMódulo: %d\nTe atiende: %s",
			ticket.Number, module, advisor), nil
	default:
		return "", fmt.Errorf("unknown message template %q", template)
	}
}
