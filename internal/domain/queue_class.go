package domain

import "fmt"

// QueueClass categorizes a customer request. Each class carries a fixed
// priority rank (higher rank is served first) and an average service time
// used for wait estimates.
type QueueClass string

const (
	QueueCaja           QueueClass = "CAJA"
	QueuePersonalBanker QueueClass = "PERSONAL_BANKER"
	QueueEmpresas       QueueClass = "EMPRESAS"
	QueueGerencia       QueueClass = "GERENCIA"
)

type queueClassInfo struct {
	prefix      string
	displayName string
	rank        int
	avgMinutes  int
}

var queueClassTable = map[QueueClass]queueClassInfo{
	QueueCaja:           {prefix: "C", displayName: "Caja", rank: 1, avgMinutes: 5},
	QueuePersonalBanker: {prefix: "P", displayName: "Personal Banker", rank: 2, avgMinutes: 15},
	QueueEmpresas:       {prefix: "E", displayName: "Empresas", rank: 3, avgMinutes: 20},
	QueueGerencia:       {prefix: "G", displayName: "Gerencia", rank: 4, avgMinutes: 30},
}

// QueueClasses lists every queue class in ascending priority order.
func QueueClasses() []QueueClass {
	return []QueueClass{QueueCaja, QueuePersonalBanker, QueueEmpresas, QueueGerencia}
}

// ParseQueueClass validates a raw string against the closed class set.
func ParseQueueClass(raw string) (QueueClass, error) {
	class := QueueClass(raw)
	if _, ok := queueClassTable[class]; !ok {
		return "", fmt.Errorf("unknown queue class %q", raw)
	}
	return class, nil
}

// Prefix returns the display-number prefix for the class.
func (q QueueClass) Prefix() string {
	return queueClassTable[q].prefix
}

// DisplayName returns the human-facing class name.
func (q QueueClass) DisplayName() string {
	return queueClassTable[q].displayName
}

// PriorityRank returns the class rank. Higher ranks are assigned first.
func (q QueueClass) PriorityRank() int {
	return queueClassTable[q].rank
}

// AvgServiceMinutes returns the average service duration for one ticket.
func (q QueueClass) AvgServiceMinutes() int {
	return queueClassTable[q].avgMinutes
}
