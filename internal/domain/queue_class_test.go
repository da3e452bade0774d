package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueueClass(t *testing.T) {
	class, err := ParseQueueClass("GERENCIA")
	require.NoError(t, err)
	assert.Equal(t, QueueGerencia, class)

	_, err = ParseQueueClass("VIP")
	assert.Error(t, err)

	_, err = ParseQueueClass("caja")
	assert.Error(t, err, "class matching is case sensitive")
}

func TestQueueClassAttributes(t *testing.T) {
	assert.Equal(t, "C", QueueCaja.Prefix())
	assert.Equal(t, "P", QueuePersonalBanker.Prefix())
	assert.Equal(t, "E", QueueEmpresas.Prefix())
	assert.Equal(t, "G", QueueGerencia.Prefix())

	assert.Equal(t, 5, QueueCaja.AvgServiceMinutes())
	assert.Equal(t, 15, QueuePersonalBanker.AvgServiceMinutes())
	assert.Equal(t, 20, QueueEmpresas.AvgServiceMinutes())
	assert.Equal(t, 30, QueueGerencia.AvgServiceMinutes())
}

func TestQueueClassRankOrdering(t *testing.T) {
	classes := QueueClasses()
	require.Len(t, classes, 4)
	for i := 1; i < len(classes); i++ {
		assert.Greater(t, classes[i].PriorityRank(), classes[i-1].PriorityRank())
	}
	assert.Equal(t, 4, QueueGerencia.PriorityRank())
	assert.Equal(t, 1, QueueCaja.PriorityRank())
}
