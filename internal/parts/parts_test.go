package parts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelComposition(t *testing.T) {
	m := NewModel(7, 4)
	require.Len(t, m.Parts, 7)

	kinds := map[Kind]int{}
	for _, p := range m.Parts {
		kinds[p.Kind]++
		assert.GreaterOrEqual(t, p.PlannedLife, 1.0)
		assert.Equal(t, p.PlannedLife, p.RemainingLife)
	}
	assert.Equal(t, 4, kinds[KindBoiler])
	assert.Equal(t, 1, kinds[KindCoils])
	assert.Equal(t, 1, kinds[KindSteamTurbine])
	assert.Equal(t, 1, kinds[KindGenerator])
}

func TestHealthDecreasesWithWear(t *testing.T) {
	m := NewModel(7, 2)
	prev := m.Health()
	assert.InDelta(t, 1.0, prev, 1e-9)

	for i := 0; i < 50; i++ {
		m.Step()
		h := m.Health()
		assert.LessOrEqual(t, h, prev)
		prev = h
	}
	assert.Less(t, prev, 1.0)
}

func TestCriticalPartFailureStopsPlant(t *testing.T) {
	m := NewModel(7, 2)
	require.True(t, m.Working())

	for _, p := range m.Parts {
		if p.Kind == KindSteamTurbine {
			p.RemainingLife = 0
		}
	}
	assert.False(t, m.Working())
	assert.Zero(t, m.CapacityFactor())
}

func TestBoilerFailureShavesCapacity(t *testing.T) {
	m := NewModel(7, 4)
	dead := 0
	for _, p := range m.Parts {
		if p.Kind == KindBoiler && dead < 1 {
			p.RemainingLife = 0
			dead++
		}
	}
	assert.True(t, m.Working())
	assert.InDelta(t, 0.75, m.CapacityFactor(), 1e-9)
}

func TestAllBoilersDeadStopsPlant(t *testing.T) {
	m := NewModel(7, 2)
	for _, p := range m.Parts {
		if p.Kind == KindBoiler {
			p.RemainingLife = 0
		}
	}
	assert.False(t, m.Working())
}

func TestMaintenanceRestoresWornParts(t *testing.T) {
	m := NewModel(7, 2)
	for _, p := range m.Parts {
		p.RemainingLife = 0.1 * p.PlannedLife
	}

	m.BeginMaintenance()
	require.True(t, m.InMaintenance())

	// Repairs finish in bounded time and come back with fresh lifetimes.
	// Parts that finish first wear a little while the rest complete, so
	// health lands well above the worn level without reaching 1.0.
	for i := 0; i < 10000 && m.InMaintenance(); i++ {
		m.Step()
	}
	require.False(t, m.InMaintenance())
	assert.Greater(t, m.Health(), 0.5)
	assert.True(t, m.Working())
}

func TestMaintenanceSkipsHealthyParts(t *testing.T) {
	m := NewModel(7, 2)
	m.BeginMaintenance()
	assert.False(t, m.InMaintenance())
}

func TestDeterministicLifetimes(t *testing.T) {
	a := NewModel(42, 3)
	b := NewModel(42, 3)
	require.Len(t, b.Parts, len(a.Parts))
	for i := range a.Parts {
		assert.Equal(t, a.Parts[i].PlannedLife, b.Parts[i].PlannedLife)
	}
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "boiler", KindName(KindBoiler))
	assert.Equal(t, "generator", KindName(KindGenerator))
	assert.Equal(t, "unknown", KindName(Kind(99)))
}
