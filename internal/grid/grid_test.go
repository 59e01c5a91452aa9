package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTopology(t *testing.T) *Topology {
	t.Helper()
	top, err := NewTopology(
		[]*Plant{
			{ID: "pl-a", Name: "Alpha", NominalCapacity: 200, Output: 200, Health: 1, Status: PlantOperating},
			{ID: "pl-b", Name: "Beta", NominalCapacity: 100, Output: 80, Health: 0.7, Status: PlantOperating},
		},
		[]*Circuit{
			{ID: "ci-x", Name: "West", Demand: 150, Mood: 1},
			{ID: "ci-y", Name: "East", Demand: 90, Mood: 1},
		},
		[]TransmissionLink{
			{ID: "ln-1", Plant: "pl-a", Circuit: "ci-x", Capacity: 200},
			{ID: "ln-2", Plant: "pl-b", Circuit: "ci-y", Capacity: 120},
		},
	)
	require.NoError(t, err)
	return top
}

func TestTopologyValidation(t *testing.T) {
	plants := []*Plant{{ID: "pl-a"}}
	circuits := []*Circuit{{ID: "ci-x"}}

	tests := []struct {
		name  string
		links []TransmissionLink
		wants string
	}{
		{"unknown plant", []TransmissionLink{{ID: "ln-1", Plant: "pl-missing", Circuit: "ci-x", Capacity: 10}}, "unknown plant"},
		{"unknown circuit", []TransmissionLink{{ID: "ln-1", Plant: "pl-a", Circuit: "ci-missing", Capacity: 10}}, "unknown circuit"},
		{"negative capacity", []TransmissionLink{{ID: "ln-1", Plant: "pl-a", Circuit: "ci-x", Capacity: -1}}, "negative capacity"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTopology(plants, circuits, tc.links)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wants)
		})
	}

	t.Run("duplicate plant id", func(t *testing.T) {
		_, err := NewTopology([]*Plant{{ID: "pl-a"}, {ID: "pl-a"}}, circuits, nil)
		require.Error(t, err)
	})
	t.Run("duplicate circuit id", func(t *testing.T) {
		_, err := NewTopology(plants, []*Circuit{{ID: "ci-x"}, {ID: "ci-x"}}, nil)
		require.Error(t, err)
	})
}

func TestSnapshotIsACopy(t *testing.T) {
	top := testTopology(t)
	snap := TakeSnapshot(3, top)

	top.Plant("pl-a").Output = 0
	top.Circuit("ci-x").Demand = 999

	assert.Equal(t, uint64(3), snap.Step)
	p, ok := snap.Plant("pl-a")
	require.True(t, ok)
	assert.Equal(t, 200.0, p.Output)
	assert.Equal(t, 150.0, snap.Circuits[0].Demand)
}

func TestSnapshotDeficit(t *testing.T) {
	top := testTopology(t)

	// 280 MW available against 240 MW demanded: no deficit.
	snap := TakeSnapshot(0, top)
	assert.Equal(t, 280.0, snap.TotalCapacity())
	assert.Equal(t, 240.0, snap.TotalDemand())
	assert.Equal(t, 0.0, snap.Deficit())

	// Taking Beta off line for repair drops 80 MW and opens a 40 MW hole.
	top.Plant("pl-b").Status = PlantUnderMaintenance
	snap = TakeSnapshot(1, top)
	assert.Equal(t, 200.0, snap.TotalCapacity())
	assert.InDelta(t, 40.0, snap.Deficit(), 1e-9)
}

func TestAvailableZeroWhenOffline(t *testing.T) {
	p := Plant{ID: "pl-a", Output: 100, Status: PlantOperating}
	assert.Equal(t, 100.0, p.Available())

	p.Status = PlantMaintenanceRequested
	assert.Equal(t, 100.0, p.Available())

	p.Status = PlantUnderMaintenance
	assert.Equal(t, 0.0, p.Available())

	p.Status = PlantFailed
	assert.Equal(t, 0.0, p.Available())
}

func TestCutPlanCoverage(t *testing.T) {
	demand := map[CircuitID]float64{"ci-x": 100, "ci-y": 50}

	plan := CutPlan{Step: 1, Fractions: map[CircuitID]float64{"ci-x": 0.5, "ci-y": 0.2}}
	assert.False(t, plan.Empty())
	assert.InDelta(t, 60.0, plan.Withheld(demand), 1e-9)
	assert.True(t, plan.Covers(60, demand))
	assert.True(t, plan.Covers(59.9, demand))
	assert.False(t, plan.Covers(60.1, demand))

	empty := EmptyPlan(1)
	assert.True(t, empty.Empty())
	assert.True(t, empty.Covers(0, demand))
	assert.False(t, empty.Covers(10, demand))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "operating", StatusName(PlantOperating))
	assert.Equal(t, "under-maintenance", StatusName(PlantUnderMaintenance))
	assert.Equal(t, "unknown", StatusName(PlantStatus(99)))
	assert.Equal(t, "deficit", CauseName(CauseDeficit))
	assert.Equal(t, "maintenance", CauseName(CauseMaintenance))
}
