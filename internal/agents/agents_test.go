package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/powergrid/internal/fuzzy"
	"github.com/talgya/powergrid/internal/grid"
	"github.com/talgya/powergrid/internal/optimizer"
)

func testChief(t *testing.T) *ChiefAgent {
	t.Helper()
	eval, err := fuzzy.NewEvaluator(fuzzy.DefaultConfig())
	require.NoError(t, err)
	opt, err := optimizer.New(optimizer.DefaultConfig(), eval)
	require.NoError(t, err)
	return NewChiefAgent(opt)
}

func snapshotWith(t *testing.T, plants []*grid.Plant, circuits []*grid.Circuit, links []grid.TransmissionLink) *grid.Snapshot {
	t.Helper()
	top, err := grid.NewTopology(plants, circuits, links)
	require.NoError(t, err)
	return grid.TakeSnapshot(1, top)
}

func TestPlantRequestsMaintenanceBelowWatermark(t *testing.T) {
	a := NewPlantAgent("pl-a", 0.35)
	snap := snapshotWith(t,
		[]*grid.Plant{{ID: "pl-a", Output: 100, Health: 0.30, Status: grid.PlantOperating}},
		nil, nil)
	require.NoError(t, a.Refresh(snap))

	in := a.Decide(1)
	assert.Equal(t, IntentRequestMaintenance, in.Kind)

	reqs := a.DrainOutbox()
	require.Len(t, reqs, 1)
	assert.Equal(t, grid.PlantID("pl-a"), reqs[0].Plant)
	assert.False(t, reqs[0].Urgent)
	assert.InDelta(t, 0.30, reqs[0].Health, 1e-9)

	// The request stays pending; the agent does not nag every step.
	in = a.Decide(2)
	assert.Equal(t, IntentOperate, in.Kind)
	assert.Empty(t, a.DrainOutbox())
}

func TestPlantDenialReArmsRequest(t *testing.T) {
	a := NewPlantAgent("pl-a", 0.35)
	snap := snapshotWith(t,
		[]*grid.Plant{{ID: "pl-a", Output: 100, Health: 0.20, Status: grid.PlantOperating}},
		nil, nil)
	require.NoError(t, a.Refresh(snap))

	a.Decide(1)
	a.DrainOutbox()

	a.HandleDecision(MaintenanceDecision{Plant: "pl-a", Approved: false, Step: 1, Reason: "deferred under deficit"})

	in := a.Decide(2)
	assert.Equal(t, IntentRequestMaintenance, in.Kind)
	assert.Len(t, a.DrainOutbox(), 1)
}

func TestPlantApprovalAcceptsMaintenance(t *testing.T) {
	a := NewPlantAgent("pl-a", 0.35)
	snap := snapshotWith(t,
		[]*grid.Plant{{ID: "pl-a", Output: 100, Health: 0.20, Status: grid.PlantOperating}},
		nil, nil)
	require.NoError(t, a.Refresh(snap))
	a.Decide(1)

	a.HandleDecision(MaintenanceDecision{Plant: "pl-a", Approved: true, Step: 1})
	assert.Equal(t, IntentAcceptMaintenance, a.Intention().Kind)

	// Decisions addressed to other plants are ignored.
	a.HandleDecision(MaintenanceDecision{Plant: "pl-other", Approved: false, Step: 1})
	assert.Equal(t, IntentAcceptMaintenance, a.Intention().Kind)
}

func TestFailedPlantRequestsUrgentlyEveryStep(t *testing.T) {
	a := NewPlantAgent("pl-a", 0.35)
	snap := snapshotWith(t,
		[]*grid.Plant{{ID: "pl-a", Output: 0, Health: 0, Status: grid.PlantFailed}},
		nil, nil)
	require.NoError(t, a.Refresh(snap))

	for step := uint64(1); step <= 3; step++ {
		in := a.Decide(step)
		assert.Equal(t, IntentRequestMaintenance, in.Kind)
		reqs := a.DrainOutbox()
		require.Len(t, reqs, 1)
		assert.True(t, reqs[0].Urgent)
	}
}

func TestChiefApprovesWithinCapacityMargin(t *testing.T) {
	chief := testChief(t)
	// 300 MW available, 150 MW demanded: one 100 MW plant can go off
	// line, a second approval would open a hole.
	snap := snapshotWith(t,
		[]*grid.Plant{
			{ID: "pl-a", Output: 100, Health: 0.30, Status: grid.PlantOperating},
			{ID: "pl-b", Output: 100, Health: 0.25, Status: grid.PlantOperating},
			{ID: "pl-c", Output: 100, Health: 0.90, Status: grid.PlantOperating},
		},
		[]*grid.Circuit{{ID: "ci-x", Demand: 150, Mood: 1}},
		[]grid.TransmissionLink{{ID: "ln-1", Plant: "pl-c", Circuit: "ci-x", Capacity: 300}},
	)
	_, err := chief.Refresh(snap, nil)
	require.NoError(t, err)

	chief.Receive(
		MaintenanceRequest{Plant: "pl-a", Health: 0.30, Step: 1},
		MaintenanceRequest{Plant: "pl-b", Health: 0.25, Step: 1},
	)
	d := chief.Decide(1)

	require.Len(t, d.Approvals, 2)
	byPlant := map[grid.PlantID]bool{}
	for _, ap := range d.Approvals {
		byPlant[ap.Plant] = ap.Approved
	}
	// Sickest first: pl-b gets the window, pl-a waits.
	assert.True(t, byPlant["pl-b"])
	assert.False(t, byPlant["pl-a"])
	assert.True(t, d.Plan.Empty())
	assert.True(t, d.Feasible)
}

func TestChiefCommitsCoveringPlanUnderDeficit(t *testing.T) {
	chief := testChief(t)
	// 100 MW available against 160 MW demanded.
	snap := snapshotWith(t,
		[]*grid.Plant{{ID: "pl-a", Output: 100, Health: 0.9, Status: grid.PlantOperating}},
		[]*grid.Circuit{
			{ID: "ci-x", Demand: 100, Mood: 0.8},
			{ID: "ci-y", Demand: 60, Mood: 0.4},
		},
		[]grid.TransmissionLink{
			{ID: "ln-1", Plant: "pl-a", Circuit: "ci-x", Capacity: 150},
			{ID: "ln-2", Plant: "pl-a", Circuit: "ci-y", Capacity: 90},
		},
	)
	_, err := chief.Refresh(snap, nil)
	require.NoError(t, err)

	chief.Receive(
		MaintenanceRequest{Plant: "pl-a", Health: 0.30, Step: 1},
		MaintenanceRequest{Plant: "pl-z", Health: 0, Step: 1, Urgent: true},
	)
	d := chief.Decide(1)

	assert.InDelta(t, 60.0, d.Deficit, 1e-9)
	demand := map[grid.CircuitID]float64{"ci-x": 100, "ci-y": 60}
	assert.True(t, d.Plan.Covers(d.Deficit, demand))
	assert.True(t, d.Feasible)

	var committed bool
	for _, in := range d.Intentions {
		if in.Kind == IntentCommitCut {
			committed = true
		}
	}
	assert.True(t, committed)

	byPlant := map[grid.PlantID]bool{}
	for _, ap := range d.Approvals {
		byPlant[ap.Plant] = ap.Approved
	}
	// Urgent repair goes ahead, routine maintenance waits out the deficit.
	assert.True(t, byPlant["pl-z"])
	assert.False(t, byPlant["pl-a"])
}

func TestChiefResyncsStaleBeliefs(t *testing.T) {
	chief := testChief(t)
	a := NewPlantAgent("pl-a", 0.35)
	snap := snapshotWith(t,
		[]*grid.Plant{{ID: "pl-a", Output: 100, Health: 0.9, Status: grid.PlantOperating}},
		[]*grid.Circuit{{ID: "ci-x", Demand: 50, Mood: 1}},
		[]grid.TransmissionLink{{ID: "ln-1", Plant: "pl-a", Circuit: "ci-x", Capacity: 100}},
	)
	require.NoError(t, a.Refresh(snap))

	later := *snap
	later.Step = 5
	resyncs, err := chief.Refresh(&later, []*PlantAgent{a})
	require.NoError(t, err)
	assert.Equal(t, 1, resyncs)
	assert.Equal(t, uint64(5), a.BeliefStep())

	// A second refresh against the same step touches nobody.
	resyncs, err = chief.Refresh(&later, []*PlantAgent{a})
	require.NoError(t, err)
	assert.Zero(t, resyncs)
}

func TestIntentionNames(t *testing.T) {
	assert.Equal(t, "operate", IntentionName(IntentOperate))
	assert.Equal(t, "commit-cut", IntentionName(IntentCommitCut))
	in := NewIntention(IntentOperate, "pl-a", 7, "")
	assert.NotEmpty(t, in.ID)
	assert.Equal(t, uint64(7), in.Step)
}
