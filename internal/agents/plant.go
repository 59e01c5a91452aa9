package agents

import (
	"fmt"

	"github.com/talgya/powergrid/internal/grid"
)

// PlantBeliefs is the plant agent's own copy of the slice of world it
// cares about, refreshed from the snapshot each timestep. Never shared
// by reference with other agents.
type PlantBeliefs struct {
	Step    uint64
	Plant   grid.Plant
	Deficit float64
}

// PlantAgent is the BDI controller for one thermoelectric plant. Its
// desire is to stay on line and avoid outright failure; its intentions
// are operate, request-maintenance, or accept a scheduled repair.
type PlantAgent struct {
	ID           grid.PlantID
	LowWatermark float64 // request maintenance once health crosses this

	beliefs   PlantBeliefs
	requested bool // a request is pending with the chief
	intention Intention

	// Outbox carries this timestep's maintenance requests to the
	// chief. The engine drains it after every plant has decided.
	Outbox []MaintenanceRequest
}

// NewPlantAgent builds an agent for one plant.
func NewPlantAgent(id grid.PlantID, lowWatermark float64) *PlantAgent {
	return &PlantAgent{ID: id, LowWatermark: lowWatermark}
}

// Refresh is the belief revision step: copy the plant's state out of
// the timestep snapshot.
func (a *PlantAgent) Refresh(snap *grid.Snapshot) error {
	p, ok := snap.Plant(a.ID)
	if !ok {
		return fmt.Errorf("plant %q missing from snapshot at step %d", a.ID, snap.Step)
	}
	a.beliefs = PlantBeliefs{
		Step:    snap.Step,
		Plant:   p,
		Deficit: snap.Deficit(),
	}
	return nil
}

// BeliefStep reports which timestep the agent last synchronized with.
func (a *PlantAgent) BeliefStep() uint64 { return a.beliefs.Step }

// Decide runs the desire and intention selection for this timestep and
// returns the committed intention. Maintenance requests go out through
// the outbox.
func (a *PlantAgent) Decide(step uint64) Intention {
	p := a.beliefs.Plant

	switch {
	case p.Status == grid.PlantUnderMaintenance:
		// Repair already scheduled; honor the chief's commitment.
		a.intention = NewIntention(IntentAcceptMaintenance, a.ID, step, "repair in progress")

	case p.Status == grid.PlantFailed:
		// Failure makes maintenance mandatory, repeat until approved.
		a.requested = true
		a.Outbox = append(a.Outbox, MaintenanceRequest{
			Plant: a.ID, Health: p.Health, Step: step, Urgent: true,
		})
		a.intention = NewIntention(IntentRequestMaintenance, a.ID, step, "plant failed, repair mandatory")

	case p.Health < a.LowWatermark && !a.requested:
		a.requested = true
		a.Outbox = append(a.Outbox, MaintenanceRequest{
			Plant: a.ID, Health: p.Health, Step: step,
		})
		a.intention = NewIntention(IntentRequestMaintenance, a.ID, step,
			fmt.Sprintf("health %.2f below watermark %.2f", p.Health, a.LowWatermark))

	default:
		a.intention = NewIntention(IntentOperate, a.ID, step, "")
	}
	return a.intention
}

// HandleDecision delivers the chief's answer to a pending request.
// A denial re-arms the agent so it asks again next timestep.
func (a *PlantAgent) HandleDecision(d MaintenanceDecision) {
	if d.Plant != a.ID {
		return
	}
	if d.Approved {
		a.requested = false
		a.intention = NewIntention(IntentAcceptMaintenance, a.ID, d.Step, d.Reason)
		return
	}
	a.requested = false
}

// Intention returns the most recent committed intention.
func (a *PlantAgent) Intention() Intention { return a.intention }

// DrainOutbox hands the pending requests to the engine and clears them.
func (a *PlantAgent) DrainOutbox() []MaintenanceRequest {
	out := a.Outbox
	a.Outbox = nil
	return out
}
