package agents

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/powergrid/internal/grid"
	"github.com/talgya/powergrid/internal/optimizer"
)

// ChiefBeliefs aggregates every plant's state plus grid-wide demand.
// Like the plant agents, the chief owns its copies.
type ChiefBeliefs struct {
	Step          uint64
	Plants        []grid.Plant
	Circuits      []grid.Circuit
	Links         []grid.TransmissionLink
	TotalCapacity float64
	TotalDemand   float64
	Deficit       float64
}

// Decision is the chief's committed output for one timestep: the
// intentions, the cut plan if any, and how the optimizer fared. This
// is the record the decision log persists.
type Decision struct {
	Step       uint64                `json:"step"`
	Deficit    float64               `json:"deficit"`
	Plan       grid.CutPlan          `json:"plan"`
	Severity   float64               `json:"severity"`
	Converged  bool                  `json:"converged"`
	Feasible   bool                  `json:"feasible"`
	Intentions []Intention           `json:"intentions"`
	Approvals  []MaintenanceDecision `json:"approvals"`
}

// ChiefAgent is the singleton dispatcher. Desires, in priority order:
// avoid cuts when capacity allows, minimize aggregate severity when it
// does not, and grant repair windows only when they keep projected
// capacity at or above demand.
type ChiefAgent struct {
	opt     *optimizer.Optimizer
	beliefs ChiefBeliefs
	inbox   []MaintenanceRequest
}

// NewChiefAgent builds the chief around an allocation optimizer.
func NewChiefAgent(opt *optimizer.Optimizer) *ChiefAgent {
	return &ChiefAgent{opt: opt}
}

// Receive queues maintenance requests for the next decision.
func (c *ChiefAgent) Receive(reqs ...MaintenanceRequest) {
	c.inbox = append(c.inbox, reqs...)
}

// Refresh is the chief's belief revision step. Any plant agent whose
// beliefs predate the snapshot is resynchronized on the spot; a stale
// belief is recovered, never ignored. Returns how many agents needed
// a resync.
func (c *ChiefAgent) Refresh(snap *grid.Snapshot, plants []*PlantAgent) (int, error) {
	resyncs := 0
	for _, a := range plants {
		if a.BeliefStep() != snap.Step {
			slog.Warn("stale plant beliefs, forcing resync",
				"plant", a.ID,
				"belief_step", a.BeliefStep(),
				"step", snap.Step,
				"cause", ErrStaleBelief,
			)
			if err := a.Refresh(snap); err != nil {
				return resyncs, fmt.Errorf("resync plant %q: %w", a.ID, err)
			}
			resyncs++
		}
	}

	c.beliefs = ChiefBeliefs{
		Step:          snap.Step,
		Plants:        append([]grid.Plant(nil), snap.Plants...),
		Circuits:      append([]grid.Circuit(nil), snap.Circuits...),
		Links:         append([]grid.TransmissionLink(nil), snap.Links...),
		TotalCapacity: snap.TotalCapacity(),
		TotalDemand:   snap.TotalDemand(),
		Deficit:       snap.Deficit(),
	}
	return resyncs, nil
}

// Beliefs exposes the current belief base, mostly for tests and logs.
func (c *ChiefAgent) Beliefs() ChiefBeliefs { return c.beliefs }

// Decide runs one intention cycle. With no deficit it grants repair
// windows as long as projected capacity still meets demand; under a
// deficit it invokes the optimizer, commits the plan, and defers every
// non-urgent request.
func (c *ChiefAgent) Decide(step uint64) Decision {
	d := Decision{Step: step, Deficit: c.beliefs.Deficit, Plan: grid.EmptyPlan(step)}
	requests := c.drainInbox()

	if c.beliefs.Deficit <= 0 {
		d.Converged = true
		d.Feasible = true
		c.approveWithinMargin(&d, requests, step)
		if len(d.Intentions) == 0 {
			d.Intentions = append(d.Intentions, NewIntention(IntentOperate, "", step, "demand met, no action needed"))
		}
		return d
	}

	// Capacity is short: curtail. Non-urgent maintenance would only
	// deepen the hole, so it waits.
	plan, res, err := c.opt.Optimize(c.beliefs.Deficit, c.eligibleCircuits(), step)
	d.Plan = plan
	d.Severity = res.Severity
	d.Converged = res.Converged
	d.Feasible = res.Feasible
	if err != nil {
		// Least-infeasible plan still gets committed; the flag in the
		// decision log is the escalation path.
		slog.Warn("allocation infeasible, committing least-infeasible plan",
			"step", step,
			"deficit", c.beliefs.Deficit,
			"error", err,
		)
	}
	d.Intentions = append(d.Intentions, NewIntention(IntentCommitCut, "", step,
		fmt.Sprintf("deficit %.1f MW across %d circuits", c.beliefs.Deficit, len(plan.Fractions))))

	for _, req := range requests {
		if req.Urgent {
			// A failed plant offers nothing; repairing it cannot
			// worsen the deficit.
			d.Approvals = append(d.Approvals, MaintenanceDecision{
				Plant: req.Plant, Approved: true, Step: step, Reason: "failed plant, mandatory repair",
			})
			d.Intentions = append(d.Intentions, NewIntention(IntentApproveMaintenance, req.Plant, step, "mandatory"))
			continue
		}
		d.Approvals = append(d.Approvals, MaintenanceDecision{
			Plant: req.Plant, Approved: false, Step: step, Reason: "deferred under deficit",
		})
		d.Intentions = append(d.Intentions, NewIntention(IntentDeferMaintenance, req.Plant, step, "deferred under deficit"))
	}
	return d
}

// approveWithinMargin grants requests oldest-worst-first while the
// projected capacity after taking each plant off line still covers
// demand.
func (c *ChiefAgent) approveWithinMargin(d *Decision, requests []MaintenanceRequest, step uint64) {
	// Urgent first, then sickest first.
	sort.SliceStable(requests, func(i, j int) bool {
		if requests[i].Urgent != requests[j].Urgent {
			return requests[i].Urgent
		}
		return requests[i].Health < requests[j].Health
	})

	projected := c.beliefs.TotalCapacity
	for _, req := range requests {
		output := 0.0
		for i := range c.beliefs.Plants {
			if c.beliefs.Plants[i].ID == req.Plant {
				output = c.beliefs.Plants[i].Available()
			}
		}
		if req.Urgent || projected-output >= c.beliefs.TotalDemand {
			projected -= output
			d.Approvals = append(d.Approvals, MaintenanceDecision{
				Plant: req.Plant, Approved: true, Step: step,
				Reason: fmt.Sprintf("projected capacity %.1f MW covers demand %.1f MW", projected, c.beliefs.TotalDemand),
			})
			d.Intentions = append(d.Intentions, NewIntention(IntentApproveMaintenance, req.Plant, step, ""))
			continue
		}
		d.Approvals = append(d.Approvals, MaintenanceDecision{
			Plant: req.Plant, Approved: false, Step: step, Reason: "approval would create a deficit",
		})
		d.Intentions = append(d.Intentions, NewIntention(IntentDeferMaintenance, req.Plant, step, "would create deficit"))
	}
}

// eligibleCircuits builds the optimizer's view of the circuits that
// can be curtailed this timestep.
func (c *ChiefAgent) eligibleCircuits() []optimizer.Eligible {
	eligible := make([]optimizer.Eligible, 0, len(c.beliefs.Circuits))
	for i := range c.beliefs.Circuits {
		circ := c.beliefs.Circuits[i]
		if circ.Demand <= 0 {
			continue
		}
		linkCap := 0.0
		for _, l := range c.beliefs.Links {
			if l.Circuit == circ.ID {
				linkCap += l.Capacity
			}
		}
		eligible = append(eligible, optimizer.Eligible{
			ID:           circ.ID,
			Demand:       circ.Demand,
			Mood:         circ.Mood,
			LinkCapacity: linkCap,
		})
	}
	return eligible
}

func (c *ChiefAgent) drainInbox() []MaintenanceRequest {
	reqs := c.inbox
	c.inbox = nil
	return reqs
}
