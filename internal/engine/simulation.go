// Simulation ties the grid systems together and runs them each timestep.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/powergrid/internal/agents"
	"github.com/talgya/powergrid/internal/grid"
	"github.com/talgya/powergrid/internal/mood"
	"github.com/talgya/powergrid/internal/optimizer"
	"github.com/talgya/powergrid/internal/parts"
)

// PlantUnit couples one plant's grid state, its physical degradation
// model, and its BDI agent.
type PlantUnit struct {
	Plant *grid.Plant
	Model *parts.Model
	Agent *agents.PlantAgent
}

// DemandSource supplies per-circuit demand each timestep.
type DemandSource interface {
	Demand(id grid.CircuitID, step uint64) float64
}

// DecisionSink receives the per-timestep decision log. Implementations
// persist or forward it; the simulation only emits.
type DecisionSink interface {
	RecordDecision(d agents.Decision) error
	RecordOutages(events []grid.OutageEvent) error
}

// SimStats tracks aggregate figures since the last daily report.
type SimStats struct {
	DeficitSteps    int     `json:"deficit_steps"`
	InfeasibleSteps int     `json:"infeasible_steps"`
	OutagesRecorded int     `json:"outages_recorded"`
	WithheldMWh     float64 `json:"withheld_mwh"`
	AvgMood         float64 `json:"avg_mood"`
	Resyncs         int     `json:"resyncs"`
}

// Simulation holds the complete grid state and wires the systems
// together. Plant agent updates run concurrently over the timestep
// snapshot; only the apply phase, after the chief decides, writes back
// to the topology.
type Simulation struct {
	Topology *grid.Topology
	Units    []*PlantUnit
	Chief    *agents.ChiefAgent
	Moods    *mood.Tracker
	Demand   DemandSource
	Opt      *optimizer.Optimizer
	Sink     DecisionSink // optional
	Observe  func(d agents.Decision, snap *grid.Snapshot) // optional metrics hook

	Seed     int64
	LastStep uint64
	History  []grid.OutageEvent // recent events, trimmed
	Last     agents.Decision
	Stats    SimStats
}

// NewSimulation assembles a simulation from its parts.
func NewSimulation(topo *grid.Topology, units []*PlantUnit, chief *agents.ChiefAgent, moods *mood.Tracker, demand DemandSource, opt *optimizer.Optimizer, seed int64) *Simulation {
	return &Simulation{
		Topology: topo,
		Units:    units,
		Chief:    chief,
		Moods:    moods,
		Demand:   demand,
		Opt:      opt,
		Seed:     seed,
	}
}

// Step advances the world by one timestep: wear, demand, beliefs,
// decision, apply.
func (s *Simulation) Step(step uint64) {
	s.LastStep = step

	// Physical phase: parts wear, repairs progress, demand refreshes.
	// This builds the state the snapshot freezes.
	for _, u := range s.Units {
		s.advancePlant(u)
	}
	for _, c := range s.Topology.Circuits {
		c.Demand = s.Demand.Demand(c.ID, step)
	}

	snap := grid.TakeSnapshot(step, s.Topology)

	// Belief phase: plant agents refresh concurrently over the
	// immutable snapshot, then decide. The chief's step is the
	// barrier; nothing below runs until every plant is done.
	var wg sync.WaitGroup
	for _, u := range s.Units {
		wg.Add(1)
		go func(u *PlantUnit) {
			defer wg.Done()
			if err := u.Agent.Refresh(snap); err != nil {
				slog.Error("plant belief refresh failed", "plant", u.Agent.ID, "error", err)
			}
		}(u)
	}
	wg.Wait()

	for _, u := range s.Units {
		u.Agent.Decide(step)
		s.Chief.Receive(u.Agent.DrainOutbox()...)
	}

	// Decision phase. Reseed the optimizer from the root seed and the
	// step so a whole run replays from one seed.
	resyncs, err := s.Chief.Refresh(snap, s.agentList())
	if err != nil {
		slog.Error("chief belief refresh failed", "error", err)
		return
	}
	s.Stats.Resyncs += resyncs
	s.Opt.Reseed(s.Seed + int64(step)*1000003)
	decision := s.Chief.Decide(step)

	// Apply phase: the single writer commits the decision back to the
	// topology and the mood tracker.
	events := s.apply(decision, step)
	s.Last = decision

	if s.Sink != nil {
		if err := s.Sink.RecordDecision(decision); err != nil {
			slog.Error("decision log write failed", "step", step, "error", err)
		}
		if err := s.Sink.RecordOutages(events); err != nil {
			slog.Error("outage log write failed", "step", step, "error", err)
		}
	}
	if s.Observe != nil {
		s.Observe(decision, grid.TakeSnapshot(step, s.Topology))
	}
}

// advancePlant runs one step of physical wear and the resulting status
// transitions for one plant.
func (s *Simulation) advancePlant(u *PlantUnit) {
	wasMaintaining := u.Plant.Status == grid.PlantUnderMaintenance
	u.Model.Step()

	u.Plant.Health = u.Model.Health()
	u.Plant.Output = u.Plant.NominalCapacity * u.Model.CapacityFactor()

	switch {
	case wasMaintaining && !u.Model.InMaintenance():
		// Repair complete: back on line.
		u.Plant.Status = grid.PlantOperating
		slog.Info("plant repair complete", "plant", u.Plant.ID, "health", fmt.Sprintf("%.2f", u.Plant.Health))
	case wasMaintaining:
		// Still in the shop.
	case !u.Model.Working():
		if u.Plant.Status != grid.PlantFailed {
			slog.Warn("plant failed", "plant", u.Plant.ID, "health", fmt.Sprintf("%.2f", u.Plant.Health))
		}
		u.Plant.Status = grid.PlantFailed
	}
}

// apply commits the chief's decision: maintenance approvals flip plant
// states, the cut plan becomes outage events, and every circuit's mood
// advances exactly once.
func (s *Simulation) apply(d agents.Decision, step uint64) []grid.OutageEvent {
	// Maintenance decisions reach the plants and the topology.
	for _, approval := range d.Approvals {
		for _, u := range s.Units {
			if u.Plant.ID != approval.Plant {
				continue
			}
			u.Agent.HandleDecision(approval)
			if approval.Approved {
				u.Plant.Status = grid.PlantUnderMaintenance
				u.Model.BeginMaintenance()
			} else if u.Plant.Status == grid.PlantOperating {
				u.Plant.Status = grid.PlantMaintenanceRequested
			}
		}
	}

	// A deficit that fits inside the capacity parked in maintenance is
	// attributed to maintenance, otherwise to plain shortfall.
	maintCap := 0.0
	for _, u := range s.Units {
		if u.Plant.Status == grid.PlantUnderMaintenance {
			maintCap += u.Plant.NominalCapacity
		}
	}
	cause := grid.CauseDeficit
	if d.Deficit > 0 && maintCap >= d.Deficit {
		cause = grid.CauseMaintenance
	}

	var events []grid.OutageEvent
	moodTotal := 0.0
	for _, c := range s.Topology.Circuits {
		f := d.Plan.Fractions[c.ID]
		if f > 0 {
			ev := grid.OutageEvent{
				Circuit:   c.ID,
				Step:      step,
				Duration:  1,
				Magnitude: f,
				Cause:     cause,
			}
			c.OutageMinutes += f * 60
			s.Moods.Update(c, &ev, step)
			events = append(events, ev)
		} else {
			s.Moods.Update(c, nil, step)
		}
		moodTotal += c.Mood
	}

	// Bookkeeping for the daily report.
	if d.Deficit > 0 {
		s.Stats.DeficitSteps++
	}
	if !d.Feasible {
		s.Stats.InfeasibleSteps++
	}
	s.Stats.OutagesRecorded += len(events)
	s.Stats.WithheldMWh += d.Plan.Withheld(s.demandByCircuit())
	if len(s.Topology.Circuits) > 0 {
		s.Stats.AvgMood = moodTotal / float64(len(s.Topology.Circuits))
	}

	s.History = append(s.History, events...)
	if len(s.History) > 1000 {
		s.History = s.History[len(s.History)-1000:]
	}
	return events
}

// DayReport logs the running figures and resets the daily counters.
func (s *Simulation) DayReport(step uint64) {
	slog.Info("daily report",
		"step", step,
		"time", SimTime(step),
		"deficit_steps", s.Stats.DeficitSteps,
		"infeasible_steps", s.Stats.InfeasibleSteps,
		"outages", s.Stats.OutagesRecorded,
		"withheld_mwh", humanize.CommafWithDigits(s.Stats.WithheldMWh, 1),
		"avg_mood", fmt.Sprintf("%.3f", s.Stats.AvgMood),
		"resyncs", s.Stats.Resyncs,
	)
	s.Stats = SimStats{AvgMood: s.Stats.AvgMood}
}

func (s *Simulation) agentList() []*agents.PlantAgent {
	list := make([]*agents.PlantAgent, len(s.Units))
	for i, u := range s.Units {
		list[i] = u.Agent
	}
	return list
}

func (s *Simulation) demandByCircuit() map[grid.CircuitID]float64 {
	m := make(map[grid.CircuitID]float64, len(s.Topology.Circuits))
	for _, c := range s.Topology.Circuits {
		m[c.ID] = c.Demand
	}
	return m
}
