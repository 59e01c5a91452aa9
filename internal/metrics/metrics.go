// Package metrics exports the simulation's prometheus gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/talgya/powergrid/internal/agents"
	"github.com/talgya/powergrid/internal/grid"
)

var (
	gridDeficit = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powergrid_deficit_mw",
		Help: "Demand minus available capacity for the current timestep, floored at zero.",
	})

	committedSeverity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powergrid_committed_severity",
		Help: "Aggregate severity of the committed cut plan.",
	})

	optimizerConverged = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powergrid_optimizer_converged",
		Help: "1 if the allocation optimizer reached its plateau, 0 otherwise.",
	})

	planFeasible = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powergrid_plan_feasible",
		Help: "1 if the committed plan satisfies the coverage invariant, 0 otherwise.",
	})

	avgMood = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powergrid_avg_mood",
		Help: "Mean circuit mood across the grid.",
	})

	plantOutput = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "powergrid_plant_output_mw",
		Help: "Available output per plant.",
	}, []string{"plant"})

	circuitMood = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "powergrid_circuit_mood",
		Help: "Mood per circuit.",
	}, []string{"circuit"})
)

// ObserveDecision records the chief's committed decision.
func ObserveDecision(d agents.Decision) {
	gridDeficit.Set(d.Deficit)
	committedSeverity.Set(d.Severity)
	optimizerConverged.Set(boolGauge(d.Converged))
	planFeasible.Set(boolGauge(d.Feasible))
}

// ObserveGrid records the per-entity state after a timestep settles.
func ObserveGrid(snap *grid.Snapshot) {
	total := 0.0
	for i := range snap.Plants {
		p := snap.Plants[i]
		plantOutput.WithLabelValues(string(p.ID)).Set(p.Available())
	}
	for i := range snap.Circuits {
		c := snap.Circuits[i]
		circuitMood.WithLabelValues(string(c.ID)).Set(c.Mood)
		total += c.Mood
	}
	if len(snap.Circuits) > 0 {
		avgMood.Set(total / float64(len(snap.Circuits)))
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
