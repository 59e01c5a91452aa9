package grid

// OutageCause records why a circuit lost power.
type OutageCause uint8

const (
	CauseDeficit     OutageCause = iota // curtailed to close a capacity shortfall
	CauseMaintenance                    // plant taken off line for repair
)

// CauseName returns a readable name for an outage cause.
func CauseName(c OutageCause) string {
	if c == CauseMaintenance {
		return "maintenance"
	}
	return "deficit"
}

// OutageEvent is one realized cut on one circuit. Events are immutable
// history: a correction is a new event, never an edit.
type OutageEvent struct {
	Circuit   CircuitID   `json:"circuit"`
	Step      uint64      `json:"step"`
	Duration  float64     `json:"duration"`  // fraction of the timestep, in [0,1]
	Magnitude float64     `json:"magnitude"` // fraction of demand withheld
	Cause     OutageCause `json:"cause"`
}

// CutPlan maps circuits to withheld-demand fractions for one timestep.
// An empty plan means nobody gets cut.
type CutPlan struct {
	Step      uint64                `json:"step"`
	Fractions map[CircuitID]float64 `json:"fractions"`
}

// EmptyPlan returns a plan that cuts nothing.
func EmptyPlan(step uint64) CutPlan {
	return CutPlan{Step: step, Fractions: map[CircuitID]float64{}}
}

// Empty reports whether the plan withholds any demand at all.
func (p CutPlan) Empty() bool {
	for _, f := range p.Fractions {
		if f > 0 {
			return false
		}
	}
	return true
}

// Withheld returns the total demand the plan withholds, given each
// circuit's demand this timestep.
func (p CutPlan) Withheld(demand map[CircuitID]float64) float64 {
	total := 0.0
	for id, f := range p.Fractions {
		total += f * demand[id]
	}
	return total
}

// Covers reports whether the plan satisfies the coverage invariant:
// withheld demand must be at least the deficit.
func (p CutPlan) Covers(deficit float64, demand map[CircuitID]float64) bool {
	const eps = 1e-9
	return p.Withheld(demand)+eps >= deficit
}
