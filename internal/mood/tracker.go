// Package mood tracks per-circuit citizen satisfaction derived from
// outage history. Mood sits in [0,1]: it drops when a circuit is cut,
// harder when the circuit was cut recently, and creeps back toward 1.0
// over outage-free timesteps.
package mood

import (
	"fmt"

	"github.com/talgya/powergrid/internal/grid"
)

// Config holds the mood dynamics knobs. Exact horizon constants are
// deliberately configuration, not code.
type Config struct {
	DecayScale    float64 // base mood loss per unit of withheld magnitude
	RecoveryRate  float64 // mood regained per outage-free timestep
	RepeatWindow  int     // K: how many recent outage timestamps to remember
	RepeatPenalty float64 // extra weight per remembered outage in the window
}

// DefaultConfig returns the dynamics used by the reference scenarios.
func DefaultConfig() Config {
	return Config{
		DecayScale:    0.25,
		RecoveryRate:  0.02,
		RepeatWindow:  5,
		RepeatPenalty: 0.5,
	}
}

// Validate rejects out-of-range dynamics.
func (c Config) Validate() error {
	if c.DecayScale < 0 || c.DecayScale > 1 {
		return fmt.Errorf("mood decay scale %.3f outside [0,1]", c.DecayScale)
	}
	if c.RecoveryRate < 0 || c.RecoveryRate > 1 {
		return fmt.Errorf("mood recovery rate %.3f outside [0,1]", c.RecoveryRate)
	}
	if c.RepeatWindow < 1 {
		return fmt.Errorf("mood repeat window %d must be at least 1", c.RepeatWindow)
	}
	if c.RepeatPenalty < 0 {
		return fmt.Errorf("mood repeat penalty %.3f must not be negative", c.RepeatPenalty)
	}
	return nil
}

// Tracker owns the rolling outage windows. It mutates nothing beyond
// the circuit's Mood field and is deterministic for a given event
// sequence.
type Tracker struct {
	cfg    Config
	recent map[grid.CircuitID][]uint64 // last K outage steps per circuit
}

// NewTracker creates a tracker with the given dynamics.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:    cfg,
		recent: make(map[grid.CircuitID][]uint64),
	}
}

// Update advances one circuit by one timestep. Pass the realized outage
// event, or nil on an outage-free step. Returns the new mood.
func (t *Tracker) Update(c *grid.Circuit, ev *grid.OutageEvent, step uint64) float64 {
	if ev == nil {
		// Quiet step: recover toward 1.0, never past it.
		c.Mood = clamp(c.Mood + t.cfg.RecoveryRate)
		return c.Mood
	}

	// Repeat outages inside the window sting more than isolated ones.
	window := t.recent[c.ID]
	penalty := ev.Magnitude * t.cfg.DecayScale * (1 + t.cfg.RepeatPenalty*float64(len(window)))
	c.Mood = clamp(c.Mood - penalty)

	window = append(window, step)
	if len(window) > t.cfg.RepeatWindow {
		window = window[len(window)-t.cfg.RepeatWindow:]
	}
	t.recent[c.ID] = window
	return c.Mood
}

// RecentOutages reports how many outages the window currently holds
// for a circuit.
func (t *Tracker) RecentOutages(id grid.CircuitID) int {
	return len(t.recent[id])
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
