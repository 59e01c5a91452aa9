// Package engine provides the timestep loop that drives the grid
// simulation. One timestep is one sim-hour.
package engine

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// StepsPerDay groups timesteps into daily reports.
const StepsPerDay = 24

// Clock advances the simulation at a controllable pace. A halt only
// ever lands between timesteps; a step that has started always
// finishes, optimizer included.
type Clock struct {
	Step     uint64        // current timestep counter, monotonic
	Speed    float64       // multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // base step interval
	MaxSteps uint64        // stop after this many steps; 0 = run forever

	// Running is flipped from the signal handler's goroutine while Run
	// polls it, so it must be atomic.
	Running atomic.Bool

	OnStep func(step uint64) // every timestep
	OnDay  func(step uint64) // every StepsPerDay steps
}

// NewClock creates a clock with default pacing.
func NewClock() *Clock {
	return &Clock{
		Speed:    1.0,
		Interval: 250 * time.Millisecond,
	}
}

// Run starts the loop. Blocks until Stop is called or MaxSteps is
// reached.
func (c *Clock) Run() {
	c.Running.Store(true)
	slog.Info("simulation clock started", "step", c.Step, "speed", c.Speed)

	started := c.Step
	for c.Running.Load() {
		if c.MaxSteps > 0 && c.Step-started >= c.MaxSteps {
			break
		}
		if c.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		c.step()

		elapsed := time.Since(start)
		target := time.Duration(float64(c.Interval) / c.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	c.Running.Store(false)
	slog.Info("simulation clock stopped", "step", c.Step)
}

// Stop halts the loop after the current timestep completes. Safe to
// call from another goroutine.
func (c *Clock) Stop() {
	c.Running.Store(false)
}

// step advances exactly one timestep.
func (c *Clock) step() {
	c.Step++

	if c.OnStep != nil {
		c.OnStep(c.Step)
	}
	if c.Step%StepsPerDay == 0 && c.OnDay != nil {
		c.OnDay(c.Step)
	}
}

// SimTime renders a timestep as a readable day/hour stamp.
func SimTime(step uint64) string {
	return fmt.Sprintf("Day %d, %02d:00", step/StepsPerDay+1, step%StepsPerDay)
}
