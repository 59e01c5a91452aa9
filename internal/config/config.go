// Package config gathers every tunable of the simulation core in one
// struct. Loading formats live outside the core; callers build a
// Config (usually from DefaultConfig plus overrides) and must get a
// nil Validate before the first timestep runs.
package config

import (
	"errors"
	"fmt"

	"github.com/talgya/powergrid/internal/fuzzy"
	"github.com/talgya/powergrid/internal/mood"
	"github.com/talgya/powergrid/internal/optimizer"
)

// ErrInvalidConfig wraps every validation failure. Fatal at startup.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full configuration surface of the core.
type Config struct {
	Seed  int64  // root seed; every stochastic component derives from it
	Steps uint64 // timesteps to simulate; 0 means run until stopped

	HealthLowWatermark float64 // plants request maintenance below this

	Mood      mood.Config
	Fuzzy     fuzzy.Config
	Optimizer optimizer.Config

	MetricsPort int    // prometheus endpoint; 0 disables it
	DBPath      string // decision log database; empty disables persistence
}

// DefaultConfig is the reference scenario configuration.
func DefaultConfig() Config {
	return Config{
		Seed:               42,
		Steps:              0,
		HealthLowWatermark: 0.35,
		Mood:               mood.DefaultConfig(),
		Fuzzy:              fuzzy.DefaultConfig(),
		Optimizer:          optimizer.DefaultConfig(),
		MetricsPort:        2112,
		DBPath:             "data/powergrid.db",
	}
}

// Validate checks every sub-config and range. Any failure is wrapped
// in ErrInvalidConfig so callers can treat the whole class as fatal.
func (c Config) Validate() error {
	if c.HealthLowWatermark <= 0 || c.HealthLowWatermark >= 1 {
		return fmt.Errorf("%w: health low-watermark %.3f outside (0,1)", ErrInvalidConfig, c.HealthLowWatermark)
	}
	if err := c.Mood.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Fuzzy.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("%w: metrics port %d out of range", ErrInvalidConfig, c.MetricsPort)
	}
	return nil
}
