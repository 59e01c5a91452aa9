package mood

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/powergrid/internal/grid"
)

func TestOutageLowersMood(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	c := &grid.Circuit{ID: "ci-1", Mood: 1}

	ev := &grid.OutageEvent{Circuit: c.ID, Step: 1, Magnitude: 0.5, Duration: 0.5}
	got := tr.Update(c, ev, 1)

	assert.Less(t, got, 1.0)
	assert.Equal(t, got, c.Mood)
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestRepeatOutagesPenalizedHarder(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	c := &grid.Circuit{ID: "ci-1", Mood: 1}

	ev := &grid.OutageEvent{Circuit: c.ID, Magnitude: 0.4, Duration: 1}
	before := c.Mood
	tr.Update(c, ev, 1)
	firstDrop := before - c.Mood

	before = c.Mood
	tr.Update(c, ev, 2)
	secondDrop := before - c.Mood

	assert.Greater(t, secondDrop, firstDrop,
		"a repeat outage inside the window should sting more than an isolated one")
	assert.Equal(t, 2, tr.RecentOutages(c.ID))
}

func TestWindowIsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepeatWindow = 3
	tr := NewTracker(cfg)
	c := &grid.Circuit{ID: "ci-1", Mood: 1}

	ev := &grid.OutageEvent{Circuit: c.ID, Magnitude: 0.1, Duration: 1}
	for step := uint64(1); step <= 10; step++ {
		tr.Update(c, ev, step)
	}
	assert.Equal(t, 3, tr.RecentOutages(c.ID))
}

func TestRecoverySaturatesAtOne(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	c := &grid.Circuit{ID: "ci-1", Mood: 0.97}

	// Enough quiet steps to saturate, then keep going: mood must sit
	// at exactly 1.0, never above.
	for step := uint64(1); step <= 50; step++ {
		got := tr.Update(c, nil, step)
		assert.LessOrEqual(t, got, 1.0)
	}
	assert.Equal(t, 1.0, c.Mood)

	got := tr.Update(c, nil, 51)
	assert.Equal(t, 1.0, got, "saturated recovery must be idempotent")
}

func TestMoodNeverLeavesUnitInterval(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	c := &grid.Circuit{ID: "ci-1", Mood: 0.1}

	ev := &grid.OutageEvent{Circuit: c.ID, Magnitude: 1, Duration: 1}
	for step := uint64(1); step <= 20; step++ {
		got := tr.Update(c, ev, step)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
	assert.Equal(t, 0.0, c.Mood)
}

func TestDeterministicForSameEventSequence(t *testing.T) {
	run := func() []float64 {
		tr := NewTracker(DefaultConfig())
		c := &grid.Circuit{ID: "ci-1", Mood: 1}
		var moods []float64
		for step := uint64(1); step <= 30; step++ {
			var ev *grid.OutageEvent
			if step%4 == 0 {
				ev = &grid.OutageEvent{Circuit: c.ID, Magnitude: 0.3, Duration: 1}
			}
			moods = append(moods, tr.Update(c, ev, step))
		}
		return moods
	}

	first := run()
	second := run()
	require.Equal(t, first, second)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default is valid", func(c *Config) {}, false},
		{"negative decay", func(c *Config) { c.DecayScale = -0.1 }, true},
		{"recovery above one", func(c *Config) { c.RecoveryRate = 1.5 }, true},
		{"zero window", func(c *Config) { c.RepeatWindow = 0 }, true},
		{"negative repeat penalty", func(c *Config) { c.RepeatPenalty = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
