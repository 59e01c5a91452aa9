package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateWrapsEveryFailure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"watermark too low", func(c *Config) { c.HealthLowWatermark = 0 }},
		{"watermark too high", func(c *Config) { c.HealthLowWatermark = 1 }},
		{"bad mood config", func(c *Config) { c.Mood.RecoveryRate = -1 }},
		{"bad fuzzy config", func(c *Config) { c.Fuzzy.Rules = nil }},
		{"bad optimizer config", func(c *Config) { c.Optimizer.PopulationSize = 0 }},
		{"metrics port out of range", func(c *Config) { c.MetricsPort = 70000 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
