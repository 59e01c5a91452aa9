// Package scenario supplies the per-timestep demand stream. Each
// circuit gets a base load shaped by a daily curve plus smooth
// opensimplex noise, so back-to-back runs with the same seed replay
// the same demand.
package scenario

import (
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/powergrid/internal/grid"
)

// StepsPerDay is the demand curve period; one timestep is one hour.
const StepsPerDay = 24

// Generator produces demand values for a fixed set of circuits.
type Generator struct {
	noise     opensimplex.Noise
	base      map[grid.CircuitID]float64
	index     map[grid.CircuitID]float64
	Amplitude float64 // noise swing as a fraction of base load
}

// NewGenerator builds a seeded generator from per-circuit base loads.
func NewGenerator(seed int64, base map[grid.CircuitID]float64) *Generator {
	// Stable per-circuit noise rows regardless of map order.
	ids := make([]grid.CircuitID, 0, len(base))
	for id := range base {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	index := make(map[grid.CircuitID]float64, len(ids))
	for i, id := range ids {
		index[id] = float64(i) * 7.3 // spread rows apart in noise space
	}

	return &Generator{
		noise:     opensimplex.NewNormalized(seed),
		base:      base,
		index:     index,
		Amplitude: 0.25,
	}
}

// Demand returns the MW demand of one circuit at one timestep.
func (g *Generator) Demand(id grid.CircuitID, step uint64) float64 {
	base, ok := g.base[id]
	if !ok {
		return 0
	}
	curve := dailyCurve(step % StepsPerDay)
	n := g.noise.Eval2(g.index[id], float64(step)*0.05) // in [0,1]
	return base * curve * (1 + g.Amplitude*(2*n-1))
}

// dailyCurve is a two-peak residential load shape: a morning bump and
// a taller evening peak, sagging overnight.
func dailyCurve(hour uint64) float64 {
	h := float64(hour)
	morning := 0.25 * math.Exp(-((h-8)*(h-8))/8)
	evening := 0.45 * math.Exp(-((h-19)*(h-19))/6)
	return 0.65 + morning + evening
}
