// Package parts models the physical wear of a thermoelectric plant:
// boilers, coils, a steam turbine, and a generator, each with a
// Weibull-distributed lifetime and a log-normal repair duration. The
// model drives the health and capacity input stream the plant agents
// form beliefs from.
package parts

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Kind enumerates the component types of a plant.
type Kind uint8

const (
	KindBoiler Kind = iota
	KindCoils
	KindSteamTurbine
	KindGenerator
)

// KindName returns a readable name for a component kind.
func KindName(k Kind) string {
	switch k {
	case KindBoiler:
		return "boiler"
	case KindCoils:
		return "coils"
	case KindSteamTurbine:
		return "steam-turbine"
	case KindGenerator:
		return "generator"
	default:
		return "unknown"
	}
}

// Part is one wearing component. Lifetimes count simulation timesteps.
type Part struct {
	Kind          Kind
	PlannedLife   float64
	RemainingLife float64
	RepairLeft    float64
	Repairing     bool
}

// Working reports whether the part still functions.
func (p *Part) Working() bool { return p.RemainingLife > 0 }

// Model is the degradation state of one plant. A broken critical part
// (coils, turbine, generator) stops the whole plant; broken boilers
// only shave capacity until the last one dies.
type Model struct {
	Parts []*Part

	life   distuv.Weibull
	repair distuv.LogNormal
}

// NewModel builds a plant with the given number of boilers plus the
// three critical parts, drawing initial lifetimes from the seeded
// distributions.
func NewModel(seed int64, boilers int) *Model {
	rng := rand.New(rand.NewSource(seed))
	m := &Model{
		life:   distuv.Weibull{K: 2.0, Lambda: 400, Src: rng},
		repair: distuv.LogNormal{Mu: 3.2, Sigma: 0.5, Src: rng},
	}
	for i := 0; i < boilers; i++ {
		m.Parts = append(m.Parts, m.newPart(KindBoiler))
	}
	m.Parts = append(m.Parts,
		m.newPart(KindCoils),
		m.newPart(KindSteamTurbine),
		m.newPart(KindGenerator),
	)
	return m
}

func (m *Model) newPart(k Kind) *Part {
	life := m.life.Rand()
	if life < 1 {
		life = 1
	}
	return &Part{Kind: k, PlannedLife: life, RemainingLife: life}
}

// Step ages every part by one timestep: working parts wear down,
// repairing parts count toward completion and come back with a fresh
// planned lifetime.
func (m *Model) Step() {
	for _, p := range m.Parts {
		if p.Repairing {
			p.RepairLeft--
			if p.RepairLeft <= 0 {
				p.Repairing = false
				life := m.life.Rand()
				if life < 1 {
					life = 1
				}
				p.PlannedLife = life
				p.RemainingLife = life
			}
			continue
		}
		if p.Working() {
			p.RemainingLife--
		}
	}
}

// Working reports whether the plant can generate at all.
func (m *Model) Working() bool {
	boilers, workingBoilers := 0, 0
	for _, p := range m.Parts {
		if p.Kind == KindBoiler {
			boilers++
			if p.Working() {
				workingBoilers++
			}
			continue
		}
		if !p.Working() {
			return false
		}
	}
	return boilers == 0 || workingBoilers > 0
}

// CapacityFactor scales nominal capacity by the share of working
// boilers. Zero when the plant is down.
func (m *Model) CapacityFactor() float64 {
	if !m.Working() {
		return 0
	}
	boilers, workingBoilers := 0, 0
	for _, p := range m.Parts {
		if p.Kind == KindBoiler {
			boilers++
			if p.Working() {
				workingBoilers++
			}
		}
	}
	if boilers == 0 {
		return 1
	}
	return float64(workingBoilers) / float64(boilers)
}

// Health is the mean remaining-life fraction across parts, in [0,1].
// It only decreases while parts wear and only recovers through repair.
func (m *Model) Health() float64 {
	if len(m.Parts) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range m.Parts {
		frac := p.RemainingLife / p.PlannedLife
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		total += frac
	}
	return total / float64(len(m.Parts))
}

// BeginMaintenance starts repairs on every dead or heavily worn part.
// Worn means under a quarter of planned life left.
func (m *Model) BeginMaintenance() {
	for _, p := range m.Parts {
		if p.Repairing {
			continue
		}
		if !p.Working() || p.RemainingLife < 0.25*p.PlannedLife {
			p.Repairing = true
			days := m.repair.Rand()
			if days < 1 {
				days = 1
			}
			p.RepairLeft = days
		}
	}
}

// InMaintenance reports whether any part is still being repaired.
func (m *Model) InMaintenance() bool {
	for _, p := range m.Parts {
		if p.Repairing {
			return true
		}
	}
	return false
}
