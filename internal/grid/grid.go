// Package grid holds the regional grid model: plants, circuits,
// transmission links, and the per-timestep snapshots the agents read.
package grid

import "fmt"

// PlantID identifies a thermoelectric plant.
type PlantID string

// CircuitID identifies a distribution circuit.
type CircuitID string

// LinkID identifies a transmission link.
type LinkID string

// PlantStatus enumerates the operating states of a plant.
type PlantStatus uint8

const (
	PlantOperating            PlantStatus = iota
	PlantMaintenanceRequested             // still on line, repair asked for
	PlantUnderMaintenance                 // off line, repair in progress
	PlantFailed                           // health reached zero
)

// StatusName returns a readable name for a plant status.
func StatusName(s PlantStatus) string {
	switch s {
	case PlantOperating:
		return "operating"
	case PlantMaintenanceRequested:
		return "maintenance-requested"
	case PlantUnderMaintenance:
		return "under-maintenance"
	case PlantFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Plant is a thermoelectric plant. Health is in [0,1] and only rises
// through maintenance; Output never exceeds NominalCapacity.
type Plant struct {
	ID              PlantID     `json:"id"`
	Name            string      `json:"name"`
	NominalCapacity float64     `json:"nominal_capacity"` // MW
	Output          float64     `json:"output"`           // MW currently available
	Health          float64     `json:"health"`           // 0.0 (failed) to 1.0 (new)
	Status          PlantStatus `json:"status"`
}

// Available reports the capacity the plant can offer right now.
// Plants off line for maintenance or failure offer nothing.
func (p *Plant) Available() float64 {
	if p.Status == PlantUnderMaintenance || p.Status == PlantFailed {
		return 0
	}
	return p.Output
}

// Circuit is a distribution circuit serving a group of consumers.
type Circuit struct {
	ID            CircuitID `json:"id"`
	Name          string    `json:"name"`
	Demand        float64   `json:"demand"`         // MW this timestep, externally supplied
	OutageMinutes float64   `json:"outage_minutes"` // lifetime cumulative
	Mood          float64   `json:"mood"`           // 0.0 (furious) to 1.0 (content)
}

// TransmissionLink carries power from one plant toward one circuit,
// up to a capacity ceiling.
type TransmissionLink struct {
	ID       LinkID    `json:"id"`
	Plant    PlantID   `json:"plant"`
	Circuit  CircuitID `json:"circuit"`
	Capacity float64   `json:"capacity"` // MW ceiling
}

// Topology is the slowly-changing wiring of the grid. Built once from
// external topology input, then only read.
type Topology struct {
	Plants   []*Plant
	Circuits []*Circuit
	Links    []TransmissionLink

	plantIndex   map[PlantID]*Plant
	circuitIndex map[CircuitID]*Circuit
}

// NewTopology validates the wiring and builds lookup indexes.
// Every link must reference an existing plant and circuit.
func NewTopology(plants []*Plant, circuits []*Circuit, links []TransmissionLink) (*Topology, error) {
	t := &Topology{
		Plants:       plants,
		Circuits:     circuits,
		Links:        links,
		plantIndex:   make(map[PlantID]*Plant, len(plants)),
		circuitIndex: make(map[CircuitID]*Circuit, len(circuits)),
	}
	for _, p := range plants {
		if _, dup := t.plantIndex[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plant id %q", p.ID)
		}
		t.plantIndex[p.ID] = p
	}
	for _, c := range circuits {
		if _, dup := t.circuitIndex[c.ID]; dup {
			return nil, fmt.Errorf("duplicate circuit id %q", c.ID)
		}
		t.circuitIndex[c.ID] = c
	}
	for _, l := range links {
		if _, ok := t.plantIndex[l.Plant]; !ok {
			return nil, fmt.Errorf("link %q references unknown plant %q", l.ID, l.Plant)
		}
		if _, ok := t.circuitIndex[l.Circuit]; !ok {
			return nil, fmt.Errorf("link %q references unknown circuit %q", l.ID, l.Circuit)
		}
		if l.Capacity < 0 {
			return nil, fmt.Errorf("link %q has negative capacity", l.ID)
		}
	}
	return t, nil
}

// Plant returns the plant with the given id, or nil.
func (t *Topology) Plant(id PlantID) *Plant { return t.plantIndex[id] }

// Circuit returns the circuit with the given id, or nil.
func (t *Topology) Circuit(id CircuitID) *Circuit { return t.circuitIndex[id] }

// LinkCapacityInto sums the capacity of all links feeding a circuit.
func (t *Topology) LinkCapacityInto(id CircuitID) float64 {
	total := 0.0
	for _, l := range t.Links {
		if l.Circuit == id {
			total += l.Capacity
		}
	}
	return total
}
