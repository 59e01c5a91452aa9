package grid

// Snapshot is an immutable per-timestep view of the grid. Agents read
// snapshots concurrently; nothing ever writes through one. Each agent
// copies the slice entries it cares about into its own belief base.
type Snapshot struct {
	Step     uint64
	Plants   []Plant
	Circuits []Circuit
	Links    []TransmissionLink
}

// TakeSnapshot copies the current topology state into a Snapshot.
func TakeSnapshot(step uint64, t *Topology) *Snapshot {
	s := &Snapshot{
		Step:     step,
		Plants:   make([]Plant, len(t.Plants)),
		Circuits: make([]Circuit, len(t.Circuits)),
		Links:    make([]TransmissionLink, len(t.Links)),
	}
	for i, p := range t.Plants {
		s.Plants[i] = *p
	}
	for i, c := range t.Circuits {
		s.Circuits[i] = *c
	}
	copy(s.Links, t.Links)
	return s
}

// TotalCapacity sums the available output of all plants.
func (s *Snapshot) TotalCapacity() float64 {
	total := 0.0
	for i := range s.Plants {
		total += s.Plants[i].Available()
	}
	return total
}

// TotalDemand sums demand across all circuits.
func (s *Snapshot) TotalDemand() float64 {
	total := 0.0
	for i := range s.Circuits {
		total += s.Circuits[i].Demand
	}
	return total
}

// Deficit returns demand minus available capacity, floored at zero.
func (s *Snapshot) Deficit() float64 {
	d := s.TotalDemand() - s.TotalCapacity()
	if d < 0 {
		return 0
	}
	return d
}

// Plant looks up a plant by id in the snapshot.
func (s *Snapshot) Plant(id PlantID) (Plant, bool) {
	for i := range s.Plants {
		if s.Plants[i].ID == id {
			return s.Plants[i], true
		}
	}
	return Plant{}, false
}

// LinkCapacityInto sums the capacity of all links feeding a circuit.
func (s *Snapshot) LinkCapacityInto(id CircuitID) float64 {
	total := 0.0
	for _, l := range s.Links {
		if l.Circuit == id {
			total += l.Capacity
		}
	}
	return total
}
