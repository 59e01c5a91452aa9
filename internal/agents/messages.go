// Package agents implements the two BDI roles that run the grid: one
// PlantAgent per thermoelectric plant and a single ChiefAgent for the
// whole region. Agents never call each other; plant requests and chief
// decisions travel through per-timestep inboxes and outboxes so each
// side can be tested alone.
package agents

import (
	"errors"

	"github.com/google/uuid"

	"github.com/talgya/powergrid/internal/grid"
)

// ErrStaleBelief reports that an agent's belief base predates the
// current timestep. The chief forces a resynchronization and logs it;
// a stale snapshot is never silently acted on.
var ErrStaleBelief = errors.New("agent beliefs predate current timestep")

// MaintenanceRequest is a plant agent asking the chief for a repair
// window.
type MaintenanceRequest struct {
	Plant  grid.PlantID
	Health float64
	Step   uint64
	Urgent bool // failed plants must be repaired before returning to service
}

// MaintenanceDecision is the chief's answer to one request.
type MaintenanceDecision struct {
	Plant    grid.PlantID
	Approved bool
	Step     uint64
	Reason   string
}

// IntentionKind enumerates the actions an agent can commit to.
type IntentionKind uint8

const (
	IntentOperate IntentionKind = iota
	IntentRequestMaintenance
	IntentAcceptMaintenance
	IntentCommitCut
	IntentApproveMaintenance
	IntentDeferMaintenance
)

// IntentionName returns a readable name for an intention kind.
func IntentionName(k IntentionKind) string {
	switch k {
	case IntentOperate:
		return "operate"
	case IntentRequestMaintenance:
		return "request-maintenance"
	case IntentAcceptMaintenance:
		return "accept-maintenance"
	case IntentCommitCut:
		return "commit-cut"
	case IntentApproveMaintenance:
		return "approve-maintenance"
	case IntentDeferMaintenance:
		return "defer-maintenance"
	default:
		return "unknown"
	}
}

// Intention is a committed action, tagged with the timestep it was
// decided for auditability. It is retained until executed or
// superseded by a later timestep's decision.
type Intention struct {
	ID     string        `json:"id"`
	Kind   IntentionKind `json:"kind"`
	Plant  grid.PlantID  `json:"plant,omitempty"`
	Step   uint64        `json:"step"`
	Detail string        `json:"detail,omitempty"`
}

// NewIntention stamps a fresh intention.
func NewIntention(kind IntentionKind, plant grid.PlantID, step uint64, detail string) Intention {
	return Intention{
		ID:     uuid.NewString(),
		Kind:   kind,
		Plant:  plant,
		Step:   step,
		Detail: detail,
	}
}
