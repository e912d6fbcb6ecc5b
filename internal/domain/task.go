package domain

import "time"

// physicalEvidenceTypes are evidence requirements that can only be
// satisfied by a human present in the real world. Autonomous agents are
// never eligible for tasks requiring them.
var physicalEvidenceTypes = map[string]struct{}{
	"photo":     {},
	"video":     {},
	"location":  {},
	"in_person": {},
	"signature": {},
}

// TaskRoutingRequest describes one marketplace task to be routed.
type TaskRoutingRequest struct {
	TaskID        string   `json:"task_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      string   `json:"category,omitempty"` // inferred when empty
	BountyUSD     float64  `json:"bounty_usd"`
	EvidenceTypes []string `json:"evidence_types,omitempty"`
}

// RequiresPhysical reports whether any required evidence type demands
// physical presence.
func (t TaskRoutingRequest) RequiresPhysical() bool {
	for _, et := range t.EvidenceTypes {
		if _, ok := physicalEvidenceTypes[et]; ok {
			return true
		}
	}
	return false
}

// RankedAgent is one scored candidate in a routing decision.
type RankedAgent struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// RoutingDecision is the outcome of routing one task. SelectedAgent is
// empty when no agent is eligible; that is a decision state, not an error.
type RoutingDecision struct {
	DecisionID    string        `json:"decision_id"`
	TaskID        string        `json:"task_id"`
	Category      string        `json:"category"`
	Ranked        []RankedAgent `json:"ranked"`
	SelectedAgent string        `json:"selected_agent,omitempty"`
	Confidence    float64       `json:"confidence"` // [0, 1]
	Reasoning     []string      `json:"reasoning,omitempty"`
	Warnings      []string      `json:"warnings,omitempty"`
	DecidedAt     time.Time     `json:"decided_at"`
}
