package domain

import "time"

// Trajectory labels the direction of an agent's recent approval-rate trend.
type Trajectory string

const (
	TrajectoryImproving Trajectory = "improving"
	TrajectoryStable    Trajectory = "stable"
	TrajectoryDeclining Trajectory = "declining"
)

// Valid returns true if the trajectory is a known value.
func (t Trajectory) Valid() bool {
	switch t {
	case TrajectoryImproving, TrajectoryStable, TrajectoryDeclining:
		return true
	default:
		return false
	}
}

// AgentIntelligence is the fused per-agent record produced by one
// synthesis pass. It is rebuilt fresh on every pass and read-only once
// returned.
type AgentIntelligence struct {
	AgentName string `json:"agent_name"`

	// Primary signals, copied from the four sources.
	OverallScore         float64        `json:"overall_score"`
	ReliabilityScore     float64        `json:"reliability_score"`
	EfficiencyScore      float64        `json:"efficiency_score"`
	VersatilityScore     float64        `json:"versatility_score"`
	TotalTasks           int            `json:"total_tasks"`
	ReputationScore      float64        `json:"reputation_score"`
	ReputationTier       string         `json:"reputation_tier"`
	ReputationConfidence float64        `json:"reputation_confidence"`
	LifecycleState       LifecycleState `json:"lifecycle_state"`
	ConsecutiveFailures  int            `json:"consecutive_failures"`
	RecentTasks          int            `json:"recent_tasks"`
	ApprovalRate         float64        `json:"approval_rate"`

	// Derived signals.
	Momentum          float64    `json:"momentum"`           // [-15, 15]
	Trajectory        Trajectory `json:"trajectory"`
	BurnoutRisk       float64    `json:"burnout_risk"`       // [0, 1]
	ColdStartBonus    float64    `json:"cold_start_bonus"`   // [0, 15]
	Availability      float64    `json:"availability"`       // {0, 0.1, 0.3, 1.0}
	EconomicViability float64    `json:"economic_viability"` // [0, 1]
	CompoundScore     float64    `json:"compound_score"`     // [0, 100]

	SourcesAvailable int       `json:"sources_available"` // [0, 4]
	Warnings         []string  `json:"warnings,omitempty"`
	SynthesizedAt    time.Time `json:"synthesized_at"`
}
