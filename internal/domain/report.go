package domain

import (
	"context"
	"time"
)

// Tier is the four-way percentile tier assigned by the fleet reporter.
// Distinct from the externally-computed reputation tier, which is passed
// through as an input signal.
type Tier string

const (
	TierElite           Tier = "elite"
	TierReliable        Tier = "reliable"
	TierDeveloping      Tier = "developing"
	TierUnderperforming Tier = "underperforming"
)

// SwarmIntelligenceReport is the fleet-wide aggregate of one synthesis pass.
type SwarmIntelligenceReport struct {
	GeneratedAt      time.Time              `json:"generated_at"`
	TotalAgents      int                    `json:"total_agents"`
	StateCounts      map[LifecycleState]int `json:"state_counts"`
	SwarmHealthScore float64                `json:"swarm_health_score"` // [0, 100]
	MomentumTrend    Trajectory             `json:"momentum_trend"`
	Tiers            map[Tier][]string      `json:"tiers"`
	Bottlenecks      []string               `json:"bottlenecks,omitempty"`
	Opportunities    []string               `json:"opportunities,omitempty"`
	Risks            []string               `json:"risks,omitempty"`
}

// IntelligenceSnapshot is the persisted form of one full synthesis pass.
type IntelligenceSnapshot struct {
	Timestamp time.Time                     `json:"timestamp"`
	Agents    map[string]*AgentIntelligence `json:"agents"`
	Report    *SwarmIntelligenceReport      `json:"report,omitempty"`
}

// IntelligenceStore persists synthesis passes for audit and caching.
type IntelligenceStore interface {
	Save(ctx context.Context, snap *IntelligenceSnapshot) error
	// LoadLatest returns the most recently saved snapshot, or ErrNoSnapshot.
	LoadLatest(ctx context.Context) (*IntelligenceSnapshot, error)
	Close() error
}
