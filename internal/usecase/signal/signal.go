// Package signal derives secondary per-agent signals (momentum, burnout
// risk, cold-start bonus, availability, economic viability, task fitness)
// from normalized source data. Every function is pure: no I/O, no side
// effects, deterministic for a fixed input.
package signal

import (
	"time"

	"swarmroute/internal/infra/config"
)

// Thresholds carries the tunable constants the signal functions depend
// on. Zero values are not usable; construct with DefaultThresholds and
// override fields as needed.
type Thresholds struct {
	// MomentumMinRecords is the minimum evidence history length before a
	// trend is computed at all.
	MomentumMinRecords int
	// MomentumDelta is the half-split approval-rate delta beyond which
	// the trajectory flips from stable.
	MomentumDelta float64

	// BurnoutTaskLimit completions inside BurnoutWindow count as full
	// workload risk; BurnoutFailureLimit consecutive failures count as
	// full failure risk.
	BurnoutWindow       time.Duration
	BurnoutTaskLimit    int
	BurnoutFailureLimit int

	// ColdStartMax is the exploration bonus for a brand-new agent,
	// decaying linearly to zero at ColdStartTasks total tasks.
	ColdStartMax   float64
	ColdStartTasks int
}

// FromConfig builds Thresholds from the scoring configuration.
func FromConfig(cfg config.ScoringConfig) Thresholds {
	return Thresholds{
		MomentumMinRecords:  cfg.MomentumMinRecords,
		MomentumDelta:       cfg.MomentumDelta,
		BurnoutWindow:       cfg.BurnoutWindow,
		BurnoutTaskLimit:    cfg.BurnoutTaskLimit,
		BurnoutFailureLimit: cfg.BurnoutFailureLimit,
		ColdStartMax:        cfg.ColdStartMax,
		ColdStartTasks:      cfg.ColdStartTasks,
	}
}

// DefaultThresholds returns the calibrated production constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MomentumMinRecords:  4,
		MomentumDelta:       0.15,
		BurnoutWindow:       24 * time.Hour,
		BurnoutTaskLimit:    8,
		BurnoutFailureLimit: 5,
		ColdStartMax:        15,
		ColdStartTasks:      5,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
