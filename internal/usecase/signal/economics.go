package signal

import "swarmroute/internal/domain"

// Economic viability fallbacks when the margin cannot be computed.
const (
	economicUnknownBounty = 0.3 // no bounty attached to the task
	economicNoCostData    = 0.5 // agent has no historical cost data
)

// EconomicViability scores, in [0, 1], whether taking a task at the
// given bounty makes economic sense for the agent, based on its
// historical average per-task cost. Margin thresholds map to a fixed
// ladder; deeply negative margins bottom out at 0.1.
func EconomicViability(profile domain.PerformanceProfile, bountyUSD float64) float64 {
	if bountyUSD <= 0 {
		return economicUnknownBounty
	}
	avgCost := profile.AverageCostUSD()
	if avgCost <= 0 {
		return economicNoCostData
	}

	margin := (bountyUSD - avgCost) / bountyUSD
	switch {
	case margin > 0.7:
		return 1.0
	case margin > 0.4:
		return 0.8
	case margin > 0.1:
		return 0.6
	case margin > 0:
		return 0.4
	default:
		return clamp(0.3+margin, 0.1, 1)
	}
}
