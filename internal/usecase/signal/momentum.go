package signal

import "swarmroute/internal/domain"

// Momentum measures whether an agent's recent approval rate is trending
// up or down against its own history. The evidence history is split into
// halves by index order; the approval-rate delta between the recent and
// older half drives both the trajectory label and the signed momentum
// value in [-15, 15].
//
// Fewer than MomentumMinRecords records yields (0, stable): too little
// history to call a trend.
func (t Thresholds) Momentum(evidence []domain.EvidenceRecord) (float64, domain.Trajectory) {
	if len(evidence) < t.MomentumMinRecords {
		return 0, domain.TrajectoryStable
	}

	mid := len(evidence) / 2
	older := ApprovalRate(evidence[:mid])
	recent := ApprovalRate(evidence[mid:])
	delta := recent - older

	switch {
	case delta > t.MomentumDelta:
		return clamp(delta*100, -15, 15), domain.TrajectoryImproving
	case delta < -t.MomentumDelta:
		return clamp(delta*100, -15, 15), domain.TrajectoryDeclining
	default:
		return delta * 50, domain.TrajectoryStable
	}
}

// ApprovalRate returns the approved fraction of an evidence slice, or 0
// when empty.
func ApprovalRate(evidence []domain.EvidenceRecord) float64 {
	if len(evidence) == 0 {
		return 0
	}
	approved := 0
	for _, rec := range evidence {
		if rec.Approved {
			approved++
		}
	}
	return float64(approved) / float64(len(evidence))
}
