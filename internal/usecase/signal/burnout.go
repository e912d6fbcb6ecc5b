package signal

import (
	"time"

	"swarmroute/internal/domain"
)

// Workload and failure components of burnout risk.
const (
	burnoutWorkloadWeight = 0.7
	burnoutFailureWeight  = 0.3
)

// BurnoutRisk estimates, in [0, 1], how overloaded or failure-prone an
// agent currently is. Completions inside the trailing BurnoutWindow
// count toward workload; consecutive failures from the lifecycle source
// count toward the failure component. Records without a usable timestamp
// are skipped.
func (t Thresholds) BurnoutRisk(evidence []domain.EvidenceRecord, lifecycle domain.LifecycleEntry, now time.Time) float64 {
	cutoff := now.Add(-t.BurnoutWindow)
	recent := 0
	for _, rec := range evidence {
		if rec.Timestamp.IsZero() {
			continue
		}
		if rec.Timestamp.After(cutoff) && !rec.Timestamp.After(now) {
			recent++
		}
	}

	workload := clamp(float64(recent)/float64(t.BurnoutTaskLimit), 0, 1)
	failure := clamp(float64(lifecycle.ConsecutiveFailures)/float64(t.BurnoutFailureLimit), 0, 1)

	return clamp(workload*burnoutWorkloadWeight+failure*burnoutFailureWeight, 0, 1)
}
