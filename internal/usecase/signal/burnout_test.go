package signal

import (
	"math"
	"testing"
	"time"

	"swarmroute/internal/domain"
)

func timedEvidence(now time.Time, ages ...time.Duration) []domain.EvidenceRecord {
	recs := make([]domain.EvidenceRecord, len(ages))
	for i, age := range ages {
		recs[i] = domain.EvidenceRecord{
			Approved:  true,
			Timestamp: domain.FlexTime{Time: now.Add(-age)},
		}
	}
	return recs
}

func TestBurnoutRiskWorkloadOnly(t *testing.T) {
	th := DefaultThresholds()
	now := time.Now().UTC()

	// 8 completions in the trailing 24h saturates the workload component.
	recs := timedEvidence(now, time.Hour, 2*time.Hour, 3*time.Hour, 4*time.Hour,
		5*time.Hour, 6*time.Hour, 7*time.Hour, 8*time.Hour)
	risk := th.BurnoutRisk(recs, domain.LifecycleEntry{}, now)
	if math.Abs(risk-0.7) > 1e-9 {
		t.Errorf("risk = %v, want 0.7", risk)
	}

	// Half the limit: 4/8 * 0.7 = 0.35.
	risk = th.BurnoutRisk(recs[:4], domain.LifecycleEntry{}, now)
	if math.Abs(risk-0.35) > 1e-9 {
		t.Errorf("risk = %v, want 0.35", risk)
	}
}

func TestBurnoutRiskFailuresOnly(t *testing.T) {
	th := DefaultThresholds()
	now := time.Now().UTC()

	risk := th.BurnoutRisk(nil, domain.LifecycleEntry{ConsecutiveFailures: 5}, now)
	if math.Abs(risk-0.3) > 1e-9 {
		t.Errorf("risk = %v, want 0.3", risk)
	}

	// More than the limit still caps at the failure weight.
	risk = th.BurnoutRisk(nil, domain.LifecycleEntry{ConsecutiveFailures: 12}, now)
	if math.Abs(risk-0.3) > 1e-9 {
		t.Errorf("risk = %v, want 0.3", risk)
	}
}

func TestBurnoutRiskCombinedClamped(t *testing.T) {
	th := DefaultThresholds()
	now := time.Now().UTC()

	recs := timedEvidence(now, time.Hour, time.Hour, time.Hour, time.Hour,
		time.Hour, time.Hour, time.Hour, time.Hour, time.Hour, time.Hour)
	risk := th.BurnoutRisk(recs, domain.LifecycleEntry{ConsecutiveFailures: 9}, now)
	if risk != 1 {
		t.Errorf("risk = %v, want 1 (clamped)", risk)
	}
}

func TestBurnoutRiskIgnoresOldAndUntimestamped(t *testing.T) {
	th := DefaultThresholds()
	now := time.Now().UTC()

	recs := timedEvidence(now, 25*time.Hour, 48*time.Hour)
	recs = append(recs, domain.EvidenceRecord{Approved: true}) // zero timestamp
	risk := th.BurnoutRisk(recs, domain.LifecycleEntry{}, now)
	if risk != 0 {
		t.Errorf("risk = %v, want 0", risk)
	}
}

func TestBurnoutRiskRange(t *testing.T) {
	th := DefaultThresholds()
	now := time.Now().UTC()
	for fails := 0; fails <= 10; fails++ {
		recs := timedEvidence(now, time.Hour, 2*time.Hour, 30*time.Hour)
		risk := th.BurnoutRisk(recs, domain.LifecycleEntry{ConsecutiveFailures: fails}, now)
		if risk < 0 || risk > 1 {
			t.Errorf("fails=%d: risk %v outside [0, 1]", fails, risk)
		}
	}
}
