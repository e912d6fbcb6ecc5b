// Package synthesis fuses the four normalized data sources into one
// AgentIntelligence record per known agent. A synthesis pass is a pure
// function of the source snapshot; the Synthesizer keeps no state
// between passes.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"swarmroute/internal/domain"
	"swarmroute/internal/infra/config"
	"swarmroute/internal/infra/tracer"
	"swarmroute/internal/usecase/signal"
)

// SnapshotLoader is the narrow loader interface the synthesizer needs.
type SnapshotLoader interface {
	Load(ctx context.Context) (*domain.SourceSnapshot, error)
}

// Pass is the outcome of one synthesis pass. The Synthesizer owns the
// Agents map while building it; callers borrow the finished pass
// read-only and must not mutate it.
type Pass struct {
	Timestamp time.Time
	Agents    map[string]*domain.AgentIntelligence
	// Snapshot is the normalized source data the pass was built from,
	// retained read-only for task-specific fitness computation.
	Snapshot *domain.SourceSnapshot
}

// Synthesizer builds AgentIntelligence records from loaded sources.
type Synthesizer struct {
	loader     SnapshotLoader
	scoring    config.ScoringConfig
	thresholds signal.Thresholds
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Synthesizer with the given scoring constants.
func New(loader SnapshotLoader, scoring config.ScoringConfig, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		loader:     loader,
		scoring:    scoring,
		thresholds: signal.FromConfig(scoring),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the wall clock, for deterministic tests.
func (s *Synthesizer) SetClock(now func() time.Time) { s.now = now }

// Synthesize loads the current sources and builds one AgentIntelligence
// per agent in their union. Deterministic for a fixed snapshot apart
// from the synthesis timestamp.
func (s *Synthesizer) Synthesize(ctx context.Context) (*Pass, error) {
	ctx, span := tracer.StartSpan(ctx, "synthesis.Synthesize")
	defer span.End()

	snap, err := s.loader.Load(ctx)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp("synthesize: load sources", err)
	}

	now := s.now()
	names := snap.AgentNames()
	pass := &Pass{
		Timestamp: now,
		Agents:    make(map[string]*domain.AgentIntelligence, len(names)),
		Snapshot:  snap,
	}
	for _, name := range names {
		pass.Agents[name] = s.buildAgent(snap, name, now)
	}

	span.SetAttributes(tracer.IntAttr("agents", len(names)))
	s.logger.Info("synthesis pass complete", "agents", len(names))
	return pass, nil
}

func (s *Synthesizer) buildAgent(snap *domain.SourceSnapshot, name string, now time.Time) *domain.AgentIntelligence {
	profile := snap.Profiles[name]
	evid := snap.Evidence[name]
	rep := snap.Reputation[name]
	lc := snap.Lifecycle[name]

	momentum, trajectory := s.thresholds.Momentum(evid)
	burnout := s.thresholds.BurnoutRisk(evid, lc, now)
	coldStart := s.thresholds.ColdStartBonus(profile.TotalTasks)
	availability := signal.Availability(lc.State)
	approval := signal.ApprovalRate(evid)
	economic := signal.EconomicViability(profile, averageBounty(evid))

	intel := &domain.AgentIntelligence{
		AgentName:            name,
		OverallScore:         profile.OverallScore,
		ReliabilityScore:     profile.ReliabilityScore,
		EfficiencyScore:      profile.EfficiencyScore,
		VersatilityScore:     profile.VersatilityScore,
		TotalTasks:           profile.TotalTasks,
		ReputationScore:      rep.CompositeScore,
		ReputationTier:       rep.Tier,
		ReputationConfidence: rep.Confidence,
		LifecycleState:       lc.State,
		ConsecutiveFailures:  lc.ConsecutiveFailures,
		RecentTasks:          len(evid),
		ApprovalRate:         approval,
		Momentum:             momentum,
		Trajectory:           trajectory,
		BurnoutRisk:          burnout,
		ColdStartBonus:       coldStart,
		Availability:         availability,
		EconomicViability:    economic,
		SourcesAvailable:     snap.SourcesFor(name),
		SynthesizedAt:        now,
	}
	intel.CompoundScore = s.compoundScore(intel)
	intel.Warnings = s.warnings(intel)
	return intel
}

// compoundScore fuses the primary and derived signals into the single
// [0, 100] ranking value. The weight table lives in ScoringConfig; the
// economic proxy is the [0, 1] viability scaled to the common 0-100
// signal range before weighting.
func (s *Synthesizer) compoundScore(intel *domain.AgentIntelligence) float64 {
	base := intel.OverallScore*s.scoring.WeightOverall +
		intel.ReputationScore*s.scoring.WeightReputation +
		lifecycleReadiness(intel.LifecycleState)*s.scoring.WeightReadiness +
		intel.ApprovalRate*100*s.scoring.WeightApproval +
		intel.Momentum +
		intel.EconomicViability*100*s.scoring.WeightEconomic

	score := (base + intel.ColdStartBonus) * (1 - intel.BurnoutRisk*s.scoring.BurnoutPenalty)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// lifecycleReadiness scores how ready a state is to contribute: fully
// for idle/working agents, half for starting ones, zero otherwise.
func lifecycleReadiness(state domain.LifecycleState) float64 {
	switch state {
	case domain.StateIdle, domain.StateWorking:
		return 100
	case domain.StateStarting:
		return 50
	default:
		return 0
	}
}

func (s *Synthesizer) warnings(intel *domain.AgentIntelligence) []string {
	var warnings []string
	if intel.BurnoutRisk > 0.7 {
		warnings = append(warnings, fmt.Sprintf("burnout risk %.2f exceeds 0.70", intel.BurnoutRisk))
	}
	if intel.ConsecutiveFailures >= 3 {
		warnings = append(warnings, fmt.Sprintf("%d consecutive failures", intel.ConsecutiveFailures))
	}
	if intel.SourcesAvailable == 0 {
		warnings = append(warnings, "no data sources available")
	}
	if intel.Trajectory == domain.TrajectoryDeclining {
		warnings = append(warnings, "approval rate declining")
	}
	return warnings
}

// averageBounty is the reference bounty for the synthesis-time economic
// proxy: the mean bounty of the agent's own completions. Routing
// recomputes viability against each task's actual bounty.
func averageBounty(evidence []domain.EvidenceRecord) float64 {
	if len(evidence) == 0 {
		return 0
	}
	total := 0.0
	for _, rec := range evidence {
		total += rec.BountyUSD
	}
	return total / float64(len(evidence))
}
