// Package report aggregates a synthesis pass into a fleet-wide
// SwarmIntelligenceReport: lifecycle census, health score, percentile
// tiers and detected patterns.
package report

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"swarmroute/internal/domain"
	"swarmroute/internal/usecase/synthesis"
)

const (
	decliningRiskFraction = 0.3
	burnoutRiskLevel      = 0.6
	coldStartFraction     = 0.5
	momentumTrendBand     = 3.0
)

// Reporter builds fleet reports from finished synthesis passes.
type Reporter struct {
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Reporter.
func New(logger *slog.Logger) *Reporter {
	return &Reporter{
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the wall clock, for deterministic tests.
func (r *Reporter) SetClock(now func() time.Time) { r.now = now }

// Generate aggregates the pass into a report. The pass is borrowed
// read-only; an empty fleet yields an empty but well-formed report.
func (r *Reporter) Generate(pass *synthesis.Pass) *domain.SwarmIntelligenceReport {
	rep := &domain.SwarmIntelligenceReport{
		GeneratedAt:   r.now(),
		TotalAgents:   len(pass.Agents),
		StateCounts:   make(map[domain.LifecycleState]int),
		MomentumTrend: domain.TrajectoryStable,
		Tiers:         make(map[domain.Tier][]string),
	}

	var (
		compoundSum float64
		momentumSum float64
		declining   int
		coldStart   int
		burnedOut   []string
	)
	for _, intel := range pass.Agents {
		rep.StateCounts[intel.LifecycleState]++
		compoundSum += intel.CompoundScore
		momentumSum += intel.Momentum
		if intel.Trajectory == domain.TrajectoryDeclining {
			declining++
		}
		if intel.ColdStartBonus > 0 {
			coldStart++
		}
		if intel.BurnoutRisk > burnoutRiskLevel {
			burnedOut = append(burnedOut, intel.AgentName)
		}
	}
	sort.Strings(burnedOut)

	if rep.TotalAgents > 0 {
		n := float64(rep.TotalAgents)
		healthy := rep.StateCounts[domain.StateIdle] + rep.StateCounts[domain.StateWorking]
		avgCompound := compoundSum / n

		rep.SwarmHealthScore = 50*(float64(healthy)/n) + min(50, avgCompound)
		rep.MomentumTrend = trendLabel(momentumSum / n)
		rep.Tiers = tierByPercentile(pass.Agents)

		if float64(declining)/n > decliningRiskFraction {
			rep.Risks = append(rep.Risks,
				fmt.Sprintf("%d of %d agents have a declining approval trajectory", declining, rep.TotalAgents))
		}
		if len(burnedOut) > 0 {
			rep.Risks = append(rep.Risks,
				fmt.Sprintf("%d agent(s) above %.1f burnout risk: %v", len(burnedOut), burnoutRiskLevel, burnedOut))
		}
		if float64(coldStart)/n > coldStartFraction {
			rep.Opportunities = append(rep.Opportunities,
				fmt.Sprintf("%d of %d agents are in cold start; fleet has untapped capacity to prove out", coldStart, rep.TotalAgents))
		}
		rep.Bottlenecks = r.bottlenecks(rep)
		rep.Opportunities = append(rep.Opportunities, skillGaps(pass)...)
	}

	r.logger.Info("fleet report generated",
		"agents", rep.TotalAgents,
		"health", rep.SwarmHealthScore,
		"trend", rep.MomentumTrend,
		"risks", len(rep.Risks))
	return rep
}

func trendLabel(avgMomentum float64) domain.Trajectory {
	switch {
	case avgMomentum > momentumTrendBand:
		return domain.TrajectoryImproving
	case avgMomentum < -momentumTrendBand:
		return domain.TrajectoryDeclining
	default:
		return domain.TrajectoryStable
	}
}

// tierByPercentile splits the fleet by compound score: top 10% elite,
// next 30% reliable, next 30% developing, bottom 30% underperforming.
// Boundaries round up, so a non-empty fleet always has an elite agent.
func tierByPercentile(agents map[string]*domain.AgentIntelligence) map[domain.Tier][]string {
	ranked := make([]*domain.AgentIntelligence, 0, len(agents))
	for _, intel := range agents {
		ranked = append(ranked, intel)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].CompoundScore != ranked[j].CompoundScore {
			return ranked[i].CompoundScore > ranked[j].CompoundScore
		}
		return ranked[i].AgentName < ranked[j].AgentName
	})

	n := len(ranked)
	eliteEnd := ceilFrac(n, 0.1)
	reliableEnd := ceilFrac(n, 0.4)
	developingEnd := ceilFrac(n, 0.7)

	tiers := map[domain.Tier][]string{
		domain.TierElite:           {},
		domain.TierReliable:        {},
		domain.TierDeveloping:      {},
		domain.TierUnderperforming: {},
	}
	for i, intel := range ranked {
		switch {
		case i < eliteEnd:
			tiers[domain.TierElite] = append(tiers[domain.TierElite], intel.AgentName)
		case i < reliableEnd:
			tiers[domain.TierReliable] = append(tiers[domain.TierReliable], intel.AgentName)
		case i < developingEnd:
			tiers[domain.TierDeveloping] = append(tiers[domain.TierDeveloping], intel.AgentName)
		default:
			tiers[domain.TierUnderperforming] = append(tiers[domain.TierUnderperforming], intel.AgentName)
		}
	}
	return tiers
}

func ceilFrac(n int, frac float64) int {
	v := int(float64(n) * frac)
	if float64(v) < float64(n)*frac {
		v++
	}
	return v
}

func (r *Reporter) bottlenecks(rep *domain.SwarmIntelligenceReport) []string {
	idle := rep.StateCounts[domain.StateIdle]
	working := rep.StateCounts[domain.StateWorking]

	var out []string
	if idle == 0 && working > 0 {
		out = append(out, "no idle agents while work is in flight; new tasks will queue")
	} else if rep.TotalAgents > 10 && idle < 3 {
		out = append(out, fmt.Sprintf("only %d idle agent(s) across a fleet of %d", idle, rep.TotalAgents))
	}
	return out
}

// skillGaps reports every category in the fixed keyword table that no
// agent has demonstrated experience in.
func skillGaps(pass *synthesis.Pass) []string {
	experienced := make(map[string]bool)
	if pass.Snapshot != nil {
		for _, records := range pass.Snapshot.Evidence {
			for _, rec := range records {
				experienced[rec.Category] = true
			}
		}
	}

	var gaps []string
	for _, name := range domain.CategoryNames() {
		if !experienced[name] {
			gaps = append(gaps, fmt.Sprintf("no agent has experience in category %q", name))
		}
	}
	return gaps
}
