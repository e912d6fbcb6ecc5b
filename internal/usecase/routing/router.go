// Package routing answers "which agent should take this task" against a
// finished synthesis pass. Routing is a total function: malformed or
// hopeless inputs yield a well-formed decision with no selected agent,
// never an error.
package routing

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"swarmroute/internal/domain"
	"swarmroute/internal/infra/config"
	"swarmroute/internal/infra/tracer"
	"swarmroute/internal/usecase/signal"
	"swarmroute/internal/usecase/synthesis"
)

// Router scores eligible agents against one task and picks the best fit.
type Router struct {
	cfg        config.RoutingConfig
	burnoutPen float64
	thresholds signal.Thresholds
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Router sharing the synthesizer's scoring constants so
// task scores stay consistent with compound scores.
func New(routingCfg config.RoutingConfig, scoringCfg config.ScoringConfig, logger *slog.Logger) *Router {
	return &Router{
		cfg:        routingCfg,
		burnoutPen: scoringCfg.BurnoutPenalty,
		thresholds: signal.FromConfig(scoringCfg),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the wall clock, for deterministic tests.
func (r *Router) SetClock(now func() time.Time) { r.now = now }

type candidate struct {
	name    string
	score   float64
	fitness float64
	intel   *domain.AgentIntelligence
}

// RouteTask ranks every eligible agent in the pass against the task and
// returns a decision. The pass is borrowed read-only.
func (r *Router) RouteTask(ctx context.Context, pass *synthesis.Pass, task domain.TaskRoutingRequest, exclude []string) domain.RoutingDecision {
	_, span := tracer.StartSpan(ctx, "routing.RouteTask")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("task_id", task.TaskID))

	category := task.Category
	if category == "" {
		category = signal.InferCategory(task.Title, task.Description)
		r.logger.Debug("inferred task category", "task_id", task.TaskID, "category", category)
	}

	decision := domain.RoutingDecision{
		DecisionID: newDecisionID(r.now()),
		TaskID:     task.TaskID,
		Category:   category,
		DecidedAt:  r.now(),
	}

	// Physical evidence can only be produced by a human on site; no
	// agent is ever eligible, regardless of score.
	if task.RequiresPhysical() {
		decision.Warnings = append(decision.Warnings, "task requires physical evidence; autonomous agents are ineligible")
		decision.Reasoning = append(decision.Reasoning, "physical task: routing declined without scoring")
		r.logger.Info("physical task declined", "task_id", task.TaskID)
		return decision
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		excluded[name] = struct{}{}
	}

	var candidates []candidate
	for name, intel := range pass.Agents {
		if _, skip := excluded[name]; skip {
			continue
		}
		if intel.Availability <= 0 {
			continue
		}
		fitness := r.thresholds.SkillFitness(pass.Snapshot.Evidence[name], intel.OverallScore, category)
		score := r.taskScore(intel, fitness, pass.Snapshot.Profiles[name], task.BountyUSD)
		if score < r.cfg.MinScore {
			continue
		}
		candidates = append(candidates, candidate{name: name, score: score, fitness: fitness, intel: intel})
	}

	// Deterministic order: score descending, ties broken by name.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].name < candidates[j].name
	})

	decision.Ranked = make([]domain.RankedAgent, len(candidates))
	for i, c := range candidates {
		decision.Ranked[i] = domain.RankedAgent{Name: c.name, Score: c.score}
	}

	if len(candidates) == 0 {
		decision.Warnings = append(decision.Warnings,
			fmt.Sprintf("no eligible agent scored above %.0f for category %q", r.cfg.MinScore, category))
		r.logger.Info("no eligible agent", "task_id", task.TaskID, "category", category)
		return decision
	}

	winner := candidates[0]
	decision.SelectedAgent = winner.name
	decision.Confidence = r.confidence(winner, candidates)
	decision.Reasoning = r.reasoning(winner, category)
	if winner.intel.BurnoutRisk > 0.7 {
		decision.Warnings = append(decision.Warnings,
			fmt.Sprintf("selected agent %s carries elevated burnout risk (%.2f)", winner.name, winner.intel.BurnoutRisk))
	}

	span.SetAttributes(tracer.StringAttr("selected", winner.name))
	r.logger.Info("task routed",
		"task_id", task.TaskID,
		"category", category,
		"selected", winner.name,
		"score", winner.score,
		"confidence", decision.Confidence,
		"candidates", len(candidates))
	return decision
}

// taskScore is the task-specific variant of the compound score: skill
// fitness dominates, then reputation and reliability, with the same
// availability and burnout suppression as synthesis.
func (r *Router) taskScore(intel *domain.AgentIntelligence, fitness float64, profile domain.PerformanceProfile, bountyUSD float64) float64 {
	economic := signal.EconomicViability(profile, bountyUSD)
	score := fitness*r.cfg.WeightFitness +
		intel.ReputationScore*r.cfg.WeightReputation +
		intel.ReliabilityScore*r.cfg.WeightReliability +
		economic*100*r.cfg.WeightEconomic +
		intel.Momentum +
		intel.ColdStartBonus
	return score * intel.Availability * (1 - intel.BurnoutRisk*r.burnoutPen)
}

// confidence blends source coverage of the winner with its score gap to
// the runner-up. A sole candidate counts as fully separated.
func (r *Router) confidence(winner candidate, candidates []candidate) float64 {
	separation := 1.0
	if len(candidates) > 1 {
		gap := winner.score - candidates[1].score
		separation = gap / r.cfg.ConfidenceGap
		if separation > 1 {
			separation = 1
		}
	}
	coverage := float64(winner.intel.SourcesAvailable) / 4
	return 0.6*coverage + 0.4*separation
}

func (r *Router) reasoning(winner candidate, category string) []string {
	reasons := []string{
		fmt.Sprintf("%s leads for %q: fitness %.1f, task score %.1f", winner.name, category, winner.fitness, winner.score),
	}
	switch winner.intel.Trajectory {
	case domain.TrajectoryImproving:
		reasons = append(reasons, fmt.Sprintf("approval rate improving (momentum %.1f)", winner.intel.Momentum))
	case domain.TrajectoryDeclining:
		reasons = append(reasons, fmt.Sprintf("approval rate declining (momentum %.1f)", winner.intel.Momentum))
	}
	if winner.intel.ColdStartBonus > 0 {
		reasons = append(reasons, fmt.Sprintf("cold-start exploration bonus %.1f applied (%d total tasks)",
			winner.intel.ColdStartBonus, winner.intel.TotalTasks))
	}
	return reasons
}

// newDecisionID mints a ULID so decisions sort by time in audit logs.
func newDecisionID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
