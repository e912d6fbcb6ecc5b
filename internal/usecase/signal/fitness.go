package signal

import (
	"strings"

	"swarmroute/internal/domain"
)

// trendNudge is applied to direct-history fitness when the category's
// own trajectory is improving (+) or declining (-).
const trendNudge = 5

// noHistoryPenalty discounts the overall profiler score when the agent
// has no direct evidence in the task's category.
const noHistoryPenalty = 0.6

// InferCategory assigns a category to free-form task text by counting
// keyword hits per category. Ties (including the all-zero case) resolve
// to the category listed first in the fixed table, keeping inference
// deterministic.
func InferCategory(title, description string) string {
	text := strings.ToLower(title + " " + description)

	best := domain.Categories[0].Name
	bestHits := -1
	for _, cat := range domain.Categories {
		hits := 0
		for _, kw := range cat.Keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = cat.Name
			bestHits = hits
		}
	}
	return best
}

// SkillFitness scores, in [0, 100], how well an agent's demonstrated
// skills match a task category. Direct category history dominates: the
// category approval rate scaled to 100 and nudged by the category's own
// trend. Without direct evidence the overall profiler score is used at a
// penalty.
func (t Thresholds) SkillFitness(evidence []domain.EvidenceRecord, overallScore float64, category string) float64 {
	var inCategory []domain.EvidenceRecord
	for _, rec := range evidence {
		if rec.Category == category {
			inCategory = append(inCategory, rec)
		}
	}

	if len(inCategory) == 0 {
		return clamp(overallScore*noHistoryPenalty, 0, 100)
	}

	fitness := ApprovalRate(inCategory) * 100
	_, trend := t.Momentum(inCategory)
	switch trend {
	case domain.TrajectoryImproving:
		fitness += trendNudge
	case domain.TrajectoryDeclining:
		fitness -= trendNudge
	}
	return clamp(fitness, 0, 100)
}
