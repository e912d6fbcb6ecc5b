package domain

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// LifecycleState is the operational state reported by the external
// lifecycle manager. Unknown strings are preserved as-is and treated
// as unavailable.
type LifecycleState string

const (
	StateIdle     LifecycleState = "idle"
	StateStarting LifecycleState = "starting"
	StateWorking  LifecycleState = "working"
	StateCooldown LifecycleState = "cooldown"
	StateDraining LifecycleState = "draining"
	StateStopping LifecycleState = "stopping"
	StateError    LifecycleState = "error"
	StateOffline  LifecycleState = "offline"
)

// PerformanceProfile is one agent's profiler output (performance.json).
type PerformanceProfile struct {
	TotalTasks       int     `json:"total_tasks"`
	TotalApproved    int     `json:"total_approved"`
	TotalRejected    int     `json:"total_rejected"`
	TotalCostUSD     float64 `json:"total_cost_usd"`
	OverallScore     float64 `json:"overall_score"`
	ReliabilityScore float64 `json:"reliability_score"`
	EfficiencyScore  float64 `json:"efficiency_score"`
	VersatilityScore float64 `json:"versatility_score"`
}

// ApprovalRate returns approved/total, or 0 when no tasks are recorded.
func (p PerformanceProfile) ApprovalRate() float64 {
	if p.TotalTasks <= 0 {
		return 0
	}
	return float64(p.TotalApproved) / float64(p.TotalTasks)
}

// AverageCostUSD returns the historical per-task cost, or 0 when unknown.
func (p PerformanceProfile) AverageCostUSD() float64 {
	if p.TotalTasks <= 0 || p.TotalCostUSD <= 0 {
		return 0
	}
	return p.TotalCostUSD / float64(p.TotalTasks)
}

// EvidenceRecord is one completed-task record from evidence_history.json.
type EvidenceRecord struct {
	Category  string   `json:"category"`
	Approved  bool     `json:"approved"`
	BountyUSD float64  `json:"bounty_usd"`
	CostUSD   float64  `json:"cost_usd"`
	Timestamp FlexTime `json:"timestamp"`
}

// ReputationLayer is one scoring layer inside a reputation snapshot.
type ReputationLayer struct {
	Score float64 `json:"score"`
}

// ReputationLayers groups the three reputation scoring layers.
type ReputationLayers struct {
	OnChain       ReputationLayer `json:"on_chain"`
	OffChain      ReputationLayer `json:"off_chain"`
	Transactional ReputationLayer `json:"transactional"`
}

// ReputationEntry is one agent's entry in a reputation snapshot file.
type ReputationEntry struct {
	CompositeScore   float64          `json:"composite_score"`
	Tier             string           `json:"tier"`
	Confidence       float64          `json:"confidence"`
	SourcesAvailable int              `json:"sources_available"`
	Layers           ReputationLayers `json:"layers"`
}

// LifecycleEntry is one agent's entry in lifecycle_state.json.
type LifecycleEntry struct {
	AgentName           string         `json:"agent_name"`
	State               LifecycleState `json:"state"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	TotalSuccesses      int            `json:"total_successes"`
	TotalFailures       int            `json:"total_failures"`
}

// SourceSnapshot is the loader's normalized view of the four external
// data sources at one point in time. Downstream components treat it as
// read-only.
type SourceSnapshot struct {
	Profiles   map[string]PerformanceProfile
	Evidence   map[string][]EvidenceRecord
	Reputation map[string]ReputationEntry
	Lifecycle  map[string]LifecycleEntry
	LoadedAt   time.Time
}

// AgentNames returns the sorted union of agent names across all sources.
// An agent present in only one source is still profiled.
func (s *SourceSnapshot) AgentNames() []string {
	seen := make(map[string]struct{})
	for name := range s.Profiles {
		seen[name] = struct{}{}
	}
	for name := range s.Evidence {
		seen[name] = struct{}{}
	}
	for name := range s.Reputation {
		seen[name] = struct{}{}
	}
	for name := range s.Lifecycle {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SourcesFor counts how many of the four sources have data for the agent.
func (s *SourceSnapshot) SourcesFor(name string) int {
	n := 0
	if _, ok := s.Profiles[name]; ok {
		n++
	}
	if _, ok := s.Evidence[name]; ok {
		n++
	}
	if _, ok := s.Reputation[name]; ok {
		n++
	}
	if _, ok := s.Lifecycle[name]; ok {
		n++
	}
	return n
}

// FlexTime is a timestamp that unmarshals from either a unix epoch
// number (seconds, integer or fractional) or an RFC3339/ISO-8601 string.
// External producers emit both shapes; normalization happens here so
// downstream logic only sees time.Time.
type FlexTime struct {
	time.Time
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	// Numeric epoch, possibly fractional.
	if s[0] != '"' {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			t.Time = time.Time{}
			return nil
		}
		sec := int64(f)
		nsec := int64((f - float64(sec)) * 1e9)
		t.Time = time.Unix(sec, nsec).UTC()
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, str); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	// Unparseable timestamps degrade to zero rather than failing the record.
	t.Time = time.Time{}
	return nil
}
