// Package source reads the four external intelligence sources (profiler
// performance, completion evidence, reputation snapshots, lifecycle
// state) into one normalized in-memory snapshot.
//
// The loader boundary absorbs every data-quality problem: a missing
// file, an unreadable file, or malformed JSON demotes that agent/source
// to absent with a log line, never an error. Only failures that indicate
// an operational problem outside the engine (the whole source tree being
// unreadable) propagate.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"swarmroute/internal/domain"
	"swarmroute/internal/infra/config"
)

const (
	performanceFile = "performance.json"
	evidenceFile    = "evidence_history.json"
)

// Loader reads and normalizes the four snapshot sources.
type Loader struct {
	cfg    config.SourcesConfig
	logger *slog.Logger
}

// NewLoader creates a Loader for the configured source locations.
func NewLoader(cfg config.SourcesConfig, logger *slog.Logger) *Loader {
	return &Loader{cfg: cfg, logger: logger}
}

// Load reads all four sources and returns the normalized snapshot.
// Agents appearing in any single source are discovered; the others
// default to absent.
func (l *Loader) Load(ctx context.Context) (*domain.SourceSnapshot, error) {
	snap := &domain.SourceSnapshot{
		Profiles:   make(map[string]domain.PerformanceProfile),
		Evidence:   make(map[string][]domain.EvidenceRecord),
		Reputation: make(map[string]domain.ReputationEntry),
		Lifecycle:  make(map[string]domain.LifecycleEntry),
		LoadedAt:   time.Now().UTC(),
	}

	if err := l.loadProfiles(ctx, snap); err != nil {
		return nil, err
	}
	l.loadReputation(snap)
	l.loadLifecycle(snap)

	l.logger.Debug("sources loaded",
		"profiles", len(snap.Profiles),
		"evidence", len(snap.Evidence),
		"reputation", len(snap.Reputation),
		"lifecycle", len(snap.Lifecycle))
	return snap, nil
}

// loadProfiles scans the profiles directory, one subdirectory per agent.
// The scan budget bounds work on very large fleets; hitting it truncates
// the pass with a warning rather than stalling it.
func (l *Loader) loadProfiles(ctx context.Context, snap *domain.SourceSnapshot) error {
	entries, err := os.ReadDir(l.cfg.ProfilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("profiles directory missing", "dir", l.cfg.ProfilesDir)
			return nil
		}
		return fmt.Errorf("read profiles dir: %w", err)
	}

	visited := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.IsDir() {
			continue
		}
		if visited >= l.cfg.ScanBudget {
			l.logger.Warn("profile scan budget exhausted, truncating pass",
				"budget", l.cfg.ScanBudget, "total_dirs", len(entries))
			break
		}
		visited++

		name := entry.Name()
		agentDir := filepath.Join(l.cfg.ProfilesDir, name)

		var profile domain.PerformanceProfile
		if l.readJSON(filepath.Join(agentDir, performanceFile), &profile) {
			snap.Profiles[name] = profile
		}
		if recs, ok := l.readEvidence(filepath.Join(agentDir, evidenceFile)); ok {
			snap.Evidence[name] = recs
		}
	}
	return nil
}

// loadReputation consumes the newest snapshot_<timestamp>.json by the
// numeric timestamp embedded in the filename. That naming is the
// external producer's contract; this engine's own outputs are indexed by
// sequence number instead.
func (l *Loader) loadReputation(snap *domain.SourceSnapshot) {
	entries, err := os.ReadDir(l.cfg.ReputationDir)
	if err != nil {
		l.logger.Warn("reputation directory unavailable", "dir", l.cfg.ReputationDir, "error", err)
		return
	}

	var newest string
	var newestTS int64 = -1
	for _, entry := range entries {
		ts, ok := reputationTimestamp(entry.Name())
		if !ok {
			continue
		}
		if ts > newestTS {
			newestTS = ts
			newest = entry.Name()
		}
	}
	if newest == "" {
		l.logger.Debug("no reputation snapshots found", "dir", l.cfg.ReputationDir)
		return
	}

	var byAgent map[string]domain.ReputationEntry
	if l.readJSON(filepath.Join(l.cfg.ReputationDir, newest), &byAgent) {
		snap.Reputation = byAgent
	}
}

// loadLifecycle reads lifecycle_state.json, accepting a bare list or the
// {"agents": [...]} wrapper.
func (l *Loader) loadLifecycle(snap *domain.SourceSnapshot) {
	data, err := os.ReadFile(l.cfg.LifecyclePath)
	if err != nil {
		l.logger.Warn("lifecycle state unavailable", "path", l.cfg.LifecyclePath, "error", err)
		return
	}

	entries, err := decodeLifecycle(data)
	if err != nil {
		l.logger.Warn("malformed lifecycle state, skipping source", "path", l.cfg.LifecyclePath, "error", err)
		return
	}
	for _, e := range entries {
		if e.AgentName == "" {
			continue
		}
		snap.Lifecycle[e.AgentName] = e
	}
}

// readJSON reads and unmarshals path into v, reporting success. Any
// failure is logged and absorbed.
func (l *Loader) readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("source file unreadable", "path", path, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		l.logger.Warn("malformed source file, skipping", "path", path, "error", err)
		return false
	}
	return true
}

// readEvidence reads an evidence history file, accepting a bare list or
// the {"completions": [...]} wrapper.
func (l *Loader) readEvidence(path string) ([]domain.EvidenceRecord, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("source file unreadable", "path", path, "error", err)
		}
		return nil, false
	}
	recs, err := decodeEvidence(data)
	if err != nil {
		l.logger.Warn("malformed evidence history, skipping", "path", path, "error", err)
		return nil, false
	}
	return recs, true
}

func decodeEvidence(data []byte) ([]domain.EvidenceRecord, error) {
	var list []domain.EvidenceRecord
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Completions []domain.EvidenceRecord `json:"completions"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Completions, nil
}

func decodeLifecycle(data []byte) ([]domain.LifecycleEntry, error) {
	var list []domain.LifecycleEntry
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Agents []domain.LifecycleEntry `json:"agents"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Agents, nil
}

// reputationTimestamp extracts the numeric timestamp from a
// snapshot_<timestamp>.json filename.
func reputationTimestamp(name string) (int64, bool) {
	if !strings.HasPrefix(name, "snapshot_") || !strings.HasSuffix(name, ".json") {
		return 0, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(name, "snapshot_"), ".json")
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
