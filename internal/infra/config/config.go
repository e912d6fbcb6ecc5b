package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Sources   SourcesConfig   `yaml:"sources"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Routing   RoutingConfig   `yaml:"routing"`
	Snapshots SnapshotsConfig `yaml:"snapshots"`
	Logger    LoggerConfig    `yaml:"logger"`
	Tracer    TracerConfig    `yaml:"tracer"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// SourcesConfig locates the four external snapshot sources.
type SourcesConfig struct {
	// ProfilesDir holds one subdirectory per agent, each containing
	// performance.json and evidence_history.json.
	ProfilesDir string `yaml:"profiles_dir"`
	// ReputationDir holds snapshot_<timestamp>.json files; the newest
	// by embedded timestamp is consumed.
	ReputationDir string `yaml:"reputation_dir"`
	// LifecyclePath is the lifecycle_state.json file.
	LifecyclePath string `yaml:"lifecycle_path"`
	// ScanBudget caps how many agent directories one load pass will
	// visit, bounding latency on very large fleets.
	ScanBudget int `yaml:"scan_budget"`
}

// ScoringConfig carries every hand-tuned constant of the synthesis
// formula. The defaults are the calibrated production values; they are
// exposed here so deployments can override them without a rebuild.
type ScoringConfig struct {
	// Compound-score fusion weights.
	WeightOverall    float64 `yaml:"weight_overall"`    // profiler overall score
	WeightReputation float64 `yaml:"weight_reputation"` // reputation composite
	WeightReadiness  float64 `yaml:"weight_readiness"`  // lifecycle readiness
	WeightApproval   float64 `yaml:"weight_approval"`   // evidence approval rate
	WeightEconomic   float64 `yaml:"weight_economic"`   // economic viability proxy

	// BurnoutPenalty scales how strongly burnout risk suppresses scores.
	BurnoutPenalty float64 `yaml:"burnout_penalty"`

	// Momentum needs at least MomentumMinRecords evidence records; a
	// half-split approval delta beyond ±MomentumDelta flips the trend.
	MomentumMinRecords int     `yaml:"momentum_min_records"`
	MomentumDelta      float64 `yaml:"momentum_delta"`

	// Burnout thresholds: BurnoutTaskLimit tasks inside BurnoutWindow is
	// full workload risk; BurnoutFailureLimit consecutive failures is
	// full failure risk.
	BurnoutWindow       time.Duration `yaml:"burnout_window"`
	BurnoutTaskLimit    int           `yaml:"burnout_task_limit"`
	BurnoutFailureLimit int           `yaml:"burnout_failure_limit"`

	// Cold start: ColdStartMax bonus decaying linearly to zero at
	// ColdStartTasks total tasks.
	ColdStartMax   float64 `yaml:"cold_start_max"`
	ColdStartTasks int     `yaml:"cold_start_tasks"`
}

// RoutingConfig carries the task-routing weights and limits.
type RoutingConfig struct {
	WeightFitness     float64 `yaml:"weight_fitness"`
	WeightReputation  float64 `yaml:"weight_reputation"`
	WeightReliability float64 `yaml:"weight_reliability"`
	WeightEconomic    float64 `yaml:"weight_economic"`

	// MinScore is the eligibility floor for task scores.
	MinScore float64 `yaml:"min_score"`
	// ConfidenceGap is the runner-up score gap that yields full
	// separation confidence.
	ConfidenceGap float64 `yaml:"confidence_gap"`
	// RecomputesPerSec caps synthesis recomputes when routing is invoked
	// per incoming task; beyond it the cached pass is reused.
	RecomputesPerSec float64 `yaml:"recomputes_per_sec"`
}

// SnapshotsConfig controls intelligence snapshot persistence.
type SnapshotsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	// IndexPath is the sqlite database assigning monotonic sequence
	// numbers to snapshots; "latest" follows the sequence, never
	// filename order.
	IndexPath string `yaml:"index_path"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// SchedulerConfig holds the periodic synthesis tick settings.
type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
	// Tick is a cron expression or duration string.
	Tick string `yaml:"tick"`
}

// Defaults returns the configuration with calibrated production values.
func Defaults() *Config {
	dataDir := defaultDataDir()
	return &Config{
		Sources: SourcesConfig{
			ProfilesDir:   filepath.Join(dataDir, "profiles"),
			ReputationDir: filepath.Join(dataDir, "reputation"),
			LifecyclePath: filepath.Join(dataDir, "lifecycle_state.json"),
			ScanBudget:    500,
		},
		Scoring: ScoringConfig{
			WeightOverall:       0.30,
			WeightReputation:    0.20,
			WeightReadiness:     0.15,
			WeightApproval:      0.15,
			WeightEconomic:      0.10,
			BurnoutPenalty:      0.3,
			MomentumMinRecords:  4,
			MomentumDelta:       0.15,
			BurnoutWindow:       24 * time.Hour,
			BurnoutTaskLimit:    8,
			BurnoutFailureLimit: 5,
			ColdStartMax:        15,
			ColdStartTasks:      5,
		},
		Routing: RoutingConfig{
			WeightFitness:     0.35,
			WeightReputation:  0.15,
			WeightReliability: 0.15,
			WeightEconomic:    0.10,
			MinScore:          10,
			ConfidenceGap:     20,
			RecomputesPerSec:  2,
		},
		Snapshots: SnapshotsConfig{
			Enabled:   true,
			Dir:       filepath.Join(dataDir, "intelligence"),
			IndexPath: filepath.Join(dataDir, "intelligence", "index.db"),
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
			Tick:    "60s",
		},
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("SWARMROUTE_DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

// Load reads a YAML config file over the defaults and applies env
// overrides. A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps SWARMROUTE_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SWARMROUTE_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("SWARMROUTE_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("SWARMROUTE_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("SWARMROUTE_PROFILES_DIR"); v != "" {
		cfg.Sources.ProfilesDir = v
	}
	if v := os.Getenv("SWARMROUTE_REPUTATION_DIR"); v != "" {
		cfg.Sources.ReputationDir = v
	}
	if v := os.Getenv("SWARMROUTE_LIFECYCLE_PATH"); v != "" {
		cfg.Sources.LifecyclePath = v
	}
	if v := os.Getenv("SWARMROUTE_SNAPSHOTS_DIR"); v != "" {
		cfg.Snapshots.Dir = v
	}
}

// Validate checks config invariants that would otherwise surface as
// confusing runtime behavior.
func Validate(cfg *Config) error {
	if cfg.Sources.ScanBudget <= 0 {
		return fmt.Errorf("config: sources.scan_budget must be positive, got %d", cfg.Sources.ScanBudget)
	}
	weights := cfg.Scoring.WeightOverall + cfg.Scoring.WeightReputation +
		cfg.Scoring.WeightReadiness + cfg.Scoring.WeightApproval + cfg.Scoring.WeightEconomic
	if weights <= 0 {
		return fmt.Errorf("config: scoring weights sum to %v, must be positive", weights)
	}
	if cfg.Scoring.BurnoutPenalty < 0 || cfg.Scoring.BurnoutPenalty > 1 {
		return fmt.Errorf("config: scoring.burnout_penalty must be in [0,1], got %v", cfg.Scoring.BurnoutPenalty)
	}
	if cfg.Scoring.ColdStartTasks <= 0 {
		return fmt.Errorf("config: scoring.cold_start_tasks must be positive, got %d", cfg.Scoring.ColdStartTasks)
	}
	if cfg.Routing.ConfidenceGap <= 0 {
		return fmt.Errorf("config: routing.confidence_gap must be positive, got %v", cfg.Routing.ConfidenceGap)
	}
	if cfg.Routing.RecomputesPerSec <= 0 {
		return fmt.Errorf("config: routing.recomputes_per_sec must be positive, got %v", cfg.Routing.RecomputesPerSec)
	}
	switch cfg.Logger.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: logger.format must be text or json, got %q", cfg.Logger.Format)
	}
	return nil
}
