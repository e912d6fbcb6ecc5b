package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swarmroute/internal/domain"
	"swarmroute/internal/infra/config"
	"swarmroute/internal/infra/logger"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
}

func testLoader(t *testing.T, root string) *Loader {
	t.Helper()
	return NewLoader(config.SourcesConfig{
		ProfilesDir:   filepath.Join(root, "profiles"),
		ReputationDir: filepath.Join(root, "reputation"),
		LifecyclePath: filepath.Join(root, "lifecycle_state.json"),
		ScanBudget:    500,
	}, logger.Discard())
}

func TestLoadAllSources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "profiles", "ada", "performance.json"),
		`{"total_tasks": 25, "total_approved": 22, "overall_score": 88.5, "reliability_score": 85}`)
	writeFile(t, filepath.Join(root, "profiles", "ada", "evidence_history.json"),
		`[{"category": "translation", "approved": true, "bounty_usd": 12, "timestamp": 1756000000}]`)
	writeFile(t, filepath.Join(root, "reputation", "snapshot_1756000000.json"),
		`{"ada": {"composite_score": 80, "tier": "Oro", "confidence": 0.9}}`)
	writeFile(t, filepath.Join(root, "lifecycle_state.json"),
		`[{"agent_name": "ada", "state": "idle", "consecutive_failures": 0}]`)

	snap, err := testLoader(t, root).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 25, snap.Profiles["ada"].TotalTasks)
	assert.Equal(t, 88.5, snap.Profiles["ada"].OverallScore)
	require.Len(t, snap.Evidence["ada"], 1)
	assert.Equal(t, "translation", snap.Evidence["ada"][0].Category)
	assert.Equal(t, time.Unix(1756000000, 0).UTC(), snap.Evidence["ada"][0].Timestamp.Time)
	assert.Equal(t, "Oro", snap.Reputation["ada"].Tier)
	assert.Equal(t, domain.StateIdle, snap.Lifecycle["ada"].State)
	assert.Equal(t, []string{"ada"}, snap.AgentNames())
	assert.Equal(t, 4, snap.SourcesFor("ada"))
}

func TestLoadWrappedShapes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "profiles", "bo", "evidence_history.json"),
		`{"completions": [{"category": "writing", "approved": false, "timestamp": "2026-08-20T10:00:00Z"}]}`)
	writeFile(t, filepath.Join(root, "lifecycle_state.json"),
		`{"agents": [{"agent_name": "bo", "state": "cooldown", "consecutive_failures": 3}]}`)

	snap, err := testLoader(t, root).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Evidence["bo"], 1)
	assert.Equal(t, "writing", snap.Evidence["bo"][0].Category)
	assert.Equal(t, domain.StateCooldown, snap.Lifecycle["bo"].State)
	assert.Equal(t, 3, snap.Lifecycle["bo"].ConsecutiveFailures)
}

func TestLoadToleratesMissingAndMalformed(t *testing.T) {
	root := t.TempDir()
	// Agent with only a malformed performance file.
	writeFile(t, filepath.Join(root, "profiles", "cy", "performance.json"), `{not json`)
	// Agent known only to lifecycle.
	writeFile(t, filepath.Join(root, "lifecycle_state.json"),
		`[{"agent_name": "dee", "state": "working"}]`)
	// Malformed reputation snapshot.
	writeFile(t, filepath.Join(root, "reputation", "snapshot_1756000001.json"), `[[[`)

	snap, err := testLoader(t, root).Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, snap.Profiles)
	assert.Empty(t, snap.Reputation)
	assert.Equal(t, []string{"dee"}, snap.AgentNames())
	assert.Equal(t, 1, snap.SourcesFor("dee"))
	assert.Equal(t, 0, snap.SourcesFor("cy"))
}

func TestLoadEmptyTree(t *testing.T) {
	snap, err := testLoader(t, t.TempDir()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.AgentNames())
}

func TestLoadPicksNewestReputationSnapshot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "reputation", "snapshot_100.json"),
		`{"ada": {"composite_score": 10}}`)
	writeFile(t, filepath.Join(root, "reputation", "snapshot_900.json"),
		`{"ada": {"composite_score": 90}}`)
	writeFile(t, filepath.Join(root, "reputation", "notes.txt"), `ignore me`)

	snap, err := testLoader(t, root).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 90.0, snap.Reputation["ada"].CompositeScore)
}

func TestLoadScanBudgetTruncates(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a1", "a2", "a3", "a4"} {
		writeFile(t, filepath.Join(root, "profiles", name, "performance.json"),
			`{"total_tasks": 1}`)
	}

	l := NewLoader(config.SourcesConfig{
		ProfilesDir:   filepath.Join(root, "profiles"),
		ReputationDir: filepath.Join(root, "reputation"),
		LifecyclePath: filepath.Join(root, "lifecycle_state.json"),
		ScanBudget:    2,
	}, logger.Discard())

	snap, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Profiles, 2)
}
