package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swarmroute/internal/domain"
	"swarmroute/internal/infra/config"
	"swarmroute/internal/infra/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := New(config.SnapshotsConfig{
		Enabled:   true,
		Dir:       filepath.Join(dir, "snapshots"),
		IndexPath: filepath.Join(dir, "index.db"),
	}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSnapshot(ts time.Time, score float64) *domain.IntelligenceSnapshot {
	return &domain.IntelligenceSnapshot{
		Timestamp: ts,
		Agents: map[string]*domain.AgentIntelligence{
			"ada": {
				AgentName:      "ada",
				CompoundScore:  score,
				LifecycleState: domain.StateIdle,
				Trajectory:     domain.TrajectoryStable,
				SynthesizedAt:  ts,
			},
		},
		Report: &domain.SwarmIntelligenceReport{
			GeneratedAt:      ts,
			TotalAgents:      1,
			SwarmHealthScore: 72.5,
			MomentumTrend:    domain.TrajectoryStable,
		},
	}
}

func TestLoadLatestEmpty(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadLatest(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNoSnapshot))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ts := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	saved := sampleSnapshot(ts, 61.27548932)

	require.NoError(t, store.Save(context.Background(), saved))

	loaded, err := store.LoadLatest(context.Background())
	require.NoError(t, err)
	require.Contains(t, loaded.Agents, "ada")
	assert.Equal(t, saved.Agents["ada"].CompoundScore, loaded.Agents["ada"].CompoundScore)
	assert.True(t, loaded.Timestamp.Equal(ts))
	require.NotNil(t, loaded.Report)
	assert.Equal(t, 72.5, loaded.Report.SwarmHealthScore)
}

func TestLoadLatestFollowsSequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	// Saved out of timestamp order; sequence order must win.
	require.NoError(t, store.Save(ctx, sampleSnapshot(base.Add(time.Hour), 50)))
	require.NoError(t, store.Save(ctx, sampleSnapshot(base, 80)))

	loaded, err := store.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 80.0, loaded.Agents["ada"].CompoundScore)
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := config.SnapshotsConfig{
		Dir:       filepath.Join(dir, "snapshots"),
		IndexPath: filepath.Join(dir, "index.db"),
	}
	ctx := context.Background()
	ts := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	first, err := New(cfg, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, sampleSnapshot(ts, 42)))
	require.NoError(t, first.Close())

	second, err := New(cfg, logger.Discard())
	require.NoError(t, err)
	defer second.Close()

	loaded, err := second.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42.0, loaded.Agents["ada"].CompoundScore)
}
