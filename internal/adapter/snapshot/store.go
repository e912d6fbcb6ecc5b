// Package snapshot persists intelligence snapshots as timestamped JSON
// files, indexed by a monotonic sqlite sequence. "Latest" always follows
// the sequence, never filename or mtime order, so clock skew between
// writers cannot reorder history.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"swarmroute/internal/domain"
	"swarmroute/internal/infra/config"
)

// Store implements domain.IntelligenceStore with JSON files plus a
// sqlite sequence index.
type Store struct {
	dir    string
	db     *sql.DB
	logger *slog.Logger
	mu     sync.Mutex
}

// New opens (or creates) the snapshot directory and sequence index.
func New(cfg config.SnapshotsConfig, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("%w: create dir: %v", domain.ErrSnapshotStore, err)
	}
	db, err := sql.Open("sqlite", cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open index: %v", domain.ErrSnapshotStore, err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set WAL mode: %v", domain.ErrSnapshotStore, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate index: %v", domain.ErrSnapshotStore, err)
	}
	return &Store{dir: cfg.Dir, db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			filename   TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	return err
}

// Close closes the sequence index.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes the snapshot as intelligence_<unix-micro>.json and records
// it under the next sequence number.
func (s *Store) Save(ctx context.Context, snap *domain.IntelligenceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := fmt.Sprintf("intelligence_%d.json", snap.Timestamp.UnixMicro())
	if err := writeJSON(filepath.Join(s.dir, name), snap); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSnapshotStore, err)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO snapshots (filename, created_at) VALUES (?, ?)",
		name, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: index insert: %v", domain.ErrSnapshotStore, err)
	}

	s.logger.Info("intelligence snapshot saved", "file", name, "agents", len(snap.Agents))
	return nil
}

// LoadLatest resolves the highest sequence number to its JSON file.
// Returns domain.ErrNoSnapshot when nothing has been saved yet.
func (s *Store) LoadLatest(ctx context.Context) (*domain.IntelligenceSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT filename FROM snapshots WHERE seq = (SELECT MAX(seq) FROM snapshots)",
	)
	var name string
	if err := row.Scan(&name); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNoSnapshot
		}
		return nil, fmt.Errorf("%w: index query: %v", domain.ErrSnapshotStore, err)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrSnapshotStore, name, err)
	}
	var snap domain.IntelligenceSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrSnapshotStore, name, err)
	}
	return &snap, nil
}

// writeJSON atomically writes v as indented JSON to path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return domain.WrapOp("marshal", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return domain.WrapOp("write", err)
	}
	return os.Rename(tmp, path)
}
