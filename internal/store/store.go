// Package store is the write-behind persistence mirror for sessions. The
// in-memory session is the source of truth during play; this package only
// records snapshots so a process restart can resume them. Writes must never
// block or fail game progress.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/cardczar/internal/game"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a session id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	phase      TEXT NOT NULL,
	round      INTEGER NOT NULL,
	snapshot   BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store provides SQLite-backed snapshot persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (and creates if needed) the store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save upserts a session snapshot.
func (s *Store) Save(ctx context.Context, snap game.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snap.ID, err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO sessions (id, phase, round, snapshot, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			round = excluded.round,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, snap.ID, snap.Phase, snap.Round, payload, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// Load reads one session snapshot.
func (s *Store) Load(ctx context.Context, id string) (game.Snapshot, error) {
	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT snapshot FROM sessions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	var snap game.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return game.Snapshot{}, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}
	return snap, nil
}

// ActiveSessions returns the ids of sessions whose last snapshot had not
// concluded, most recently updated first. Used to resume play after a
// restart.
func (s *Store) ActiveSessions(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id FROM sessions WHERE phase != ? ORDER BY updated_at DESC`,
		game.Concluded.String())
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a session snapshot. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	return nil
}
