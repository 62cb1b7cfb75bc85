// Package state persists per-session sync markers in an embedded SQLite
// database inside the archive.
//
// The marker database is a cache, not the source of truth: it lets the
// reconciler skip unchanged sessions without re-reading and re-hashing
// their content. Deleting it only costs one full re-hash pass; the
// archived files themselves decide what gets rewritten.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the marker database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Marker records what was last synced for one session. IncludeThinking
// is the filter flag the archived content was produced under; a marker
// written under a different flag value must not justify a skip.
type Marker struct {
	SessionID       string
	SourcePath      string
	SourceSize      int64
	SourceMtime     int64 // unix nanoseconds
	ContentHash     string
	IncludeThinking bool
	SyncedAt        time.Time
}

// Open opens (creating if needed) the marker database at path.
// The caller must Close() when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	// WAL so a watch daemon and a manual sync don't trip over each other
	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close state database: %w", err)
	}
	db.conn = nil
	return nil
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sync_markers (
		session_id       TEXT PRIMARY KEY,
		source_path      TEXT NOT NULL,
		source_size      INTEGER NOT NULL,
		source_mtime     INTEGER NOT NULL,
		content_hash     TEXT NOT NULL,
		include_thinking INTEGER NOT NULL DEFAULT 0,
		synced_at        TEXT NOT NULL
	);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Get returns the marker for a session, or nil when none is recorded.
func (db *DB) Get(ctx context.Context, sessionID string) (*Marker, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT session_id, source_path, source_size, source_mtime, content_hash, include_thinking, synced_at
		FROM sync_markers WHERE session_id = ?`, sessionID)

	var m Marker
	var syncedAt string
	err := row.Scan(&m.SessionID, &m.SourcePath, &m.SourceSize, &m.SourceMtime, &m.ContentHash, &m.IncludeThinking, &syncedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query marker: %w", err)
	}

	if ts, err := time.Parse(time.RFC3339Nano, syncedAt); err == nil {
		m.SyncedAt = ts
	}
	return &m, nil
}

// Upsert inserts or replaces the marker for a session.
func (db *DB) Upsert(ctx context.Context, m *Marker) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sync_markers (session_id, source_path, source_size, source_mtime, content_hash, include_thinking, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			source_path      = excluded.source_path,
			source_size      = excluded.source_size,
			source_mtime     = excluded.source_mtime,
			content_hash     = excluded.content_hash,
			include_thinking = excluded.include_thinking,
			synced_at        = excluded.synced_at`,
		m.SessionID, m.SourcePath, m.SourceSize, m.SourceMtime, m.ContentHash, m.IncludeThinking,
		m.SyncedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert marker: %w", err)
	}
	return nil
}

// Count returns the number of recorded markers.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_markers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count markers: %w", err)
	}
	return n, nil
}
