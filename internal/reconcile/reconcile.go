// Package reconcile decides which sessions need (re)writing into the
// archive and performs the writes.
//
// A session is dirty when its archive copy is absent or the content hash
// of its filtered record sequence differs from the recorded marker. The
// hash covers the filtered sequence rather than raw file bytes because
// thinking-block filtering changes bytes even when the source has not.
// Size+mtime markers are only a fast path for skipping unchanged files
// without re-reading them; the hash is the source of truth.
//
// Per-session failures are collected into the summary and never abort
// the run.
package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/workshop-labs/claude-sync/internal/archive"
	"github.com/workshop-labs/claude-sync/internal/config"
	"github.com/workshop-labs/claude-sync/internal/metadata"
	"github.com/workshop-labs/claude-sync/internal/session"
	"github.com/workshop-labs/claude-sync/internal/state"
)

// SessionError records one session that failed to sync.
type SessionError struct {
	SessionID string
	Err       error
}

func (e SessionError) Error() string {
	return fmt.Sprintf("session %s: %v", e.SessionID, e.Err)
}

// Summary reports the outcome of one reconcile run.
type Summary struct {
	Synced   int
	Skipped  int
	Failed   int
	Failures []SessionError
}

// Reconciler syncs sessions from the projects directory into the archive.
type Reconciler struct {
	cfg     config.Config
	layout  archive.Layout
	markers *state.DB
	lookup  metadata.RemoteLookup
	logger  *slog.Logger
}

// New creates a Reconciler. markers may be nil, in which case every
// session is re-read and re-hashed on every run. A nil logger discards
// debug output to stderr's default logger.
func New(cfg config.Config, markers *state.DB, lookup metadata.RemoteLookup, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		cfg:     cfg,
		layout:  archive.Layout{Root: cfg.SyncRepoPath},
		markers: markers,
		lookup:  lookup,
		logger:  logger,
	}
}

// Run discovers all sessions and syncs the dirty ones. Sessions are
// processed in ascending session-id order for deterministic logging;
// order does not affect correctness since each session's output paths
// are independent.
func (r *Reconciler) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if !r.layout.Exists() {
		return summary, fmt.Errorf("archive not found at %s (run --init first)", r.layout.Root)
	}

	refs, err := session.List(r.cfg.ClaudeProjectsPath)
	if err != nil {
		return summary, err
	}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		synced, err := r.syncOne(ctx, ref)
		switch {
		case err != nil:
			summary.Failed++
			summary.Failures = append(summary.Failures, SessionError{SessionID: ref.SessionID, Err: err})
			r.logger.Warn("session sync failed", "session_id", ref.SessionID, "error", err)
		case synced:
			summary.Synced++
			r.logger.Debug("session synced", "session_id", ref.SessionID, "project", ref.ProjectDir)
		default:
			summary.Skipped++
		}
	}

	r.logger.Info("reconcile complete",
		"synced", summary.Synced, "skipped", summary.Skipped, "failed", summary.Failed)

	return summary, nil
}

// syncOne returns (true, nil) when the session was written, (false, nil)
// when it was skipped as unchanged.
func (r *Reconciler) syncOne(ctx context.Context, ref session.Ref) (bool, error) {
	info, err := os.Stat(ref.Path)
	if err != nil {
		return false, fmt.Errorf("%w: %v", session.ErrUnreadable, err)
	}

	var marker *state.Marker
	if r.markers != nil {
		marker, err = r.markers.Get(ctx, ref.SessionID)
		if err != nil {
			r.logger.Warn("marker lookup failed", "session_id", ref.SessionID, "error", err)
			marker = nil
		}
	}

	// Fast path: unchanged source file, archived under the current filter
	// flag, and archive copy still present. A marker written under a
	// different include_thinking value is stale even if the source is not.
	if marker != nil &&
		marker.IncludeThinking == r.cfg.IncludeThinking &&
		marker.SourceSize == info.Size() &&
		marker.SourceMtime == info.ModTime().UnixNano() &&
		fileExists(r.layout.MetadataPath(r.cfg.MachineID, ref.SessionID)) &&
		r.sessionFileExists(ref.SessionID) {
		return false, nil
	}

	records, skipped, err := session.Read(ref.Path)
	if err != nil {
		return false, err
	}
	if skipped > 0 {
		r.logger.Debug("malformed lines skipped", "session_id", ref.SessionID, "skipped", skipped)
	}

	content := r.filterContent(records)
	hash := contentHash(content)

	meta := metadata.Extract(ref, records, r.cfg.MachineID, info.ModTime(), r.lookup)
	sessionPath := r.layout.SessionPath(r.cfg.MachineID, meta.Date(), ref.SessionID)

	// Hash path: content unchanged even though the file marker moved
	// (e.g. the source was rewritten identically, or the marker db is new).
	if marker != nil && marker.ContentHash == hash && fileExists(sessionPath) &&
		fileExists(r.layout.MetadataPath(r.cfg.MachineID, ref.SessionID)) {
		r.refreshMarker(ctx, ref, info, hash, marker.SyncedAt)
		return false, nil
	}
	if marker == nil && fileExists(sessionPath) &&
		fileExists(r.layout.MetadataPath(r.cfg.MachineID, ref.SessionID)) {
		if existing, err := os.ReadFile(sessionPath); err == nil && contentHash(existing) == hash {
			r.refreshMarker(ctx, ref, info, hash, time.Now().UTC())
			return false, nil
		}
	}

	if err := writeFile(sessionPath, content); err != nil {
		return false, err
	}
	if err := meta.Write(r.layout.MetadataPath(r.cfg.MachineID, ref.SessionID)); err != nil {
		return false, err
	}

	r.refreshMarker(ctx, ref, info, hash, time.Now().UTC())
	return true, nil
}

// filterContent serializes the archived record sequence. With thinking
// included every parseable line is written verbatim; otherwise thinking
// blocks are stripped from assistant records before serialization.
func (r *Reconciler) filterContent(records []session.Record) []byte {
	var out []byte
	for _, rec := range records {
		line := rec.Raw
		if !r.cfg.IncludeThinking {
			line, _ = rec.StripThinking()
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

func (r *Reconciler) refreshMarker(ctx context.Context, ref session.Ref, info os.FileInfo, hash string, syncedAt time.Time) {
	if r.markers == nil {
		return
	}
	m := &state.Marker{
		SessionID:       ref.SessionID,
		SourcePath:      ref.Path,
		SourceSize:      info.Size(),
		SourceMtime:     info.ModTime().UnixNano(),
		ContentHash:     hash,
		IncludeThinking: r.cfg.IncludeThinking,
		SyncedAt:        syncedAt,
	}
	if err := r.markers.Upsert(ctx, m); err != nil {
		r.logger.Warn("marker update failed", "session_id", ref.SessionID, "error", err)
	}
}

// sessionFileExists checks for the archived log under any date folder;
// the date is not knowable without re-reading the source.
func (r *Reconciler) sessionFileExists(sessionID string) bool {
	pattern := filepath.Join(r.layout.Root, "sessions", r.cfg.MachineID, "*", sessionID+".jsonl")
	matches, err := filepath.Glob(pattern)
	return err == nil && len(matches) > 0
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	return nil
}
