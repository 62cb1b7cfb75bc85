// Package archive defines the on-disk layout of the sync repository.
//
// The archive is a git repository with an append-only tree:
//
//	sessions/<machine-id>/<date>/<session-id>.jsonl
//	metadata/<machine-id>/<session-id>.json
//
// Entries are overwritten idempotently on re-sync and never deleted by
// this tool.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/workshop-labs/claude-sync/internal/vcs"
	"github.com/workshop-labs/claude-sync/internal/vcs/git"
)

// StateDBName is the sync marker database kept inside the archive but
// excluded from version control.
const StateDBName = ".sync-state.db"

// Layout computes paths within an archive root.
type Layout struct {
	Root string
}

// SessionPath returns the archive path for a session's filtered log.
func (l Layout) SessionPath(machineID, date, sessionID string) string {
	return filepath.Join(l.Root, "sessions", machineID, date, sessionID+".jsonl")
}

// MetadataPath returns the archive path for a session's metadata record.
func (l Layout) MetadataPath(machineID, sessionID string) string {
	return filepath.Join(l.Root, "metadata", machineID, sessionID+".json")
}

// StatePath returns the path of the sync marker database.
func (l Layout) StatePath() string {
	return filepath.Join(l.Root, StateDBName)
}

// Exists reports whether the archive root directory exists.
func (l Layout) Exists() bool {
	info, err := os.Stat(l.Root)
	return err == nil && info.IsDir()
}

// SyncedSessions returns the ids of sessions that already have a metadata
// record for the given machine. Missing metadata directory means none.
func (l Layout) SyncedSessions(machineID string) (map[string]bool, error) {
	dir := filepath.Join(l.Root, "metadata", machineID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to read metadata directory: %w", err)
	}

	synced := make(map[string]bool, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		synced[strings.TrimSuffix(name, ".json")] = true
	}
	return synced, nil
}

const readmeText = `# Claude Sync Repository

This repository contains synced Claude Code conversations from multiple machines.

## Structure

` + "```" + `
sessions/
  <machine-id>/
    <date>/
      <session-id>.jsonl      # Conversation log
metadata/
  <machine-id>/
    <session-id>.json         # Enriched metadata
` + "```" + `
`

// Init creates the archive repository at root with its initial structure
// and commit, optionally configuring a remote. An archive that is already
// a git repository is left untouched.
func Init(ctx context.Context, root, remoteURL string) error {
	if _, err := os.Stat(filepath.Join(root, ".git")); err == nil {
		return nil
	}

	repo, err := git.InitRepo(root)
	if err != nil {
		return err
	}

	for _, dir := range []string{"sessions", "metadata"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte(readmeText), 0o644); err != nil {
		return fmt.Errorf("failed to write README: %w", err)
	}

	// keep the marker database out of the archive history
	gitignore := StateDBName + "\n" + StateDBName + "-*\n"
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}

	if err := repo.Add([]string{"."}); err != nil {
		return err
	}
	if err := repo.Commit(ctx, vcs.CommitOptions{Message: "Initial commit"}); err != nil {
		return err
	}

	if remoteURL != "" {
		if err := repo.AddRemote("origin", remoteURL); err != nil {
			return err
		}
	}

	return nil
}
