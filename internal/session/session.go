// Package session reads Claude Code session logs.
//
// Session logs live under the projects directory as one .jsonl file per
// session, one JSON object per line. The format is an external contract
// owned by Claude Code and carries no version marker, so records are
// decoded permissively: the handful of fields this tool understands are
// lifted out, and the original line is preserved verbatim for everything
// else.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrUnreadable is returned when a session file cannot be opened or read
// at all. Partial parse failures (malformed lines) are never fatal.
var ErrUnreadable = errors.New("session file unreadable")

// Ref identifies one discovered session file.
type Ref struct {
	// SessionID is the file stem, e.g. "abc123" for abc123.jsonl.
	SessionID string

	// Path is the absolute path to the .jsonl file.
	Path string

	// ProjectDir is the base name of the containing project directory,
	// e.g. "-Users-alice-src-widget".
	ProjectDir string
}

// List enumerates session files under projectsPath, one directory level
// deep. Hidden directories, subdirectories of project dirs (subagent
// transcripts), and non-.jsonl files are skipped. The result is sorted by
// session id so processing order is deterministic; the scan is repeated on
// every call with no persisted cursor.
func List(projectsPath string) ([]Ref, error) {
	projectEntries, err := os.ReadDir(projectsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects directory: %w", err)
	}

	var refs []Ref
	for _, projEntry := range projectEntries {
		if !projEntry.IsDir() || strings.HasPrefix(projEntry.Name(), ".") {
			continue
		}
		projPath := filepath.Join(projectsPath, projEntry.Name())
		fileEntries, err := os.ReadDir(projPath)
		if err != nil {
			continue
		}

		for _, fe := range fileEntries {
			name := fe.Name()
			if fe.IsDir() || !strings.HasSuffix(name, ".jsonl") {
				continue
			}
			refs = append(refs, Ref{
				SessionID:  strings.TrimSuffix(name, ".jsonl"),
				Path:       filepath.Join(projPath, name),
				ProjectDir: projEntry.Name(),
			})
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].SessionID < refs[j].SessionID
	})
	return refs, nil
}

// OriginalPath decodes a project directory name back into the filesystem
// path it encodes: "-Users-alice-src-widget" -> "/Users/alice/src/widget".
// The encoding is lossy (dashes in real path segments are indistinguishable
// from separators); this matches what the host tool itself records.
func (r Ref) OriginalPath() string {
	return "/" + strings.ReplaceAll(strings.TrimPrefix(r.ProjectDir, "-"), "-", "/")
}

// parseTimestamp accepts the timestamp formats seen in session logs.
func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, true
	}
	return time.Time{}, false
}
