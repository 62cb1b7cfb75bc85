// Package metadata derives the per-session metadata record that is
// archived alongside each synced session.
//
// Metadata is regenerated from scratch on every sync of a session, never
// merged with a previous version. Git remote/branch lookups are best
// effort: a session whose working directory is gone, or was never a git
// repository, still gets a metadata record with those fields null.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/workshop-labs/claude-sync/internal/session"
)

// Session is the metadata record written to
// metadata/<machine_id>/<session_id>.json.
type Session struct {
	SessionID       string   `json:"session_id"`
	MachineID       string   `json:"machine_id"`
	OriginalPath    string   `json:"original_path"`
	CWD             *string  `json:"cwd"`
	GitRemote       *string  `json:"git_remote"`
	GitBranch       *string  `json:"git_branch"`
	Model           *string  `json:"model"`
	MessageCount    int      `json:"message_count"`
	StartedAt       *string  `json:"started_at"`
	EndedAt         *string  `json:"ended_at"`
	DurationSeconds *float64 `json:"duration_seconds"`
	SyncedAt        string   `json:"synced_at"`
	SourceFile      string   `json:"source_file"`
}

// RemoteLookup resolves the git remote URL and current branch for a
// working directory. Implementations must be tolerant: a directory that
// is missing or not a repository yields empty strings, never an error.
type RemoteLookup interface {
	Lookup(dir string) (remote, branch string)
}

// Extract builds the metadata record for one session.
//
// Timing comes from the first and last record timestamps; when records
// exist but none carries a timestamp, the source file's mtime stands in.
// A session with zero parseable records gets null timing fields and a
// zero message count.
func Extract(ref session.Ref, records []session.Record, machineID string, modTime time.Time, lookup RemoteLookup) Session {
	meta := Session{
		SessionID:    ref.SessionID,
		MachineID:    machineID,
		OriginalPath: ref.OriginalPath(),
		MessageCount: len(records),
		SyncedAt:     time.Now().UTC().Format(time.RFC3339),
		SourceFile:   ref.Path,
	}

	var cwd, branch, model string
	for _, rec := range records {
		if cwd == "" && rec.CWD != "" {
			cwd = rec.CWD
		}
		if branch == "" && rec.GitBranch != "" {
			branch = rec.GitBranch
		}
		// last assistant record wins, matching the model actually in use
		if rec.Type == "assistant" && rec.Model != "" {
			model = rec.Model
		}
	}

	if cwd != "" {
		meta.CWD = &cwd
	}
	if model != "" {
		meta.Model = &model
	}

	if len(records) > 0 {
		startRaw, startTime, startOK := firstTimestamp(records)
		endRaw, endTime, endOK := lastTimestamp(records)

		if !startOK || !endOK {
			fallback := modTime.UTC().Format(time.RFC3339)
			fallbackTime := modTime.UTC()
			if !startOK {
				startRaw, startTime = fallback, fallbackTime
			}
			if !endOK {
				endRaw, endTime = fallback, fallbackTime
			}
		}

		meta.StartedAt = &startRaw
		meta.EndedAt = &endRaw

		duration := endTime.Sub(startTime).Seconds()
		if duration >= 0 {
			meta.DurationSeconds = &duration
		}
	}

	if lookup != nil && (cwd != "" || branch == "") {
		remote, lookedUpBranch := "", ""
		if cwd != "" {
			remote, lookedUpBranch = lookup.Lookup(cwd)
		}
		if remote != "" {
			meta.GitRemote = &remote
		}
		if branch == "" {
			branch = lookedUpBranch
		}
	}
	if branch != "" {
		meta.GitBranch = &branch
	}

	return meta
}

// Date returns the archive date folder (YYYY-MM-DD, UTC) for this
// session: the start date when known, else today.
func (s Session) Date() string {
	if s.StartedAt != nil {
		if ts, ok := parseAny(*s.StartedAt); ok {
			return ts.UTC().Format("2006-01-02")
		}
	}
	return time.Now().UTC().Format("2006-01-02")
}

// Write serializes the metadata record to path, creating parent
// directories as needed.
func (s Session) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func firstTimestamp(records []session.Record) (string, time.Time, bool) {
	for _, rec := range records {
		if ts, ok := rec.Time(); ok {
			return rec.Timestamp, ts, true
		}
	}
	return "", time.Time{}, false
}

func lastTimestamp(records []session.Record) (string, time.Time, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		if ts, ok := records[i].Time(); ok {
			return records[i].Timestamp, ts, true
		}
	}
	return "", time.Time{}, false
}

func parseAny(raw string) (time.Time, bool) {
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, true
	}
	return time.Time{}, false
}
