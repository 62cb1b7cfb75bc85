package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeSession creates a session file under a project directory.
func writeSession(t *testing.T, projectsDir, projectName, sessionID, content string) string {
	t.Helper()

	dir := filepath.Join(projectsDir, projectName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}

	path := filepath.Join(dir, sessionID+".jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write session file: %v", err)
	}
	return path
}

func TestList(t *testing.T) {
	projectsDir := t.TempDir()

	writeSession(t, projectsDir, "-home-alice-proj", "bbb222", `{"type":"user"}`+"\n")
	writeSession(t, projectsDir, "-home-alice-proj", "aaa111", `{"type":"user"}`+"\n")
	writeSession(t, projectsDir, "-home-alice-other", "ccc333", `{"type":"user"}`+"\n")

	// Things List must skip
	if err := os.MkdirAll(filepath.Join(projectsDir, ".hidden"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(projectsDir, "-home-alice-proj", "subagents"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectsDir, "-home-alice-proj", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	refs, err := List(projectsDir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(refs) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(refs))
	}

	// ascending session-id order
	ids := []string{refs[0].SessionID, refs[1].SessionID, refs[2].SessionID}
	want := []string{"aaa111", "bbb222", "ccc333"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("refs[%d].SessionID = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestListMissingDir(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing projects directory")
	}
}

func TestOriginalPath(t *testing.T) {
	ref := Ref{ProjectDir: "-Users-alice-src-widget"}
	if got := ref.OriginalPath(); got != "/Users/alice/src/widget" {
		t.Errorf("OriginalPath = %q", got)
	}
}

func TestReadSkipsMalformedLines(t *testing.T) {
	projectsDir := t.TempDir()
	content := `{"type":"user","timestamp":"2025-06-01T10:00:00Z"}
not json at all
{"type":"assistant","timestamp":"2025-06-01T10:01:00Z","message":{"role":"assistant","model":"m1"}}

{broken
`
	path := writeSession(t, projectsDir, "-p", "s1", content)

	records, skipped, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if skipped != 2 {
		t.Errorf("expected 2 skipped lines, got %d", skipped)
	}
	if records[1].Model != "m1" {
		t.Errorf("records[1].Model = %q, want m1", records[1].Model)
	}
	if !strings.Contains(string(records[0].Raw), `"2025-06-01T10:00:00Z"`) {
		t.Errorf("Raw not preserved: %s", records[0].Raw)
	}
}

func TestReadSkipsOversizedLine(t *testing.T) {
	projectsDir := t.TempDir()
	huge := `{"type":"user","pad":"` + strings.Repeat("a", maxLineSize) + `"}`
	content := `{"type":"user","timestamp":"2025-06-01T10:00:00Z"}` + "\n" +
		huge + "\n" +
		`{"type":"user","timestamp":"2025-06-01T10:02:00Z"}` + "\n"
	path := writeSession(t, projectsDir, "-p", "s1", content)

	records, skipped, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped line, got %d", skipped)
	}
	if records[1].Timestamp != "2025-06-01T10:02:00Z" {
		t.Errorf("record after the oversized line was lost: %+v", records[1])
	}
}

func TestReadEmptyFile(t *testing.T) {
	path := writeSession(t, t.TempDir(), "-p", "empty", "")

	records, skipped, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 0 || skipped != 0 {
		t.Errorf("expected no records and no skips, got %d/%d", len(records), skipped)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, _, err := Read(filepath.Join(t.TempDir(), "missing.jsonl"))
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestRecordTime(t *testing.T) {
	rec := Record{Timestamp: "2025-06-01T10:00:00.123Z"}
	if _, ok := rec.Time(); !ok {
		t.Error("expected RFC3339Nano timestamp to parse")
	}

	rec = Record{Timestamp: "yesterday"}
	if _, ok := rec.Time(); ok {
		t.Error("expected garbage timestamp to fail")
	}

	rec = Record{}
	if _, ok := rec.Time(); ok {
		t.Error("expected empty timestamp to fail")
	}
}
