package daemon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/workshop-labs/claude-sync/internal/reconcile"
)

func quietConfig(debounce time.Duration) *Config {
	return &Config{
		DebounceInterval: debounce,
		SweepInterval:    time.Hour,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNewValidation(t *testing.T) {
	run := func(ctx context.Context) (reconcile.Summary, error) { return reconcile.Summary{}, nil }

	if _, err := New("", run, nil); err == nil {
		t.Error("New with empty dir succeeded")
	}
	if _, err := New(t.TempDir(), nil, nil); err == nil {
		t.Error("New with nil run func succeeded")
	}

	d, err := New(t.TempDir(), run, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.watcher.Close()
}

func TestTakePendingDebounce(t *testing.T) {
	d := &Daemon{config: quietConfig(50 * time.Millisecond)}

	if d.takePending() {
		t.Error("takePending true with nothing pending")
	}

	d.handleEvent(fsnotify.Event{Name: "/p/session.jsonl", Op: fsnotify.Write})
	if d.takePending() {
		t.Error("takePending true before debounce interval elapsed")
	}

	time.Sleep(60 * time.Millisecond)
	if !d.takePending() {
		t.Error("takePending false after debounce interval")
	}
	if d.takePending() {
		t.Error("takePending did not clear the flag")
	}
}

func TestHandleEventFilters(t *testing.T) {
	d := &Daemon{config: quietConfig(0)}

	for _, event := range []fsnotify.Event{
		{Name: "/p/notes.txt", Op: fsnotify.Write},
		{Name: "/p/session.jsonl", Op: fsnotify.Chmod},
		{Name: "/p/session.jsonl", Op: fsnotify.Remove},
	} {
		d.handleEvent(event)
		if d.pending {
			t.Errorf("event %v set pending", event)
		}
	}

	d.handleEvent(fsnotify.Event{Name: "/p/session.jsonl", Op: fsnotify.Write})
	if !d.pending {
		t.Error("jsonl write did not set pending")
	}
}

func TestRunTriggersOnFileChange(t *testing.T) {
	projects := t.TempDir()
	projectDir := filepath.Join(projects, "-home-u-proj")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatal(err)
	}

	var runs atomic.Int32
	run := func(ctx context.Context) (reconcile.Summary, error) {
		runs.Add(1)
		return reconcile.Summary{Synced: 1}, nil
	}

	d, err := New(projects, run, quietConfig(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var summaries atomic.Int32
	d.OnSummary(func(reconcile.Summary) { summaries.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// wait for the startup sync
	deadline := time.Now().Add(5 * time.Second)
	for runs.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if runs.Load() < 1 {
		t.Fatal("startup sync did not run")
	}

	if err := os.WriteFile(filepath.Join(projectDir, "abc.jsonl"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if runs.Load() < 2 {
		t.Fatal("file change did not trigger a sync")
	}
	if summaries.Load() < 2 {
		t.Errorf("OnSummary observed %d passes, want at least 2", summaries.Load())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop on cancel")
	}
}
