// Package daemon provides the watch mode that keeps the archive current
// while sessions are being written.
//
// The daemon:
//  1. Watches the projects tree for session file changes
//  2. Debounces bursts of writes into a single reconcile run
//  3. Runs a periodic full sweep as a safety net for missed events
//  4. Handles graceful shutdown via context cancellation
//
// At most one sync process is assumed per machine; no lock is taken.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/workshop-labs/claude-sync/internal/reconcile"
)

// RunFunc performs one sync pass. The daemon treats it as opaque; in
// production it wraps the reconciler plus the publisher.
type RunFunc func(ctx context.Context) (reconcile.Summary, error)

// SummaryFunc observes completed sync passes. Used by the dashboard to
// broadcast results.
type SummaryFunc func(reconcile.Summary)

// Config holds daemon tuning knobs.
type Config struct {
	// DebounceInterval is how long the projects tree must stay quiet
	// before a triggered sync runs. Session files are appended in
	// bursts; this batches them.
	DebounceInterval time.Duration

	// SweepInterval is how often a full sync runs regardless of events.
	SweepInterval time.Duration

	// Logger for daemon activity
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 2 * time.Second,
		SweepInterval:    15 * time.Minute,
		Logger:           slog.Default(),
	}
}

// Daemon watches the projects tree and triggers sync passes.
type Daemon struct {
	projectsDir string
	run         RunFunc
	config      *Config

	watcher *fsnotify.Watcher

	mu        sync.Mutex
	pending   bool
	lastEvent time.Time
	onSummary SummaryFunc
}

// New creates a Daemon watching projectsDir.
func New(projectsDir string, run RunFunc, config *Config) (*Daemon, error) {
	if projectsDir == "" {
		return nil, fmt.Errorf("projectsDir cannot be empty")
	}
	if run == nil {
		return nil, fmt.Errorf("run cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Daemon{
		projectsDir: projectsDir,
		run:         run,
		config:      config,
		watcher:     watcher,
	}, nil
}

// OnSummary registers an observer for completed sync passes.
// Must be called before Run.
func (d *Daemon) OnSummary(fn SummaryFunc) {
	d.onSummary = fn
}

// Run watches until ctx is cancelled. An initial full sync runs before
// watching begins so a freshly started daemon catches up immediately.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.watcher.Close()

	if err := d.addWatches(); err != nil {
		return err
	}

	d.sync(ctx, "startup")

	checkTicker := time.NewTicker(500 * time.Millisecond)
	defer checkTicker.Stop()
	sweepTicker := time.NewTicker(d.config.SweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.config.Logger.Info("watch daemon stopping")
			return nil

		case event, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(event)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}
			d.config.Logger.Warn("watch error", "error", err)

		case <-checkTicker.C:
			if d.takePending() {
				d.sync(ctx, "change")
			}

		case <-sweepTicker.C:
			d.sync(ctx, "sweep")
		}
	}
}

// addWatches registers the projects root and every existing project
// directory. fsnotify does not recurse, so new project directories are
// added as they appear via create events on the root.
func (d *Daemon) addWatches() error {
	if err := d.watcher.Add(d.projectsDir); err != nil {
		return fmt.Errorf("failed to watch projects directory %s: %w", d.projectsDir, err)
	}

	entries, err := os.ReadDir(d.projectsDir)
	if err != nil {
		return fmt.Errorf("failed to read projects directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(d.projectsDir, entry.Name())
		if err := d.watcher.Add(path); err != nil {
			d.config.Logger.Warn("failed to watch project directory", "path", path, "error", err)
		}
	}
	return nil
}

func (d *Daemon) handleEvent(event fsnotify.Event) {
	// New project directory: start watching it.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if filepath.Dir(event.Name) == d.projectsDir {
				if err := d.watcher.Add(event.Name); err != nil {
					d.config.Logger.Warn("failed to watch new project directory",
						"path", event.Name, "error", err)
				}
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, ".jsonl") {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	d.mu.Lock()
	d.pending = true
	d.lastEvent = time.Now()
	d.mu.Unlock()
}

// takePending reports whether a debounced sync is due, clearing the flag
// when it is.
func (d *Daemon) takePending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pending || time.Since(d.lastEvent) < d.config.DebounceInterval {
		return false
	}
	d.pending = false
	return true
}

func (d *Daemon) sync(ctx context.Context, reason string) {
	start := time.Now()
	summary, err := d.run(ctx)
	if err != nil {
		d.config.Logger.Error("sync pass failed", "reason", reason, "error", err)
		return
	}

	d.config.Logger.Info("sync pass complete",
		"reason", reason,
		"synced", summary.Synced,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if d.onSummary != nil {
		d.onSummary(summary)
	}
}
