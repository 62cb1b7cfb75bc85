package main

import (
	"context"
	"fmt"
	"os"

	"github.com/workshop-labs/claude-sync/internal/archive"
	"github.com/workshop-labs/claude-sync/internal/config"
	"github.com/workshop-labs/claude-sync/internal/logging"
	"github.com/workshop-labs/claude-sync/internal/metadata"
	"github.com/workshop-labs/claude-sync/internal/publish"
	"github.com/workshop-labs/claude-sync/internal/reconcile"
	"github.com/workshop-labs/claude-sync/internal/state"
)

// runSync performs one full sync pass: reconcile, then commit (and push
// when requested). Per-session failures are reported but do not fail the
// command; config or publish failures do.
func runSync(ctx context.Context) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return err
	}
	if flagMachineID != "" {
		cfg.MachineID = flagMachineID
	}

	logger := logging.New(logLevel(), os.Stderr)
	layout := archive.Layout{Root: cfg.SyncRepoPath}

	markers, err := state.Open(layout.StatePath())
	if err != nil {
		// markers are a cache; syncing still works, just slower
		logger.Warn("marker database unavailable", "error", err)
		markers = nil
	}
	if markers != nil {
		defer markers.Close()
	}

	rec := reconcile.New(cfg, markers, metadata.NewGitLookup(), logger)
	summary, err := rec.Run(ctx)
	if err != nil {
		return err
	}

	for _, failure := range summary.Failures {
		fmt.Fprintf(os.Stderr, "  ✗ %s: %v\n", shortID(failure.SessionID), failure.Err)
	}
	fmt.Printf("Synced %d, skipped %d, failed %d\n",
		summary.Synced, summary.Skipped, summary.Failed)

	pub := publish.New(cfg.SyncRepoPath, cfg.MachineID, logger)
	if err := pub.CommitAndPush(ctx, summary, flagPush); err != nil {
		return err
	}

	return nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
