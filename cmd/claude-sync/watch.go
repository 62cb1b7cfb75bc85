package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/workshop-labs/claude-sync/internal/archive"
	"github.com/workshop-labs/claude-sync/internal/config"
	"github.com/workshop-labs/claude-sync/internal/daemon"
	"github.com/workshop-labs/claude-sync/internal/dashboard"
	"github.com/workshop-labs/claude-sync/internal/logging"
	"github.com/workshop-labs/claude-sync/internal/metadata"
	"github.com/workshop-labs/claude-sync/internal/publish"
	"github.com/workshop-labs/claude-sync/internal/reconcile"
	"github.com/workshop-labs/claude-sync/internal/state"
)

var (
	flagWatchPush      bool
	flagWatchDebounce  time.Duration
	flagWatchSweep     time.Duration
	flagWatchDashboard bool
	flagWatchPort      int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the projects directory and sync continuously",
	Long: `Watch runs claude-sync as a foreground daemon: session file changes
trigger a debounced sync pass, and a periodic full sweep catches anything
the watcher missed. With --dashboard, a loopback HTTP/WebSocket server
broadcasts each completed pass.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().BoolVar(&flagWatchPush, "push", false, "Push to remote after each sync pass")
	watchCmd.Flags().DurationVar(&flagWatchDebounce, "debounce", 2*time.Second, "Quiet period before a triggered sync runs")
	watchCmd.Flags().DurationVar(&flagWatchSweep, "sweep-interval", 15*time.Minute, "Interval between full sweeps")
	watchCmd.Flags().BoolVar(&flagWatchDashboard, "dashboard", false, "Serve the status dashboard while watching")
	watchCmd.Flags().IntVar(&flagWatchPort, "port", 8178, "Dashboard port (loopback only)")
}

func runWatch(ctx context.Context) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return err
	}

	logger := logging.New(logLevel(), os.Stderr)
	layout := archive.Layout{Root: cfg.SyncRepoPath}

	markers, err := state.Open(layout.StatePath())
	if err != nil {
		logger.Warn("marker database unavailable", "error", err)
		markers = nil
	}
	if markers != nil {
		defer markers.Close()
	}

	rec := reconcile.New(cfg, markers, metadata.NewGitLookup(), logger)
	pub := publish.New(cfg.SyncRepoPath, cfg.MachineID, logger)

	run := func(ctx context.Context) (reconcile.Summary, error) {
		summary, err := rec.Run(ctx)
		if err != nil {
			return summary, err
		}
		if err := pub.CommitAndPush(ctx, summary, flagWatchPush); err != nil {
			// archive stays ahead of the remote; keep watching
			logger.Warn("publish failed", "error", err)
		}
		return summary, nil
	}

	d, err := daemon.New(cfg.ClaudeProjectsPath, run, &daemon.Config{
		DebounceInterval: flagWatchDebounce,
		SweepInterval:    flagWatchSweep,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	if flagWatchDashboard {
		server := dashboard.NewServer(&dashboard.Config{
			Port:        flagWatchPort,
			MachineID:   cfg.MachineID,
			ArchivePath: cfg.SyncRepoPath,
			Logger:      logger,
		})
		if err := server.Start(); err != nil {
			return err
		}
		defer server.Stop()
		d.OnSummary(server.PublishSummary)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return d.Run(ctx)
}
