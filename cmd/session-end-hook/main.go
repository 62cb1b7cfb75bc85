// session-end-hook is invoked by Claude Code when a session ends and
// triggers a claude-sync run in the background.
//
// The hook must never disturb the host: it always exits 0, swallows its
// own failures, and hands the actual sync off to a detached copy of
// itself so the host's shutdown path is never blocked. The detached run
// is fire-and-forget; its outcome is only observable through the log
// file and a best-effort desktop notification.
package main

import (
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/workshop-labs/claude-sync/internal/logging"
	"github.com/workshop-labs/claude-sync/internal/notify"
)

func main() {
	if len(os.Args) >= 3 && os.Args[1] == "run" {
		runDetached(os.Args[2])
		return
	}

	logger := logging.NewFile("info", logging.DefaultLogPath())

	// Claude Code pipes hook JSON on stdin; drain it so the host never
	// blocks on a full pipe. The payload itself is not needed.
	_, _ = io.Copy(io.Discard, os.Stdin)

	syncPath, err := locateSyncBinary()
	if err != nil {
		logger.Error("claude-sync binary not found", "error", err)
		os.Exit(0)
	}

	self, err := os.Executable()
	if err != nil {
		logger.Error("cannot determine own path", "error", err)
		os.Exit(0)
	}

	cmd := exec.Command(self, "run", syncPath)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	detach(cmd)

	if err := cmd.Start(); err != nil {
		logger.Error("failed to start background sync", "error", err)
		os.Exit(0)
	}
	// Deliberately no Wait: the child outlives this process.

	os.Exit(0)
}

// runDetached executes the sync synchronously in the detached child,
// logging the outcome and notifying on failure.
func runDetached(syncPath string) {
	logger := logging.NewFile("info", logging.DefaultLogPath())

	start := time.Now()
	logger.Info("session-end sync starting", "binary", syncPath)

	output, err := exec.Command(syncPath).CombinedOutput()
	if err != nil {
		logger.Error("session-end sync failed",
			"error", err, "output", string(output))
		notify.Send("claude-sync", "Session sync failed; see "+logging.DefaultLogPath())
		return
	}

	logger.Info("session-end sync complete",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"output", string(output))
}
