// Package logging constructs the slog loggers used by the CLI, the watch
// daemon, and the session-end hook.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a text-handler logger at the given level, writing to out.
// A nil out defaults to stderr.
func New(level string, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stderr
	}
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

// NewFile returns a logger writing to a rotated log file. Used by the
// hook and the watch daemon, whose output nobody sees on a terminal.
func NewFile(level, path string) *slog.Logger {
	return New(level, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	})
}

// DefaultLogPath returns the fixed log file path used by the hook.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "claude-sync.log")
	}
	return filepath.Join(home, ".claude-sync", "logs", "sync.log")
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
