package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// candidatePaths returns the fixed locations probed for the sync binary,
// in order of preference. PATH lookup is the fallback.
func candidatePaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".claude-sync", "bin", "claude-sync"),
			filepath.Join(home, ".local", "bin", "claude-sync"),
		)
	}
	paths = append(paths, "/usr/local/bin/claude-sync")
	return paths
}

func locateSyncBinary() (string, error) {
	for _, candidate := range candidatePaths() {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath("claude-sync"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("claude-sync not found in %v or PATH", candidatePaths())
}
