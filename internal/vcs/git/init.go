package git

import (
	"fmt"
	"os"
	"os/exec"
)

// InitRepo creates a new git repository at path, creating the directory
// if needed. Returns a Git instance for the new repository.
func InitRepo(path string) (*Git, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create repository directory: %w", err)
	}

	cmd := exec.Command("git", "init")
	cmd.Dir = path

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("git init failed: %w\n%s", err, string(output))
	}

	return New(path)
}
