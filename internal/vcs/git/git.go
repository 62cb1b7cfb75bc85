// Package git provides a Git implementation of the VCS interface.
//
// This package wraps git commands to provide the operations claude-sync
// needs: repository discovery, staging, commits, remote queries, and push.
package git

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/workshop-labs/claude-sync/internal/vcs"
)

var _ vcs.VCS = (*Git)(nil)

// Git implements the VCS interface for git repositories.
type Git struct {
	// repoRoot is the repository root directory path
	repoRoot string

	// vcsDir is the .git directory path
	vcsDir string
}

// New creates a new Git VCS instance for the given repository.
// The path should be somewhere within a git repository; vcs.ErrNotInVCS
// is returned otherwise.
func New(path string) (*Git, error) {
	g := &Git{}

	if err := g.detect(path); err != nil {
		return nil, err
	}

	return g, nil
}

// Version returns the git version string
func (g *Git) Version() (string, error) {
	cmd := exec.Command("git", "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %v", vcs.ErrVCSNotAvailable, err)
	}

	// Output format: "git version 2.39.0"
	version := strings.TrimSpace(string(output))
	version = strings.TrimPrefix(version, "git version ")

	return version, nil
}

// RepoRoot returns the repository root directory path
func (g *Git) RepoRoot() (string, error) {
	if g.repoRoot == "" {
		return "", vcs.ErrNotInVCS
	}
	return g.repoRoot, nil
}

// IsInVCS returns true if inside a git repository
func (g *Git) IsInVCS() bool {
	return g.repoRoot != ""
}

// CurrentRef returns the current branch name, empty in detached HEAD state
func (g *Git) CurrentRef() (string, error) {
	cmd := exec.Command("git", "branch", "--show-current")
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git branch --show-current failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}
