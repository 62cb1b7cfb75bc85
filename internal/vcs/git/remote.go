package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/workshop-labs/claude-sync/internal/vcs"
)

// HasRemote returns true if any remote is configured
func (g *Git) HasRemote() bool {
	cmd := exec.Command("git", "remote")
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// GetRemotes returns information about configured remotes
func (g *Git) GetRemotes() ([]vcs.RemoteInfo, error) {
	cmd := exec.Command("git", "remote", "-v")
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git remote -v failed: %w", err)
	}

	// Parse output: "origin url (fetch)"
	remotes := make(map[string]string) // name -> url
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		name := parts[0]
		url := parts[1]

		// Only record fetch URLs (skip push duplicates)
		if len(parts) >= 3 && strings.Contains(parts[2], "fetch") {
			remotes[name] = url
		} else if _, exists := remotes[name]; !exists {
			remotes[name] = url
		}
	}

	var result []vcs.RemoteInfo
	for name, url := range remotes {
		result = append(result, vcs.RemoteInfo{
			Name: name,
			URL:  url,
		})
	}

	return result, nil
}

// RemoteURL returns the URL of the named remote
func (g *Git) RemoteURL(name string) (string, error) {
	if name == "" {
		name = "origin"
	}

	cmd := exec.Command("git", "remote", "get-url", name)
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s", vcs.ErrNoRemote, name)
	}

	return strings.TrimSpace(string(output)), nil
}

// AddRemote configures a named remote pointing at url
func (g *Git) AddRemote(name, url string) error {
	cmd := exec.Command("git", "remote", "add", name, url)
	cmd.Dir = g.repoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git remote add failed: %w\n%s", err, string(output))
	}

	return nil
}

// Push pushes changes to the remote
func (g *Git) Push(ctx context.Context, opts vcs.PushOptions) error {
	if !g.HasRemote() {
		return vcs.ErrNoRemote
	}

	// Determine remote
	remote := opts.Remote
	if remote == "" {
		// Try to get configured remote for current branch
		branch, err := g.CurrentRef()
		if err != nil {
			return err
		}

		if branch != "" {
			remoteCmd := exec.Command("git", "config", "--get", fmt.Sprintf("branch.%s.remote", branch))
			remoteCmd.Dir = g.repoRoot
			remoteOutput, err := remoteCmd.Output()
			if err == nil {
				remote = strings.TrimSpace(string(remoteOutput))
			}
		}

		if remote == "" {
			remote = "origin"
		}
	}

	// Determine ref
	ref := opts.Ref
	if ref == "" {
		var err error
		ref, err = g.CurrentRef()
		if err != nil {
			return err
		}
		if ref == "" {
			return vcs.ErrDetached
		}
	}

	args := []string{"push"}
	if opts.SetUpstream {
		args = append(args, "-u")
	}
	args = append(args, remote, ref)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		outputStr := string(output)

		if strings.Contains(outputStr, "rejected") || strings.Contains(outputStr, "non-fast-forward") {
			return vcs.ErrPushRejected
		}

		return fmt.Errorf("git push failed: %w\n%s", err, outputStr)
	}

	return nil
}
