package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/workshop-labs/claude-sync/internal/archive"
	"github.com/workshop-labs/claude-sync/internal/config"
	"github.com/workshop-labs/claude-sync/internal/session"
	"github.com/workshop-labs/claude-sync/internal/vcs/git"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true).Width(18)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// runStatus reports local vs synced session counts and the archive's git
// state. It never writes to the archive.
func runStatus(ctx context.Context) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("claude-sync status"))
	fmt.Println(labelStyle.Render("Machine ID") + cfg.MachineID)
	fmt.Println(labelStyle.Render("Sync repo") + cfg.SyncRepoPath)
	fmt.Println(labelStyle.Render("Claude projects") + cfg.ClaudeProjectsPath)
	fmt.Println()

	layout := archive.Layout{Root: cfg.SyncRepoPath}
	if !layout.Exists() {
		fmt.Println(warnStyle.Render("Not initialized (run --init)"))
		return nil
	}

	refs, err := session.List(cfg.ClaudeProjectsPath)
	if err != nil {
		return err
	}
	synced, err := layout.SyncedSessions(cfg.MachineID)
	if err != nil {
		return err
	}
	pending := len(refs) - len(synced)
	if pending < 0 {
		pending = 0
	}

	fmt.Println(labelStyle.Render("Local sessions") + fmt.Sprintf("%d", len(refs)))
	fmt.Println(labelStyle.Render("Synced") + fmt.Sprintf("%d", len(synced)))
	if pending > 0 {
		fmt.Println(labelStyle.Render("Pending") + warnStyle.Render(fmt.Sprintf("%d", pending)))
	} else {
		fmt.Println(labelStyle.Render("Pending") + okStyle.Render("0"))
	}
	fmt.Println()

	repo, err := git.New(cfg.SyncRepoPath)
	if err != nil {
		fmt.Println(warnStyle.Render("Archive is not a git repository"))
		return nil
	}

	if version, err := repo.Version(); err == nil {
		fmt.Println(labelStyle.Render("Git") + version)
	}

	if dirty, err := repo.HasChanges(); err == nil && dirty {
		fmt.Println(warnStyle.Render("Uncommitted changes in sync repo"))
	}

	remotes, err := repo.GetRemotes()
	if err == nil && len(remotes) > 0 {
		for _, remote := range remotes {
			fmt.Println(labelStyle.Render("Remote") + fmt.Sprintf("%s (%s)", remote.URL, remote.Name))
		}
	} else {
		fmt.Println(labelStyle.Render("Remote") + "none configured")
	}

	return nil
}
