// claude-sync copies Claude Code conversation logs into a git-backed
// archive with machine metadata, and optionally pushes the archive to a
// remote.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/workshop-labs/claude-sync/internal/config"
)

var version = "dev"

var (
	flagInit      bool
	flagStatus    bool
	flagPush      bool
	flagRemote    string
	flagMachineID string
	flagConfig    string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "claude-sync",
	Short: "Sync Claude Code conversations to a git archive",
	Long: `claude-sync copies Claude Code session logs from ~/.claude/projects
into a git repository, enriched with per-machine metadata (timing, model,
working directory, git remote/branch at capture time).

Without flags, all new or changed sessions are synced and committed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case flagInit:
			return runInit(cmd.Context())
		case flagStatus:
			return runStatus(cmd.Context())
		default:
			return runSync(cmd.Context())
		}
	},
}

func init() {
	rootCmd.Flags().BoolVar(&flagInit, "init", false, "Initialize config and archive repository")
	rootCmd.Flags().BoolVar(&flagStatus, "status", false, "Show sync status")
	rootCmd.Flags().BoolVar(&flagPush, "push", false, "Push to remote after sync")
	rootCmd.Flags().StringVar(&flagRemote, "remote", "", "Git remote URL (for --init)")
	rootCmd.Flags().StringVar(&flagMachineID, "machine-id", "", "Override machine ID")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default ~/.claude-sync/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(watchCmd)

	rootCmd.Version = version
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultPath()
}

func logLevel() string {
	if flagVerbose {
		return "debug"
	}
	return "info"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
