// Package config loads and creates the claude-sync configuration file.
//
// The config is a single JSON file (~/.claude-sync/config.json by default)
// holding the machine id, the archive repository path, the Claude projects
// path, and the thinking-block filter flag. There is no process-wide
// singleton: callers load a Config value and pass it down explicitly.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigMissing is returned when no usable config file exists.
	// A config file without a machine_id counts as missing.
	ErrConfigMissing = errors.New("config missing (run --init first)")

	// ErrAlreadyInitialized is returned by Init when a config file
	// already exists at the target path.
	ErrAlreadyInitialized = errors.New("already initialized")
)

// Config holds all settings for one sync invocation.
type Config struct {
	MachineID          string `mapstructure:"machine_id" json:"machine_id"`
	SyncRepoPath       string `mapstructure:"sync_repo_path" json:"sync_repo_path"`
	ClaudeProjectsPath string `mapstructure:"claude_projects_path" json:"claude_projects_path"`
	IncludeThinking    bool   `mapstructure:"include_thinking" json:"include_thinking"`
}

// DefaultPath returns the fixed config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude-sync", "config.json")
	}
	return filepath.Join(home, ".claude-sync", "config.json")
}

// Default returns a config populated with per-machine defaults.
// The machine id defaults to the hostname.
func Default() Config {
	home, _ := os.UserHomeDir()
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return Config{
		MachineID:          hostname,
		SyncRepoPath:       filepath.Join(home, ".claude-sync", "repo"),
		ClaudeProjectsPath: filepath.Join(home, ".claude", "projects"),
		IncludeThinking:    false,
	}
}

// Load reads the config file at path. Missing file, unparseable file, and
// a file without machine_id all return ErrConfigMissing so callers have a
// single "run --init" failure mode.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigMissing, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	defaults := Default()
	v.SetDefault("sync_repo_path", defaults.SyncRepoPath)
	v.SetDefault("claude_projects_path", defaults.ClaudeProjectsPath)
	v.SetDefault("include_thinking", false)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigMissing, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigMissing, err)
	}

	if cfg.MachineID == "" {
		return Config{}, fmt.Errorf("%w: machine_id not set in %s", ErrConfigMissing, path)
	}

	return cfg, nil
}

// Init writes cfg to path, failing if a config file already exists.
func Init(path string, cfg Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, path)
	}

	if err := Save(path, cfg); err != nil {
		return err
	}
	return nil
}

// Save writes cfg to path unconditionally, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
