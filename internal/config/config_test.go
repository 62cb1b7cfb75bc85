package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	_, err := Load(path)
	if !errors.Is(err, ErrConfigMissing) {
		t.Fatalf("Load missing file: err = %v, want ErrConfigMissing", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrConfigMissing) {
		t.Fatalf("Load malformed file: err = %v, want ErrConfigMissing", err)
	}
}

func TestLoadNoMachineID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"sync_repo_path":"/tmp/repo"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrConfigMissing) {
		t.Fatalf("Load without machine_id: err = %v, want ErrConfigMissing", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"machine_id":"host1"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MachineID != "host1" {
		t.Errorf("MachineID = %q", cfg.MachineID)
	}
	if cfg.SyncRepoPath == "" || cfg.ClaudeProjectsPath == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.IncludeThinking {
		t.Error("IncludeThinking should default to false")
	}
}

func TestInitAndRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	want := Config{
		MachineID:          "laptop",
		SyncRepoPath:       "/data/archive",
		ClaudeProjectsPath: "/home/u/.claude/projects",
		IncludeThinking:    true,
	}

	if err := Init(path, want); err != nil {
		t.Fatalf("Init: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Init: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	err = Init(path, want)
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second Init: err = %v, want ErrAlreadyInitialized", err)
	}
}

func TestDefaultUsesHostname(t *testing.T) {
	cfg := Default()
	if cfg.MachineID == "" {
		t.Error("Default machine id must not be empty")
	}
	if cfg.IncludeThinking {
		t.Error("thinking blocks must be excluded by default")
	}
}
