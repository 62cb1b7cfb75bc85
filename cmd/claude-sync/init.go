package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/workshop-labs/claude-sync/internal/archive"
	"github.com/workshop-labs/claude-sync/internal/config"
)

// runInit creates the config file and the archive repository with its
// initial structure.
func runInit(ctx context.Context) error {
	cfg := config.Default()

	switch {
	case flagMachineID != "":
		cfg.MachineID = flagMachineID
	case term.IsTerminal(int(os.Stdin.Fd())):
		if err := promptMachineID(&cfg.MachineID); err != nil {
			return err
		}
	}

	path := configPath()
	if err := config.Init(path, cfg); err != nil {
		return err
	}
	fmt.Printf("Config saved to %s\n", path)

	if err := archive.Init(ctx, cfg.SyncRepoPath, flagRemote); err != nil {
		return err
	}
	fmt.Printf("Initialized sync repo at %s\n", cfg.SyncRepoPath)

	return nil
}

// promptMachineID lets an interactive user adjust the hostname default.
func promptMachineID(machineID *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Machine ID").
				Description("Identifies this machine's contributions in the shared archive.").
				Value(machineID).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("machine id cannot be empty")
					}
					return nil
				}),
		),
	)
	return form.Run()
}
