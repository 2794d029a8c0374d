package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcosistoocommon/ReoCamara/internal/config"
)

var showDisabled bool

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Log in to the camera and list its stored PTZ presets",
	RunE:  runPresets,
}

func init() {
	presetsCmd.Flags().BoolVarP(&showDisabled, "all", "a", false,
		"Include presets that are not enabled")
}

func runPresets(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, false)
	if err != nil {
		return err
	}
	if err := InitLogger(effectiveLogLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cam := newCameraClient(cfg)
	token, err := cam.Login(ctx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	presets, err := cam.Presets(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to list presets: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-4s %-8s %s\n", "ID", "ENABLED", "NAME")
	for _, p := range presets {
		if p.Enable == 0 && !showDisabled {
			continue
		}
		fmt.Fprintf(out, "%-4d %-8t %s\n", p.ID, p.Enable != 0, p.Name)
	}
	return nil
}
