package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/sweep"
)

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	registerConfigFlags(cmd.Flags())
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newTestCommand(t))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	want := config.DefaultConfig()
	if cfg.Base != want.Base {
		t.Errorf("base gains = %v, want %v", cfg.Base, want.Base)
	}
	if cfg.Grid.Points != config.DefaultPoints {
		t.Errorf("points = %d, want %d", cfg.Grid.Points, config.DefaultPoints)
	}
}

func TestLoadConfigPresetKeepsUnsetFields(t *testing.T) {
	cfg, err := loadConfig(newTestCommand(t, "--preset", "third-order", "--kp", "2"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Base.Kp != 2 {
		t.Errorf("Kp = %g, want 2", cfg.Base.Kp)
	}
	if cfg.Grid.Stop != 30 {
		t.Errorf("stop = %g, want the preset horizon 30", cfg.Grid.Stop)
	}
}

func TestLoadConfigFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pid.yaml")
	cfg := config.DefaultConfig()
	cfg.Integrator = "rk4"
	cfg.Grid.Points = 300
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := loadConfig(newTestCommand(t, "--config", path, "--points", "50"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got.Integrator != "rk4" {
		t.Errorf("integrator = %q, want rk4 from file", got.Integrator)
	}
	if got.Grid.Points != 50 {
		t.Errorf("points = %d, want 50 from flag", got.Grid.Points)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := loadConfig(newTestCommand(t, "--preset", "nope")); err == nil {
		t.Error("expected error for unknown preset")
	}
	if _, err := loadConfig(newTestCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))); err == nil {
		t.Error("expected error for missing config file")
	}
	if _, err := loadConfig(newTestCommand(t, "--points", "1")); err == nil {
		t.Error("expected validation error for a one-point grid")
	}
}

func TestSaveOutcomeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cmd := newTestCommand(t, "--data", dir, "--points", "100")
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	runner, err := cfg.Runner(nil)
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	out := runner.EvaluateCase(context.Background(), sweep.Case{Label: cfg.Base.String(), Gains: cfg.Base})
	if !out.OK() {
		t.Fatalf("evaluate: %v", out.Err)
	}

	st, err := runStore(cmd)
	if err != nil {
		t.Fatalf("runStore: %v", err)
	}
	id, err := saveOutcome(st, runner, out)
	if err != nil {
		t.Fatalf("saveOutcome: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, id, "metadata.json")); err != nil {
		t.Fatalf("metadata missing: %v", err)
	}
	meta, err := st.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Gains != cfg.Base {
		t.Errorf("gains = %v, want %v", meta.Gains, cfg.Base)
	}
	if meta.Points != 100 {
		t.Errorf("points = %d, want 100", meta.Points)
	}
}
