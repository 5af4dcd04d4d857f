package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.StuckThresholdDays != 7 {
		t.Errorf("stuck threshold = %d, want 7", cfg.StuckThresholdDays)
	}
	if cfg.MaxActiveMoves != 8 {
		t.Errorf("max active moves = %d, want 8", cfg.MaxActiveMoves)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Weights.Performance != 0.40 {
		t.Errorf("performance weight = %v, want 0.40", cfg.Weights.Performance)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warplan.yaml")
	data := "stuck_threshold_days: 14\nmax_moves_per_pass: 10\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StuckThresholdDays != 14 {
		t.Errorf("stuck threshold = %d, want 14", cfg.StuckThresholdDays)
	}
	if cfg.MaxMovesPerPass != 10 {
		t.Errorf("max moves per pass = %d, want 10", cfg.MaxMovesPerPass)
	}
	// Untouched keys keep their defaults.
	if cfg.Weights.Schedule != 0.30 {
		t.Errorf("schedule weight = %v, want 0.30", cfg.Weights.Schedule)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := Default()
	cfg.Weights.Performance = 0.9
	if err := cfg.Validate(); err == nil {
		t.Error("weights not summing to 1.0 must fail validation")
	}
}
