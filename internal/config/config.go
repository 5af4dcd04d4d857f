// Package config holds the tunable policy knobs of the orchestration core:
// health factor weights, detector thresholds, and evaluation bounds. Values
// ship with product defaults and may be overridden from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights are the health score factor weights. They should sum to 1.0.
type Weights struct {
	Schedule    float64 `yaml:"schedule"`
	Performance float64 `yaml:"performance"`
	Anomalies   float64 `yaml:"anomalies"`
	OODA        float64 `yaml:"ooda"`
}

// Config carries every tunable the core consults. The zero value is NOT
// usable; start from Default().
type Config struct {
	Weights Weights `yaml:"weights"`

	// Lifecycle rule thresholds (days).
	StuckThresholdDays    int `yaml:"stuck_threshold_days"`
	OverdueEscalationDays int `yaml:"overdue_escalation_days"`

	// Detector thresholds.
	FatigueDeclinePct float64 `yaml:"fatigue_decline_pct"`
	DriftPct          float64 `yaml:"drift_pct"`
	MaxActiveMoves    int     `yaml:"max_active_moves"`
	RedMoveThreshold  int     `yaml:"red_move_threshold"`

	// Workspace evaluation bounds. MaxMovesPerPass caps how many moves one
	// evaluation pass scores; Workers bounds the evaluation fan-out.
	MaxMovesPerPass int `yaml:"max_moves_per_pass"`
	Workers         int `yaml:"workers"`

	// MaxLoadRetries bounds optimistic-concurrency retries on sprint load
	// writes before the conflict is surfaced.
	MaxLoadRetries int `yaml:"max_load_retries"`
}

// Default returns the product policy defaults.
func Default() Config {
	return Config{
		Weights: Weights{
			Schedule:    0.30,
			Performance: 0.40,
			Anomalies:   0.20,
			OODA:        0.10,
		},
		StuckThresholdDays:    7,
		OverdueEscalationDays: 7,
		FatigueDeclinePct:     30,
		DriftPct:              25,
		MaxActiveMoves:        8,
		RedMoveThreshold:      3,
		MaxMovesPerPass:       50,
		Workers:               8,
		MaxLoadRetries:        5,
	}
}

// Load reads overrides from a YAML file on top of the defaults. A missing
// file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	sum := c.Weights.Schedule + c.Weights.Performance + c.Weights.Anomalies + c.Weights.OODA
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("health factor weights must sum to 1.0 (got %.2f)", sum)
	}
	if c.StuckThresholdDays <= 0 {
		return fmt.Errorf("stuck threshold must be positive")
	}
	if c.MaxMovesPerPass <= 0 {
		return fmt.Errorf("max moves per pass must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.MaxLoadRetries < 0 {
		return fmt.Errorf("max load retries cannot be negative")
	}
	return nil
}
