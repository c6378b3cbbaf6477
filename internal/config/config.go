package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantmesh/metaperception/internal/domain/intent"
	"github.com/quantmesh/metaperception/internal/domain/uncertainty"
)

// Config is the process-wide, cycle-invariant perception configuration. It is
// loaded once and passed by value into every call; hot reload replaces the
// whole object rather than mutating fields.
type Config struct {
	Thresholds ThresholdConfig     `yaml:"thresholds"`
	Windows    WindowConfig        `yaml:"windows"`
	Weights    uncertainty.Weights `yaml:"uncertainty_weights"`
	Intent     intent.Weights      `yaml:"intent_weights"`

	// MaxComputationTimeMS is an advisory performance gate: breaches are
	// reported on the output, never enforced by aborting the pipeline.
	MaxComputationTimeMS int `yaml:"max_computation_time_ms"`
}

// ThresholdConfig groups the action-gating thresholds
type ThresholdConfig struct {
	Noise        float64 `yaml:"noise"`
	Uncertainty  float64 `yaml:"uncertainty"`
	ShockSigma   float64 `yaml:"shock_sigma"`
	RegimeStress float64 `yaml:"regime_stress"`
}

// WindowConfig groups the time-window and discretization parameters
type WindowConfig struct {
	TrendBars      int `yaml:"trend_bars"`       // noise moving-average window
	EntropyBins    int `yaml:"entropy_bins"`     // return histogram bins
	MinShockPoints int `yaml:"min_shock_points"` // minimum series length for outlier stats
	DecisionWindow int `yaml:"decision_window"`  // reflexivity lookback
}

// Defaults returns the canonical configuration
func Defaults() Config {
	return Config{
		Thresholds: ThresholdConfig{
			Noise:        0.7,
			Uncertainty:  0.7,
			ShockSigma:   3.0,
			RegimeStress: 1.0,
		},
		Windows: WindowConfig{
			TrendBars:      5,
			EntropyBins:    10,
			MinShockPoints: 10,
			DecisionWindow: 50,
		},
		Weights:              uncertainty.DefaultWeights(),
		Intent:               intent.DefaultWeights(),
		MaxComputationTimeMS: 100,
	}
}

// Load reads configuration from a YAML file, layering it over Defaults
func Load(path string) (Config, error) {
	cfg := Defaults()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects malformed configuration before it can enter the pipeline
func (c Config) Validate() error {
	thresholds := []struct {
		name  string
		value float64
	}{
		{"noise", c.Thresholds.Noise},
		{"uncertainty", c.Thresholds.Uncertainty},
		{"shock_sigma", c.Thresholds.ShockSigma},
		{"regime_stress", c.Thresholds.RegimeStress},
	}
	for _, t := range thresholds {
		if t.value <= 0 {
			return fmt.Errorf("threshold %s must be positive, got %.4f", t.name, t.value)
		}
	}

	weights := []struct {
		name  string
		value float64
	}{
		{"entropy", c.Weights.Entropy},
		{"noise", c.Weights.Noise},
		{"reflexivity", c.Weights.Reflexivity},
		{"regime", c.Weights.Regime},
	}
	for _, w := range weights {
		if w.value < 0 {
			return fmt.Errorf("uncertainty weight %s cannot be negative: %.4f", w.name, w.value)
		}
	}

	for name, vec := range map[string][]float64{
		"long":    c.Intent.Long,
		"short":   c.Intent.Short,
		"neutral": c.Intent.Neutral,
	} {
		if len(vec) != 5 {
			return fmt.Errorf("intent weights %s must have 5 entries, got %d", name, len(vec))
		}
	}

	if c.Windows.TrendBars < 2 {
		return fmt.Errorf("trend_bars must be at least 2, got %d", c.Windows.TrendBars)
	}
	if c.Windows.EntropyBins < 2 {
		return fmt.Errorf("entropy_bins must be at least 2, got %d", c.Windows.EntropyBins)
	}
	if c.MaxComputationTimeMS <= 0 {
		return fmt.Errorf("max_computation_time_ms must be positive, got %d", c.MaxComputationTimeMS)
	}
	return nil
}

// ComputationBudget returns the advisory wall-clock budget
func (c Config) ComputationBudget() time.Duration {
	return time.Duration(c.MaxComputationTimeMS) * time.Millisecond
}
