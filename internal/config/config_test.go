package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Validate(t *testing.T) {
	cfg := Defaults()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.7, cfg.Thresholds.Noise)
	assert.Equal(t, 0.7, cfg.Thresholds.Uncertainty)
	assert.Equal(t, 3.0, cfg.Thresholds.ShockSigma)
	assert.Equal(t, 1.0, cfg.Thresholds.RegimeStress)
	assert.Equal(t, 100*time.Millisecond, cfg.ComputationBudget())
}

func TestLoad_LayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perception.yaml")
	body := `
thresholds:
  noise: 0.5
windows:
  entropy_bins: 20
max_computation_time_ms: 250
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Thresholds.Noise, "overridden")
	assert.Equal(t, 0.7, cfg.Thresholds.Uncertainty, "default survives partial override")
	assert.Equal(t, 20, cfg.Windows.EntropyBins)
	assert.Equal(t, 5, cfg.Windows.TrendBars)
	assert.Equal(t, 250*time.Millisecond, cfg.ComputationBudget())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"zero noise threshold", func(c *Config) { c.Thresholds.Noise = 0 }, "threshold noise"},
		{"negative sigma", func(c *Config) { c.Thresholds.ShockSigma = -1 }, "threshold shock_sigma"},
		{"negative weight", func(c *Config) { c.Weights.Regime = -0.1 }, "uncertainty weight regime"},
		{"short intent vector", func(c *Config) { c.Intent.Long = []float64{1, 2} }, "intent weights long"},
		{"trend window too small", func(c *Config) { c.Windows.TrendBars = 1 }, "trend_bars"},
		{"single entropy bin", func(c *Config) { c.Windows.EntropyBins = 1 }, "entropy_bins"},
		{"zero budget", func(c *Config) { c.MaxComputationTimeMS = 0 }, "max_computation_time_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
