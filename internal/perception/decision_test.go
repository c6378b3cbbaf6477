package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmesh/metaperception/internal/config"
	"github.com/quantmesh/metaperception/internal/domain/noise"
	"github.com/quantmesh/metaperception/internal/domain/regime"
	"github.com/quantmesh/metaperception/internal/domain/shock"
)

func actingSnapshot() Snapshot {
	return Snapshot{
		ID:        SnapshotID(cycleTime),
		Timestamp: cycleTime,
		State: State{
			Timestamp:        cycleTime,
			NoiseLevel:       0.2,
			TotalUncertainty: 0.3,
			ShouldAct:        true,
		},
		Noise:  noise.Score{NoiseLevel: 0.2, SignalQuality: 0.8, Acceptable: true},
		Regime: regime.Alert{Level: regime.LevelInfo},
	}
}

func TestMakeDecision_ActingDefaults(t *testing.T) {
	d := makeDecision(actingSnapshot(), config.Defaults())

	assert.True(t, d.ShouldAct)
	assert.Nil(t, d.LeverageAdjustment)
	assert.Equal(t, RiskModeNormal, d.RiskMode)
	assert.False(t, d.AlertOperator)
	assert.Equal(t, PriorityLow, d.AlertPriority)
	assert.InDelta(t, 0.7, d.Confidence, 1e-12)
	assert.Equal(t, []string{"guards_passed"}, d.KeyFactors)
}

func TestMakeDecision_BlockedHalvesLeverage(t *testing.T) {
	snap := actingSnapshot()
	snap.State.ShouldAct = false
	snap.State.TotalUncertainty = 0.85

	d := makeDecision(snap, config.Defaults())

	assert.False(t, d.ShouldAct)
	require.NotNil(t, d.LeverageAdjustment)
	assert.Equal(t, 0.5, *d.LeverageAdjustment)
	assert.True(t, d.AlertOperator)
	assert.Equal(t, PriorityCritical, d.AlertPriority)
	assert.Equal(t, []string{"high_uncertainty"}, d.KeyFactors)
	assert.Contains(t, d.Rationale, "blocked")
}

func TestMakeDecision_ElevatedUncertaintyWhileActing(t *testing.T) {
	// A raised gate lets the cycle act while uncertainty sits above the
	// canonical leverage trigger
	cfg := config.Defaults()
	cfg.Thresholds.Uncertainty = 0.9

	snap := actingSnapshot()
	snap.State.TotalUncertainty = 0.75

	d := makeDecision(snap, cfg)

	assert.True(t, d.ShouldAct)
	require.NotNil(t, d.LeverageAdjustment)
	assert.Equal(t, 0.7, *d.LeverageAdjustment)
	assert.Equal(t, PriorityLow, d.AlertPriority)
}

func TestMakeDecision_CriticalRegimeAlertsWhileActing(t *testing.T) {
	snap := actingSnapshot()
	snap.Regime.Level = regime.LevelCritical

	d := makeDecision(snap, config.Defaults())

	assert.True(t, d.ShouldAct)
	assert.True(t, d.AlertOperator)
	assert.Equal(t, PriorityHigh, d.AlertPriority, "alerting while still acting")
}

func TestMakeDecision_RiskModes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
		want   RiskMode
	}{
		{"calm", func(s *Snapshot) {}, RiskModeNormal},
		{"noisy", func(s *Snapshot) { s.State.NoiseLevel = 0.65 }, RiskModeCautious},
		{"stressed", func(s *Snapshot) { s.State.RegimeStress = 0.9 }, RiskModeCautious},
		{"high stress", func(s *Snapshot) { s.State.RegimeStress = 1.6 }, RiskModeDefensive},
		{"critical shock", func(s *Snapshot) {
			s.Shocks = []shock.Event{{ID: "a:1", Severity: shock.SeverityCritical}}
			s.State.ShouldAct = false
		}, RiskModeDefensive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := actingSnapshot()
			tt.mutate(&snap)
			d := makeDecision(snap, config.Defaults())
			assert.Equal(t, tt.want, d.RiskMode)
		})
	}
}

func TestMakeDecision_BlockedRationaleOrdersFactors(t *testing.T) {
	snap := actingSnapshot()
	snap.State.ShouldAct = false
	snap.State.NoiseLevel = 0.85
	snap.State.TotalUncertainty = 0.9
	snap.Noise.Acceptable = false
	snap.Regime.PivotDetected = true
	snap.Regime.ExpectedRegime = regime.RegimeCrisis
	snap.Shocks = []shock.Event{{ID: "a:1", Severity: shock.SeverityCritical}}

	d := makeDecision(snap, config.Defaults())

	assert.Equal(t,
		[]string{"high_noise", "high_uncertainty", "regime_pivot", "critical_shock"},
		d.KeyFactors, "fixed reporting order regardless of magnitude")
	assert.NotEmpty(t, d.Rationale)
}

func TestMakeDecision_BlockedAlwaysExplained(t *testing.T) {
	// A state blocked upstream with no locally visible guard failure still
	// yields a non-empty explanation
	snap := actingSnapshot()
	snap.State.ShouldAct = false

	d := makeDecision(snap, config.Defaults())

	assert.NotEmpty(t, d.Rationale)
	assert.NotEmpty(t, d.KeyFactors)
}

func TestMakeDecision_ConfidenceClamped(t *testing.T) {
	snap := actingSnapshot()
	snap.State.ShouldAct = false
	snap.State.TotalUncertainty = 1.4

	d := makeDecision(snap, config.Defaults())
	assert.Equal(t, 0.0, d.Confidence)
}
