package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_WeightedStress(t *testing.T) {
	a := Detect(map[string]float64{
		IndicatorVolAcceleration: 1.0,
		IndicatorCorrInstability: 1.0,
		IndicatorLiquidityStress: 1.0,
		IndicatorFlowDivergence:  1.0,
		IndicatorEntropySpike:    1.0,
	}, 1.0)

	assert.InDelta(t, 1.0, a.Stress, 1e-12, "weights sum to 1")
	assert.True(t, a.PivotDetected)
	require.Len(t, a.Indicators, 5)
}

func TestDetect_MissingIndicatorsContributeZero(t *testing.T) {
	a := Detect(map[string]float64{IndicatorVolAcceleration: 2.0}, 1.0)

	assert.InDelta(t, 0.6, a.Stress, 1e-12)
	assert.False(t, a.PivotDetected)
	assert.Empty(t, a.ExpectedRegime, "no expected regime without a pivot")
}

func TestDetect_SigmoidCenteredOnThreshold(t *testing.T) {
	at := Detect(map[string]float64{
		IndicatorVolAcceleration: 1.0,
		IndicatorCorrInstability: 1.0,
		IndicatorLiquidityStress: 1.0,
		IndicatorFlowDivergence:  1.0,
		IndicatorEntropySpike:    1.0,
	}, 1.0)
	assert.InDelta(t, 0.5, at.PivotProbability, 1e-9, "probability is 0.5 exactly at threshold")

	calm := Detect(map[string]float64{}, 1.0)
	assert.Less(t, calm.PivotProbability, 0.05)
}

func TestDetect_AlertLevels(t *testing.T) {
	tests := []struct {
		volAccel float64
		want     Level
	}{
		{0.0, LevelInfo},
		{2.4, LevelWatch},    // stress 0.72
		{3.5, LevelWarning},  // stress 1.05
		{7.0, LevelCritical}, // stress 2.1
	}
	for _, tt := range tests {
		a := Detect(map[string]float64{IndicatorVolAcceleration: tt.volAccel}, 1.0)
		assert.Equal(t, tt.want, a.Level, "volAccel=%.1f stress=%.2f", tt.volAccel, a.Stress)
	}
}

func TestDetect_ExpectedRegimeHeuristics(t *testing.T) {
	crisis := Detect(map[string]float64{
		IndicatorVolAcceleration: 2.5,
		IndicatorCorrInstability: 2.0,
		IndicatorLiquidityStress: 2.0,
		IndicatorFlowDivergence:  -1.5,
	}, 1.0)
	require.True(t, crisis.PivotDetected)
	assert.Equal(t, RegimeCrisis, crisis.ExpectedRegime)

	bull := Detect(map[string]float64{
		IndicatorVolAcceleration: 0.2,
		IndicatorCorrInstability: 2.0,
		IndicatorLiquidityStress: 2.0,
		IndicatorFlowDivergence:  1.5,
		IndicatorEntropySpike:    1.0,
	}, 1.0)
	require.True(t, bull.PivotDetected)
	assert.Equal(t, RegimeBull, bull.ExpectedRegime)

	bear := Detect(map[string]float64{
		IndicatorVolAcceleration: 1.2,
		IndicatorCorrInstability: 2.0,
		IndicatorLiquidityStress: 2.0,
	}, 1.0)
	require.True(t, bear.PivotDetected)
	assert.Equal(t, RegimeBear, bear.ExpectedRegime)

	neutral := Detect(map[string]float64{
		IndicatorVolAcceleration: 0.8,
		IndicatorCorrInstability: 2.0,
		IndicatorLiquidityStress: 2.5,
	}, 1.0)
	require.True(t, neutral.PivotDetected)
	assert.Equal(t, RegimeNeutral, neutral.ExpectedRegime)
}

func TestDetect_NegativeStressClampedToZero(t *testing.T) {
	a := Detect(map[string]float64{IndicatorFlowDivergence: -10.0}, 1.0)
	assert.Equal(t, 0.0, a.Stress)
	assert.Equal(t, LevelInfo, a.Level)
}
