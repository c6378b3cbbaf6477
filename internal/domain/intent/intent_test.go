package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfer_ProbabilitiesSumToOne(t *testing.T) {
	w := DefaultWeights()

	cases := []map[string]float64{
		{},
		{FeatureOIChange: 0.03, FeatureFundingRate: 0.0001, FeatureWhaleFlow: 2e7},
		{FeatureOIChange: -0.2, FeatureFundingRate: -0.05, FeatureWhaleFlow: -5e8, FeatureFuturesBasis: -0.1, FeaturePutCallRatio: 2.5},
		{FeatureOIChange: 1e6, FeatureFundingRate: 1e3, FeatureWhaleFlow: 1e12, FeatureFuturesBasis: 1e4, FeaturePutCallRatio: -1e5},
		{FeaturePutCallRatio: 1.0},
	}

	for i, features := range cases {
		s := Infer(features, w)
		assert.InDelta(t, 1.0, s.Probabilities.Sum(), 1e-6, "case %d", i)
	}
}

func TestInfer_BullishFeatures(t *testing.T) {
	s := Infer(map[string]float64{
		FeatureOIChange:     0.08,
		FeatureFundingRate:  -0.002,
		FeatureWhaleFlow:    1.2e8,
		FeatureFuturesBasis: 0.03,
		FeaturePutCallRatio: 0.6,
	}, DefaultWeights())

	assert.Equal(t, HypothesisLong, s.Dominant)
	assert.Greater(t, s.Probabilities.Long, s.Probabilities.Short)
	assert.Equal(t, s.Probabilities.Long, s.Strength)
	assert.True(t, s.FeaturesPresent)
}

func TestInfer_BearishFeatures(t *testing.T) {
	s := Infer(map[string]float64{
		FeatureOIChange:     -0.08,
		FeatureFundingRate:  0.002,
		FeatureWhaleFlow:    -1.2e8,
		FeatureFuturesBasis: -0.03,
		FeaturePutCallRatio: 1.8,
	}, DefaultWeights())

	assert.Equal(t, HypothesisShort, s.Dominant)
	assert.Greater(t, s.Probabilities.Short, s.Probabilities.Long)
}

func TestInfer_NoFeaturesIsUniformAndFlagged(t *testing.T) {
	s := Infer(map[string]float64{}, DefaultWeights())

	assert.False(t, s.FeaturesPresent)
	assert.InDelta(t, 1.0/3.0, s.Probabilities.Long, 1e-9)
	assert.InDelta(t, 1.0/3.0, s.Probabilities.Short, 1e-9)
	assert.InDelta(t, 1.0/3.0, s.Probabilities.Neutral, 1e-9)
	assert.Equal(t, HypothesisNeutral, s.Dominant, "exact ties resolve to neutral")
}

func TestInfer_ExtremeInputsStayFinite(t *testing.T) {
	s := Infer(map[string]float64{
		FeatureOIChange:     1e9,
		FeatureFundingRate:  -1e9,
		FeatureWhaleFlow:    1e15,
		FeatureFuturesBasis: 1e9,
		FeaturePutCallRatio: 1e9,
	}, DefaultWeights())

	require.InDelta(t, 1.0, s.Probabilities.Sum(), 1e-6)
	assert.GreaterOrEqual(t, s.Strength, 1.0/3.0)
}

func TestClassifyParticipant(t *testing.T) {
	tests := []struct {
		flow float64
		want ParticipantType
	}{
		{0, ParticipantUnknown},
		{9e6, ParticipantUnknown},
		{1e7, ParticipantInstitutional},
		{-5e7, ParticipantInstitutional},
		{1e8, ParticipantWhale},
		{-3e8, ParticipantWhale},
	}
	for _, tt := range tests {
		s := Infer(map[string]float64{FeatureWhaleFlow: tt.flow}, DefaultWeights())
		assert.Equal(t, tt.want, s.Participant, "flow=%.0f", tt.flow)
	}
}

func TestProbabilities_Shift(t *testing.T) {
	prev := Probabilities{Long: 0.5, Short: 0.3, Neutral: 0.2}
	cur := Probabilities{Long: 0.2, Short: 0.6, Neutral: 0.2}

	shift := cur.Shift(prev)
	assert.InDelta(t, -0.3, shift.Long, 1e-12)
	assert.InDelta(t, 0.3, shift.Short, 1e-12)
	assert.InDelta(t, 0.0, shift.Neutral, 1e-12)
}
