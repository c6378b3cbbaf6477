package regime

import (
	"math"
)

// Level is the alert escalation level for regime stress
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWatch    Level = "WATCH"
	LevelWarning  Level = "WARNING"
	LevelCritical Level = "CRITICAL"
)

// Expected regime labels when a pivot is detected
const (
	RegimeCrisis  = "CRISIS"
	RegimeBull    = "BULL"
	RegimeBear    = "BEAR"
	RegimeNeutral = "NEUTRAL"
)

// Leading indicator keys consumed from the scalar feature map
const (
	IndicatorVolAcceleration = "volatility_acceleration"
	IndicatorCorrInstability = "correlation_instability"
	IndicatorLiquidityStress = "liquidity_stress"
	IndicatorFlowDivergence  = "flow_divergence"
	IndicatorEntropySpike    = "entropy_spike"
)

// Fixed stress weights per indicator
var indicatorWeights = []struct {
	Name   string
	Weight float64
}{
	{IndicatorVolAcceleration, 0.30},
	{IndicatorCorrInstability, 0.25},
	{IndicatorLiquidityStress, 0.20},
	{IndicatorFlowDivergence, 0.15},
	{IndicatorEntropySpike, 0.10},
}

// Alert level cut points on stress
const (
	criticalStress = 2.0
	watchStress    = 0.7
)

// sigmoidSteepness multiplies the stress distance from threshold in the pivot
// probability sigmoid
const sigmoidSteepness = 5.0

// Indicator records one leading indicator's contribution for audit
type Indicator struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Alert holds the regime-pivot detection result for one cycle
type Alert struct {
	Stress           float64     `json:"stress"`
	Threshold        float64     `json:"threshold"`
	PivotDetected    bool        `json:"pivot_detected"`
	PivotProbability float64     `json:"pivot_probability"`
	ExpectedRegime   string      `json:"expected_regime,omitempty"`
	Level            Level       `json:"level"`
	Indicators       []Indicator `json:"indicators"`
}

// Detect combines the five pre-normalized leading indicators into a weighted
// stress score and a sigmoid pivot probability centered on the threshold.
// Missing indicators contribute zero stress.
func Detect(features map[string]float64, stressThreshold float64) Alert {
	if stressThreshold <= 0 {
		stressThreshold = 1.0
	}

	indicators := make([]Indicator, 0, len(indicatorWeights))
	stress := 0.0
	for _, iw := range indicatorWeights {
		v := features[iw.Name]
		c := v * iw.Weight
		stress += c
		indicators = append(indicators, Indicator{
			Name:         iw.Name,
			Value:        v,
			Weight:       iw.Weight,
			Contribution: c,
		})
	}
	if stress < 0 {
		stress = 0
	}

	detected := stress >= stressThreshold
	alert := Alert{
		Stress:           stress,
		Threshold:        stressThreshold,
		PivotDetected:    detected,
		PivotProbability: pivotProbability(stress, stressThreshold),
		Level:            classifyLevel(stress, stressThreshold),
		Indicators:       indicators,
	}
	if detected {
		alert.ExpectedRegime = expectedRegime(
			features[IndicatorVolAcceleration],
			features[IndicatorFlowDivergence],
		)
	}
	return alert
}

// pivotProbability is a sigmoid centered on the stress threshold
func pivotProbability(stress, threshold float64) float64 {
	return 1.0 / (1.0 + math.Exp(-sigmoidSteepness*(stress-threshold)))
}

// classifyLevel escalates the alert level with stress
func classifyLevel(stress, threshold float64) Level {
	switch {
	case stress >= criticalStress:
		return LevelCritical
	case stress >= threshold:
		return LevelWarning
	case stress >= watchStress:
		return LevelWatch
	default:
		return LevelInfo
	}
}

// expectedRegime derives the post-pivot regime label from indicator signs
func expectedRegime(volAccel, flowDivergence float64) string {
	switch {
	case volAccel > 1.5 && flowDivergence < -0.5:
		return RegimeCrisis
	case volAccel < 0.5 && flowDivergence > 0:
		return RegimeBull
	case volAccel > 1.0:
		return RegimeBear
	default:
		return RegimeNeutral
	}
}
