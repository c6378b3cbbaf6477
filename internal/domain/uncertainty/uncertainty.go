package uncertainty

import (
	"math"
)

// Normalization constants for each component
const (
	// maxEntropyBits is the theoretical entropy ceiling used for scaling
	maxEntropyBits = 5.0
	// maxRegimeStress caps the stress contribution
	maxRegimeStress = 2.0
)

// Weights are the non-negative component weights for the aggregate. They need
// not sum to 1, though the canonical default does.
type Weights struct {
	Entropy     float64 `yaml:"entropy" json:"entropy"`
	Noise       float64 `yaml:"noise" json:"noise"`
	Reflexivity float64 `yaml:"reflexivity" json:"reflexivity"`
	Regime      float64 `yaml:"regime" json:"regime"`
}

// DefaultWeights returns the canonical allocation
func DefaultWeights() Weights {
	return Weights{Entropy: 0.3, Noise: 0.3, Reflexivity: 0.2, Regime: 0.2}
}

// Breakdown records each normalized component and the weighted total. The
// total is the single scalar gating system confidence.
type Breakdown struct {
	EntropyComponent     float64 `json:"entropy_component"`
	NoiseComponent       float64 `json:"noise_component"`
	ReflexivityComponent float64 `json:"reflexivity_component"`
	RegimeComponent      float64 `json:"regime_component"`
	Weights              Weights `json:"weights"`
	Total                float64 `json:"total"`
}

// Aggregate normalizes each component to [0,1] and computes the configured
// weighted sum
func Aggregate(entropyBits, noiseLevel, reflexCoeff, regimeStress float64, w Weights) Breakdown {
	b := Breakdown{
		EntropyComponent:     clamp01(entropyBits / maxEntropyBits),
		NoiseComponent:       clamp01(noiseLevel),
		ReflexivityComponent: clamp01(math.Abs(reflexCoeff)),
		RegimeComponent:      clamp01(regimeStress / maxRegimeStress),
		Weights:              w,
	}
	b.Total = w.Entropy*b.EntropyComponent +
		w.Noise*b.NoiseComponent +
		w.Reflexivity*b.ReflexivityComponent +
		w.Regime*b.RegimeComponent
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
