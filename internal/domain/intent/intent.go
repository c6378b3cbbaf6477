package intent

import (
	"math"
)

// Hypothesis identifies one of the three participant-intent classes
type Hypothesis string

const (
	HypothesisLong    Hypothesis = "LONG"
	HypothesisShort   Hypothesis = "SHORT"
	HypothesisNeutral Hypothesis = "NEUTRAL"
)

// ParticipantType is a coarse classification of the dominant actor size
type ParticipantType string

const (
	ParticipantWhale         ParticipantType = "WHALE"
	ParticipantInstitutional ParticipantType = "INSTITUTIONAL"
	ParticipantUnknown       ParticipantType = "UNKNOWN"
)

// Notional thresholds for participant classification (USD)
const (
	whaleNotional         = 100e6
	institutionalNotional = 10e6
)

// Feature keys consumed from the scalar feature map
const (
	FeatureOIChange     = "oi_change"
	FeatureFundingRate  = "funding_rate"
	FeatureWhaleFlow    = "whale_flow"
	FeatureFuturesBasis = "futures_basis"
	FeaturePutCallRatio = "put_call_ratio"
)

// featureOrder fixes the position of each feature in the logit dot product
var featureOrder = []string{
	FeatureOIChange,
	FeatureFundingRate,
	FeatureWhaleFlow,
	FeatureFuturesBasis,
	FeaturePutCallRatio,
}

// Rescaling constants bringing each raw feature into a comparable range
var featureScales = map[string]float64{
	FeatureOIChange:     0.05, // 5% OI change saturates
	FeatureFundingRate:  0.01, // 1% funding saturates
	FeatureWhaleFlow:    5e7,  // $50M net flow saturates
	FeatureFuturesBasis: 0.02, // 2% basis saturates
	FeaturePutCallRatio: 0.5,  // distance from 1.0 ratio
}

// Weights holds the pre-calibrated logit weights per hypothesis, one weight
// per feature in featureOrder position. These are configuration, not state.
type Weights struct {
	Long    []float64 `yaml:"long" json:"long"`
	Short   []float64 `yaml:"short" json:"short"`
	Neutral []float64 `yaml:"neutral" json:"neutral"`
}

// DefaultWeights returns the canonical calibration
func DefaultWeights() Weights {
	return Weights{
		Long:    []float64{0.8, -0.6, 0.9, 0.5, 0.7},
		Short:   []float64{-0.8, 0.6, -0.9, -0.5, -0.7},
		Neutral: []float64{0.0, 0.0, 0.0, 0.0, 0.0},
	}
}

// Probabilities is the enumerated-key intent probability record. All three
// classes are always present and sum to 1 for any finite input.
type Probabilities struct {
	Long    float64 `json:"long"`
	Short   float64 `json:"short"`
	Neutral float64 `json:"neutral"`
}

// Sum returns the probability total (1 up to floating point error)
func (p Probabilities) Sum() float64 {
	return p.Long + p.Short + p.Neutral
}

// Shift returns the signed per-category difference p - prev
func (p Probabilities) Shift(prev Probabilities) Probabilities {
	return Probabilities{
		Long:    p.Long - prev.Long,
		Short:   p.Short - prev.Short,
		Neutral: p.Neutral - prev.Neutral,
	}
}

// Dominant returns the arg-max hypothesis and its probability. Ties resolve
// to NEUTRAL, then LONG, then SHORT.
func (p Probabilities) Dominant() (Hypothesis, float64) {
	best, strength := HypothesisNeutral, p.Neutral
	if p.Long > strength {
		best, strength = HypothesisLong, p.Long
	}
	if p.Short > strength {
		best, strength = HypothesisShort, p.Short
	}
	return best, strength
}

// Score holds the intent inference result for one cycle
type Score struct {
	Probabilities   Probabilities      `json:"probabilities"`
	Dominant        Hypothesis         `json:"dominant"`
	Strength        float64            `json:"strength"`
	Participant     ParticipantType    `json:"participant"`
	RawFeatures     map[string]float64 `json:"raw_features"` // audit inputs
	FeaturesPresent bool               `json:"features_present"`
}

// Infer runs the closed-form Bayesian-style classifier: scaled feature vector,
// fixed per-hypothesis logit dot products, numerically stable softmax. Missing
// features contribute zero; with no intent features present the result is the
// uniform prior flagged FeaturesPresent=false.
func Infer(features map[string]float64, w Weights) Score {
	raw := make(map[string]float64, len(featureOrder))
	scaled := make([]float64, len(featureOrder))
	present := false

	for i, key := range featureOrder {
		v, ok := features[key]
		raw[key] = v
		if !ok {
			// A missing feature must contribute nothing to the logits; the
			// put/call rescale is centered on parity, so rescaling its zero
			// value would inject a phantom signal
			continue
		}
		present = true
		scaled[i] = rescale(key, v)
	}

	logits := [3]float64{
		dot(w.Long, scaled),
		dot(w.Short, scaled),
		dot(w.Neutral, scaled),
	}
	probs := softmax(logits)

	p := Probabilities{Long: probs[0], Short: probs[1], Neutral: probs[2]}
	dominant, strength := p.Dominant()

	return Score{
		Probabilities:   p,
		Dominant:        dominant,
		Strength:        strength,
		Participant:     classifyParticipant(raw[FeatureWhaleFlow]),
		RawFeatures:     raw,
		FeaturesPresent: present,
	}
}

// rescale brings one raw feature into a bounded comparable range via tanh
func rescale(key string, value float64) float64 {
	scale := featureScales[key]
	if key == FeaturePutCallRatio {
		// Ratio above 1.0 is bearish; center on parity
		return math.Tanh((1.0 - value) / scale)
	}
	return math.Tanh(value / scale)
}

func dot(weights, features []float64) float64 {
	sum := 0.0
	for i := 0; i < len(weights) && i < len(features); i++ {
		sum += weights[i] * features[i]
	}
	return sum
}

// softmax computes a numerically stable softmax over the three logits
func softmax(logits [3]float64) [3]float64 {
	max := logits[0]
	for _, l := range logits[1:] {
		if l > max {
			max = l
		}
	}

	var exps [3]float64
	sum := 0.0
	for i, l := range logits {
		exps[i] = math.Exp(l - max)
		sum += exps[i]
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

// classifyParticipant buckets absolute whale-flow notional
func classifyParticipant(whaleFlow float64) ParticipantType {
	abs := math.Abs(whaleFlow)
	switch {
	case abs >= whaleNotional:
		return ParticipantWhale
	case abs >= institutionalNotional:
		return ParticipantInstitutional
	default:
		return ParticipantUnknown
	}
}
