package entropy

import (
	"math"
)

// Band classifies market entropy into interpretation bands
type Band string

const (
	BandLow     Band = "LOW_ENTROPY"
	BandMedium  Band = "MEDIUM_ENTROPY"
	BandHigh    Band = "HIGH_ENTROPY"
	BandExtreme Band = "EXTREME_ENTROPY"
)

// Band cut points in bits
const (
	lowCutoff    = 1.5
	mediumCutoff = 3.0
	highCutoff   = 4.5
)

// smoothingAlpha avoids zero probabilities in the empirical distribution
const smoothingAlpha = 1e-9

// Metrics holds the entropy computation result for one cycle
type Metrics struct {
	MarketEntropy  float64            `json:"market_entropy"` // bits, mean across features
	FeatureEntropy map[string]float64 `json:"feature_entropy"`
	SampleCounts   map[string]int     `json:"sample_counts"` // raw inputs for audit
	Bins           int                `json:"bins"`
	Interpretation Band               `json:"interpretation"`
}

// Compute calculates Shannon entropy (bits) per feature and the mean market
// entropy across all features. Features with fewer than 2 points are skipped;
// zero-variance return series yield 0 bits. With no qualifying series the
// result is 0 bits / LOW_ENTROPY.
func Compute(series map[string][]float64, bins int) Metrics {
	if bins <= 0 {
		bins = 10
	}

	m := Metrics{
		FeatureEntropy: make(map[string]float64),
		SampleCounts:   make(map[string]int),
		Bins:           bins,
	}

	sum := 0.0
	count := 0
	for name, values := range series {
		if len(values) < 2 {
			continue
		}
		h := seriesEntropy(values, bins)
		m.FeatureEntropy[name] = h
		m.SampleCounts[name] = len(values)
		sum += h
		count++
	}

	if count > 0 {
		m.MarketEntropy = sum / float64(count)
	}
	m.Interpretation = Classify(m.MarketEntropy)
	return m
}

// Classify maps an entropy value in bits to its interpretation band
func Classify(bits float64) Band {
	switch {
	case bits < lowCutoff:
		return BandLow
	case bits < mediumCutoff:
		return BandMedium
	case bits < highCutoff:
		return BandHigh
	default:
		return BandExtreme
	}
}

// seriesEntropy discretizes the return series into fixed bins and computes
// H = -sum(p*log2(p)) over the smoothed empirical distribution
func seriesEntropy(values []float64, bins int) float64 {
	returns := computeReturns(values)
	if len(returns) == 0 {
		return 0
	}

	min, max := returns[0], returns[0]
	for _, r := range returns[1:] {
		if r < min {
			min = r
		}
		if r > max {
			max = r
		}
	}
	if max == min {
		// Zero-variance returns carry no information
		return 0
	}

	counts := make([]float64, bins)
	width := (max - min) / float64(bins)
	for _, r := range returns {
		idx := int((r - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	n := float64(len(returns)) + smoothingAlpha*float64(bins)
	h := 0.0
	for _, c := range counts {
		p := (c + smoothingAlpha) / n
		h -= p * math.Log2(p)
	}
	return h
}

// computeReturns produces log-returns when the series is strictly positive,
// falling back to first differences for series that cross zero
func computeReturns(values []float64) []float64 {
	positive := true
	for _, v := range values {
		if v <= 0 {
			positive = false
			break
		}
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if positive {
			returns = append(returns, math.Log(values[i]/values[i-1]))
		} else {
			returns = append(returns, values[i]-values[i-1])
		}
	}
	return returns
}
