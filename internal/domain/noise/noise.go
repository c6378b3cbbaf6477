package noise

// Band classifies aggregate noise into interpretation bands
type Band string

const (
	BandClean        Band = "CLEAN"
	BandNormal       Band = "NORMAL"
	BandNoisy        Band = "NOISY"
	BandExtremeNoise Band = "EXTREME_NOISE"
)

// Score holds the noise evaluation result for one cycle
type Score struct {
	NoiseLevel     float64            `json:"noise_level"`    // [0,1] mean across features
	SignalQuality  float64            `json:"signal_quality"` // 1 - noise
	PerFeature     map[string]float64 `json:"per_feature"`    // raw inputs for audit
	Interpretation Band               `json:"interpretation"`
	Threshold      float64            `json:"threshold"`
	Acceptable     bool               `json:"acceptable"` // gates whether the system may act at all
}

// Evaluate decomposes each feature series into a moving-average trend and a
// residual, scores the residual/trend variance ratio normalized to [0,1], and
// aggregates by mean. Features with fewer than 2 points are skipped; with no
// qualifying series the market is treated as noiseless.
func Evaluate(series map[string][]float64, window int, threshold float64) Score {
	if window < 2 {
		window = 5
	}

	s := Score{
		PerFeature: make(map[string]float64),
		Threshold:  threshold,
	}

	sum := 0.0
	count := 0
	for name, values := range series {
		if len(values) < 2 {
			continue
		}
		n := seriesNoise(values, window)
		s.PerFeature[name] = n
		sum += n
		count++
	}

	if count > 0 {
		s.NoiseLevel = sum / float64(count)
	}
	s.SignalQuality = 1.0 - s.NoiseLevel
	s.Interpretation = Classify(s.NoiseLevel)
	s.Acceptable = s.NoiseLevel < threshold
	return s
}

// Classify maps a noise level to its interpretation band
func Classify(level float64) Band {
	switch {
	case level < 0.2:
		return BandClean
	case level < 0.5:
		return BandNormal
	case level < 0.8:
		return BandNoisy
	default:
		return BandExtremeNoise
	}
}

// seriesNoise computes the normalized residual-to-trend variance ratio for a
// single series: ratio/(1+ratio), bounded to [0,1]
func seriesNoise(values []float64, window int) float64 {
	trend := movingAverage(values, window)
	residual := make([]float64, len(values))
	for i := range values {
		residual[i] = values[i] - trend[i]
	}

	trendVar := variance(trend)
	residVar := variance(residual)

	if trendVar == 0 {
		if residVar == 0 {
			return 0
		}
		// All variation is residual
		return 1
	}

	ratio := residVar / trendVar
	return ratio / (1.0 + ratio)
}

// movingAverage computes a trailing moving average with a shortened window at
// the start of the series
func movingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
			out[i] = sum / float64(window)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}

// variance computes population variance
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return sq / float64(len(values))
}
