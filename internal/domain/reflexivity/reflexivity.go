package reflexivity

import (
	"math"
)

// Feedback classifies the strength of the self-impact loop
type Feedback string

const (
	FeedbackNone     Feedback = "NONE"
	FeedbackWeak     Feedback = "WEAK"
	FeedbackModerate Feedback = "MODERATE"
	FeedbackStrong   Feedback = "STRONG"
)

// Feedback cut points on |coefficient|
const (
	weakCutoff     = 0.1
	moderateCutoff = 0.3
	strongCutoff   = 0.6
)

// maxImpactBps caps the linear market-impact estimate
const maxImpactBps = 5.0

// DecisionPoint pairs one past decision (reduced to +1/-1/0) with the market
// return that followed it
type DecisionPoint struct {
	Direction int     `json:"direction"`
	Return    float64 `json:"return"`
}

// Score holds the reflexivity analysis result for one cycle
type Score struct {
	Coefficient float64  `json:"coefficient"` // [-1,1] Pearson correlation
	ImpactBps   float64  `json:"impact_bps"`  // estimated self-impact, capped
	Feedback    Feedback `json:"feedback"`
	SampleSize  int      `json:"sample_size"`
}

// Analyze correlates past decision directions with subsequent market returns.
// Fewer than 2 decisions or zero-variance inputs yield a neutral zero-impact
// result rather than an error.
func Analyze(points []DecisionPoint) Score {
	if len(points) < 2 {
		return Score{Feedback: FeedbackNone, SampleSize: len(points)}
	}

	directions := make([]float64, len(points))
	returns := make([]float64, len(points))
	for i, p := range points {
		directions[i] = float64(sign(p.Direction))
		returns[i] = p.Return
	}

	coef := pearson(directions, returns)
	if coef > 1 {
		coef = 1
	} else if coef < -1 {
		coef = -1
	}

	abs := math.Abs(coef)
	impact := abs * maxImpactBps
	if impact > maxImpactBps {
		impact = maxImpactBps
	}

	return Score{
		Coefficient: coef,
		ImpactBps:   impact,
		Feedback:    classify(abs),
		SampleSize:  len(points),
	}
}

// classify buckets |coefficient| into feedback strength
func classify(abs float64) Feedback {
	switch {
	case abs < weakCutoff:
		return FeedbackNone
	case abs < moderateCutoff:
		return FeedbackWeak
	case abs < strongCutoff:
		return FeedbackModerate
	default:
		return FeedbackStrong
	}
}

// pearson computes the correlation coefficient, returning 0 for
// zero-variance inputs
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	meanX, meanY := mean(x), mean(y)

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}
	return (cov / n) / (math.Sqrt(varX/n) * math.Sqrt(varY/n))
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sign(d int) int {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	default:
		return 0
	}
}
