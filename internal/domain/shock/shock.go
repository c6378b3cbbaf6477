package shock

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Severity buckets shock intensity
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Severity cut points on normalized intensity (3-sigma = 1.0)
const (
	mediumIntensity   = 1.0
	highIntensity     = 2.0
	criticalIntensity = 5.0
)

// Type classifies a shock by the semantic meaning of its source feature
type Type string

const (
	TypeFunding      Type = "FUNDING_SHOCK"
	TypeOpenInterest Type = "OPEN_INTEREST_SHOCK"
	TypeFlow         Type = "FLOW_SHOCK"
	TypeCorrelation  Type = "CORRELATION_SHOCK"
	TypeEntropy      Type = "ENTROPY_SHOCK"
	TypeUnknown      Type = "UNKNOWN_SHOCK"
)

// Direction is the expected price direction relative to the series mean
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
	DirectionFlat Direction = "FLAT"
)

// minPointsDefault is the minimum series length for outlier statistics
const minPointsDefault = 10

// Event is a single statistical outlier in one feature's time series
type Event struct {
	ID        string    `json:"id"`
	Feature   string    `json:"feature"`
	Index     int       `json:"index"`
	Value     float64   `json:"value"` // raw observation for audit
	ZScore    float64   `json:"z_score"`
	Intensity float64   `json:"intensity"` // |z|/3, so 3-sigma = 1.0
	Severity  Severity  `json:"severity"`
	Type      Type      `json:"type"`
	Direction Direction `json:"direction"`
	Resolved  bool      `json:"resolved"`
}

// Resolve returns a resolved copy of the event
func (e Event) Resolve() Event {
	e.Resolved = true
	return e
}

// Detect flags z-score outliers per feature as discrete shock events. Features
// with fewer than minPoints observations or zero variance are skipped. Events
// are returned sorted by descending intensity with deterministic tie-breaks.
// No de-duplication is performed across features: two features spiking at the
// same index produce two independent events.
func Detect(series map[string][]float64, sigmaThreshold float64, minPoints int) []Event {
	if sigmaThreshold <= 0 {
		sigmaThreshold = 3.0
	}
	if minPoints <= 0 {
		minPoints = minPointsDefault
	}

	var events []Event
	for feature, values := range series {
		if len(values) < minPoints {
			continue
		}

		m := mean(values)
		sd := stddev(values, m)
		if sd == 0 {
			continue
		}

		for i, v := range values {
			z := (v - m) / sd
			if math.Abs(z) < sigmaThreshold {
				continue
			}
			events = append(events, Event{
				ID:        fmt.Sprintf("%s:%d", feature, i),
				Feature:   feature,
				Index:     i,
				Value:     v,
				ZScore:    z,
				Intensity: math.Abs(z) / 3.0,
				Severity:  ClassifySeverity(math.Abs(z) / 3.0),
				Type:      classifyType(feature),
				Direction: direction(v, m),
			})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Intensity != events[j].Intensity {
			return events[i].Intensity > events[j].Intensity
		}
		if events[i].Feature != events[j].Feature {
			return events[i].Feature < events[j].Feature
		}
		return events[i].Index < events[j].Index
	})
	return events
}

// ClassifySeverity buckets normalized intensity
func ClassifySeverity(intensity float64) Severity {
	switch {
	case intensity < mediumIntensity:
		return SeverityLow
	case intensity < highIntensity:
		return SeverityMedium
	case intensity < criticalIntensity:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// HasCritical reports whether any event in the slice is CRITICAL severity
func HasCritical(events []Event) bool {
	for _, e := range events {
		if e.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// classifyType derives the shock type from the feature's semantic name
func classifyType(feature string) Type {
	f := strings.ToLower(feature)
	switch {
	case strings.Contains(f, "funding"):
		return TypeFunding
	case strings.Contains(f, "open_interest") || strings.Contains(f, "oi"):
		return TypeOpenInterest
	case strings.Contains(f, "flow") || strings.Contains(f, "whale"):
		return TypeFlow
	case strings.Contains(f, "corr"):
		return TypeCorrelation
	case strings.Contains(f, "entropy"):
		return TypeEntropy
	default:
		return TypeUnknown
	}
}

func direction(value, mean float64) Direction {
	switch {
	case value > mean:
		return DirectionUp
	case value < mean:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, mean float64) float64 {
	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
