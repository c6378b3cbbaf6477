package override

import (
	"fmt"
	"time"

	"github.com/quantmesh/metaperception/internal/config"
	"github.com/quantmesh/metaperception/internal/domain/shock"
	"github.com/quantmesh/metaperception/internal/perception"
)

// Trigger classifies which guard blocked a decision. The checks are mutually
// exclusive by priority in this exact order; downstream audit tooling relies
// on that ordering.
type Trigger string

const (
	TriggerHighNoise       Trigger = "HIGH_NOISE"
	TriggerHighUncertainty Trigger = "HIGH_UNCERTAINTY"
	TriggerRegimePivot     Trigger = "REGIME_PIVOT"
	TriggerCriticalShock   Trigger = "CRITICAL_SHOCK"
	TriggerLowConfidence   Trigger = "LOW_CONFIDENCE"
)

// defaultCapitalPerTradeUSD is the notional assumed prevented per blocked trade
const defaultCapitalPerTradeUSD = 250_000.0

// Record is the persisted audit trail for one blocked cycle
type Record struct {
	ID         string    `json:"id"`
	SnapshotID string    `json:"snapshot_id"`
	DecisionID string    `json:"decision_id"`
	Timestamp  time.Time `json:"timestamp"`

	Trigger             Trigger `json:"trigger"`
	PreventedTrades     int     `json:"prevented_trades"`
	PreventedCapitalUSD float64 `json:"prevented_capital_usd"`
	Details             string  `json:"details"`
}

// Detector classifies blocking decisions and estimates prevented activity
type Detector struct {
	capitalPerTradeUSD float64
}

// NewDetector creates a detector with the default capital estimate
func NewDetector() *Detector {
	return &Detector{capitalPerTradeUSD: defaultCapitalPerTradeUSD}
}

// Inspect examines a cycle output and produces an override record when the
// decision blocked action. Returns false for acting decisions.
func (d *Detector) Inspect(out perception.Output, cfg config.Config) (Record, bool) {
	if out.Decision.ShouldAct {
		return Record{}, false
	}

	trigger := Classify(out.Snapshot, cfg)
	trades := preventedTrades(out.Snapshot)

	return Record{
		ID:                  fmt.Sprintf("%s-override", out.Decision.ID),
		SnapshotID:          out.Snapshot.ID,
		DecisionID:          out.Decision.ID,
		Timestamp:           out.Snapshot.Timestamp,
		Trigger:             trigger,
		PreventedTrades:     trades,
		PreventedCapitalUSD: float64(trades) * d.capitalPerTradeUSD,
		Details:             out.Decision.Rationale,
	}, true
}

// Classify determines the blocking trigger. Checks run in fixed priority
// order: noise, uncertainty, pivot, critical shock; LOW_CONFIDENCE is the
// fallback for records that blocked without any guard firing.
func Classify(snap perception.Snapshot, cfg config.Config) Trigger {
	switch {
	case !snap.Noise.Acceptable:
		return TriggerHighNoise
	case snap.State.TotalUncertainty >= cfg.Thresholds.Uncertainty:
		return TriggerHighUncertainty
	case snap.Regime.PivotDetected:
		return TriggerRegimePivot
	case hasUnresolvedCritical(snap.Shocks):
		return TriggerCriticalShock
	default:
		return TriggerLowConfidence
	}
}

// preventedTrades estimates how many trades the block suppressed: one base
// entry plus one per active critical shock
func preventedTrades(snap perception.Snapshot) int {
	n := 1
	for _, e := range snap.Shocks {
		if !e.Resolved && e.Severity == shock.SeverityCritical {
			n++
		}
	}
	return n
}

func hasUnresolvedCritical(events []shock.Event) bool {
	for _, e := range events {
		if !e.Resolved && e.Severity == shock.SeverityCritical {
			return true
		}
	}
	return false
}
