package perception

import (
	"fmt"
	"time"

	"github.com/quantmesh/metaperception/internal/domain/entropy"
	"github.com/quantmesh/metaperception/internal/domain/intent"
	"github.com/quantmesh/metaperception/internal/domain/noise"
	"github.com/quantmesh/metaperception/internal/domain/reflexivity"
	"github.com/quantmesh/metaperception/internal/domain/regime"
	"github.com/quantmesh/metaperception/internal/domain/shock"
	"github.com/quantmesh/metaperception/internal/domain/uncertainty"
)

// Pressure is the dominant market pressure read from participant intent
type Pressure string

const (
	PressureLong    Pressure = "LONG"
	PressureShort   Pressure = "SHORT"
	PressureNeutral Pressure = "NEUTRAL"
	PressureUnknown Pressure = "UNKNOWN"
)

// RiskMode is the recommended risk posture for downstream sizing
type RiskMode string

const (
	RiskModeNormal    RiskMode = "NORMAL"
	RiskModeCautious  RiskMode = "CAUTIOUS"
	RiskModeDefensive RiskMode = "DEFENSIVE"
)

// AlertPriority orders operator alerts
type AlertPriority string

const (
	PriorityLow      AlertPriority = "LOW"
	PriorityMedium   AlertPriority = "MEDIUM"
	PriorityHigh     AlertPriority = "HIGH"
	PriorityCritical AlertPriority = "CRITICAL"
)

// State is the canonical immutable snapshot of what the market feels like
// now. A new instance is produced every cycle; it is never mutated after
// construction. ShouldAct is always derived by the composer from the other
// fields, never set independently.
type State struct {
	Timestamp time.Time `json:"timestamp"`

	MarketEntropy  float64            `json:"market_entropy"` // bits, >= 0
	FeatureEntropy map[string]float64 `json:"feature_entropy"`

	NoiseLevel    float64 `json:"noise_level"`    // [0,1]
	SignalQuality float64 `json:"signal_quality"` // [0,1]

	Intent           intent.Probabilities `json:"intent"`
	DominantPressure Pressure             `json:"dominant_pressure"`

	ReflexivityCoeff float64 `json:"reflexivity_coeff"` // [-1,1]
	SystemImpact     float64 `json:"system_impact"`     // [0,1]

	CurrentRegime    string  `json:"current_regime,omitempty"`
	RegimeConfidence float64 `json:"regime_confidence"` // [0,1]
	RegimeStress     float64 `json:"regime_stress"`     // >= 0
	PivotProbability float64 `json:"pivot_probability"` // [0,1]

	ActiveShocks   []string `json:"active_shocks"`
	ShockIntensity float64  `json:"shock_intensity"` // aggregate, >= 0

	TotalUncertainty float64 `json:"total_uncertainty"` // >= 0
	ShouldAct        bool    `json:"should_act"`
}

// HasActiveShock reports whether the given shock identifier is active
func (s State) HasActiveShock(id string) bool {
	for _, a := range s.ActiveShocks {
		if a == id {
			return true
		}
	}
	return false
}

// Snapshot bundles a State with every component output that produced it, the
// measured computation time, and a deterministic identifier derived from the
// cycle timestamp. This is the artifact handed to external collaborators.
type Snapshot struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	State       State                 `json:"state"`
	Entropy     entropy.Metrics       `json:"entropy"`
	Noise       noise.Score           `json:"noise"`
	Intent      intent.Score          `json:"intent"`
	Reflexivity reflexivity.Score     `json:"reflexivity"`
	Shocks      []shock.Event         `json:"shocks"` // full cycle record, resolved included
	Regime      regime.Alert          `json:"regime"`
	Uncertainty uncertainty.Breakdown `json:"uncertainty"`

	ComputeTime    time.Duration `json:"compute_time_ns"`
	BudgetExceeded bool          `json:"budget_exceeded"`
}

// Delta is the signed difference between two consecutive snapshots. It is
// computed only when a prior state exists.
type Delta struct {
	EntropyDelta     float64 `json:"entropy_delta"`
	NoiseDelta       float64 `json:"noise_delta"`
	ReflexivityDelta float64 `json:"reflexivity_delta"`

	IntentShift intent.Probabilities `json:"intent_shift"`

	RegimeChanged  bool   `json:"regime_changed"`
	PreviousRegime string `json:"previous_regime,omitempty"`
	CurrentRegime  string `json:"current_regime,omitempty"`

	NewShocks      []shock.Event `json:"new_shocks"`
	ResolvedShocks []string      `json:"resolved_shocks"`

	Priority AlertPriority `json:"priority"`
}

// Decision is the action-facing output derived from the composed state
type Decision struct {
	ID         string `json:"id"`
	SnapshotID string `json:"snapshot_id"`

	ShouldAct  bool     `json:"should_act"`
	Confidence float64  `json:"confidence"`
	RiskMode   RiskMode `json:"risk_mode"`

	// LeverageAdjustment is nil when no override applies
	LeverageAdjustment *float64 `json:"leverage_adjustment,omitempty"`

	AlertOperator bool          `json:"alert_operator"`
	AlertPriority AlertPriority `json:"alert_priority"`

	Rationale  string   `json:"rationale"`
	KeyFactors []string `json:"key_factors"`
}

// PriorDecision is one past decision reduced to its action tag and the market
// return observed after it, used by the reflexivity analyzer
type PriorDecision struct {
	Timestamp        time.Time `json:"timestamp"`
	Action           string    `json:"action"` // "buy", "sell", "neutral"
	SubsequentReturn float64   `json:"subsequent_return"`
}

// Direction reduces the action tag to +1/-1/0
func (d PriorDecision) Direction() int {
	switch d.Action {
	case "buy", "long":
		return 1
	case "sell", "short":
		return -1
	default:
		return 0
	}
}

// Input bundles everything one cycle consumes. All inputs are fully
// materialized before the orchestrator runs; the core assumes validated,
// numeric, finite values.
type Input struct {
	Timestamp       time.Time            `json:"timestamp"`
	MarketData      map[string][]float64 `json:"market_data"`
	Features        map[string]float64   `json:"features"`
	RecentDecisions []PriorDecision      `json:"recent_decisions"`

	// Pass-through context for external collaborators, unused by this core
	Portfolio  map[string]any `json:"portfolio,omitempty"`
	Governance map[string]any `json:"governance,omitempty"`
}

// Output bundles the cycle artifacts handed to external collaborators.
// ArtifactRefs is populated by the persistence collaborator, not by the core.
type Output struct {
	Snapshot     Snapshot          `json:"snapshot"`
	Delta        *Delta            `json:"delta,omitempty"`
	Decision     Decision          `json:"decision"`
	ArtifactRefs map[string]string `json:"artifact_refs"`
	ComputeTime  time.Duration     `json:"compute_time_ns"`
}

// SnapshotID derives the deterministic snapshot identifier from the cycle
// timestamp
func SnapshotID(ts time.Time) string {
	return fmt.Sprintf("snap-%s", ts.UTC().Format("20060102T150405.000000000"))
}

// DecisionID derives the decision identifier from its snapshot and timestamp
func DecisionID(snapshotID string, ts time.Time) string {
	return fmt.Sprintf("%s-dec-%d", snapshotID, ts.UTC().UnixNano())
}
