package perception

import (
	"fmt"
	"strings"

	"github.com/quantmesh/metaperception/internal/config"
	"github.com/quantmesh/metaperception/internal/domain/regime"
	"github.com/quantmesh/metaperception/internal/domain/shock"
)

// Leverage override multipliers
const (
	blockedLeverage     = 0.5
	uncertainLeverage   = 0.7
	leverageUncertainty = 0.7 // uncertainty level that triggers the 0.7x override
)

// Risk posture thresholds
const (
	defensiveStress = 1.5
	cautiousStress  = 0.8
	cautiousNoise   = 0.6
)

// makeDecision converts the composed state plus the cycle's shocks and regime
// alert into the externally consumed decision. Every blocking decision carries
// a non-empty rationale and key-factor list so downstream auditing never has
// to re-derive the computation.
func makeDecision(snap Snapshot, cfg config.Config) Decision {
	st := snap.State
	critical := hasUnresolvedCritical(snap.Shocks)

	d := Decision{
		ID:         DecisionID(snap.ID, snap.Timestamp),
		SnapshotID: snap.ID,
		ShouldAct:  st.ShouldAct,
		Confidence: clamp01(1.0 - st.TotalUncertainty),
		RiskMode:   riskMode(st, critical),
	}

	if !st.ShouldAct {
		lev := blockedLeverage
		d.LeverageAdjustment = &lev
	} else if st.TotalUncertainty > leverageUncertainty {
		lev := uncertainLeverage
		d.LeverageAdjustment = &lev
	}

	d.AlertOperator = !st.ShouldAct || critical || snap.Regime.Level == regime.LevelCritical
	switch {
	case !st.ShouldAct:
		d.AlertPriority = PriorityCritical
	case d.AlertOperator:
		d.AlertPriority = PriorityHigh
	default:
		d.AlertPriority = PriorityLow
	}

	d.Rationale, d.KeyFactors = explain(snap, cfg, critical)
	return d
}

// riskMode recommends the posture independent of the act/no-act gate
func riskMode(st State, criticalShock bool) RiskMode {
	switch {
	case st.RegimeStress > defensiveStress || criticalShock:
		return RiskModeDefensive
	case st.NoiseLevel > cautiousNoise || st.RegimeStress > cautiousStress:
		return RiskModeCautious
	default:
		return RiskModeNormal
	}
}

// explain assembles the ordered list of triggering conditions when blocking,
// or a standard status line otherwise
func explain(snap Snapshot, cfg config.Config, critical bool) (string, []string) {
	st := snap.State

	if st.ShouldAct {
		rationale := fmt.Sprintf(
			"all guards passed: noise %.3f below %.3f, uncertainty %.3f below %.3f, no regime pivot, no critical shocks",
			st.NoiseLevel, cfg.Thresholds.Noise,
			st.TotalUncertainty, cfg.Thresholds.Uncertainty,
		)
		return rationale, []string{"guards_passed"}
	}

	var reasons []string
	var factors []string

	if !snap.Noise.Acceptable {
		reasons = append(reasons, fmt.Sprintf(
			"noise level %.3f at or above threshold %.3f", st.NoiseLevel, cfg.Thresholds.Noise))
		factors = append(factors, "high_noise")
	}
	if st.TotalUncertainty >= cfg.Thresholds.Uncertainty {
		reasons = append(reasons, fmt.Sprintf(
			"total uncertainty %.3f at or above threshold %.3f", st.TotalUncertainty, cfg.Thresholds.Uncertainty))
		factors = append(factors, "high_uncertainty")
	}
	if snap.Regime.PivotDetected {
		reasons = append(reasons, fmt.Sprintf(
			"regime pivot detected: stress %.3f, expected regime %s", st.RegimeStress, snap.Regime.ExpectedRegime))
		factors = append(factors, "regime_pivot")
	}
	if critical {
		reasons = append(reasons, fmt.Sprintf(
			"%d critical shock(s) active", countUnresolvedCritical(snap.Shocks)))
		factors = append(factors, "critical_shock")
	}

	if len(reasons) == 0 {
		// ShouldAct false always has a cause; guard against a composer drift
		reasons = append(reasons, "action blocked by perception guards")
		factors = append(factors, "blocked")
	}
	return "blocked: " + strings.Join(reasons, "; "), factors
}

func hasUnresolvedCritical(events []shock.Event) bool {
	return countUnresolvedCritical(events) > 0
}

func countUnresolvedCritical(events []shock.Event) int {
	n := 0
	for _, e := range events {
		if !e.Resolved && e.Severity == shock.SeverityCritical {
			n++
		}
	}
	return n
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
