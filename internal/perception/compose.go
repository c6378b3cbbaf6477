package perception

import (
	"sort"
	"time"

	"github.com/quantmesh/metaperception/internal/config"
	"github.com/quantmesh/metaperception/internal/domain/entropy"
	"github.com/quantmesh/metaperception/internal/domain/intent"
	"github.com/quantmesh/metaperception/internal/domain/noise"
	"github.com/quantmesh/metaperception/internal/domain/reflexivity"
	"github.com/quantmesh/metaperception/internal/domain/regime"
	"github.com/quantmesh/metaperception/internal/domain/shock"
	"github.com/quantmesh/metaperception/internal/domain/uncertainty"
)

// maxImpactBps mirrors the reflexivity cap for system-impact normalization
const maxImpactBps = 5.0

// composeState builds the new immutable State from all component outputs and
// the previous state (used only for regime continuity). ShouldAct is computed
// here and nowhere else: a strict AND over four independent guards. Any single
// failing guard blocks action.
func composeState(
	prev *State,
	ts time.Time,
	ent entropy.Metrics,
	ns noise.Score,
	it intent.Score,
	refl reflexivity.Score,
	shocks []shock.Event,
	reg regime.Alert,
	unc uncertainty.Breakdown,
	cfg config.Config,
) State {
	active := make([]string, 0, len(shocks))
	aggregate := 0.0
	critical := false
	for _, ev := range shocks {
		if ev.Resolved {
			// Resolved shocks stay in the cycle record for audit but do
			// not contribute to the active set
			continue
		}
		active = append(active, ev.ID)
		aggregate += ev.Intensity
		if ev.Severity == shock.SeverityCritical {
			critical = true
		}
	}
	sort.Strings(active)

	currentRegime, confidence := regimeContinuity(prev, reg)

	shouldAct := ns.Acceptable &&
		unc.Total < cfg.Thresholds.Uncertainty &&
		!reg.PivotDetected &&
		!critical

	return State{
		Timestamp:        ts,
		MarketEntropy:    ent.MarketEntropy,
		FeatureEntropy:   ent.FeatureEntropy,
		NoiseLevel:       ns.NoiseLevel,
		SignalQuality:    ns.SignalQuality,
		Intent:           it.Probabilities,
		DominantPressure: dominantPressure(it),
		ReflexivityCoeff: refl.Coefficient,
		SystemImpact:     refl.ImpactBps / maxImpactBps,
		CurrentRegime:    currentRegime,
		RegimeConfidence: confidence,
		RegimeStress:     reg.Stress,
		PivotProbability: reg.PivotProbability,
		ActiveShocks:     active,
		ShockIntensity:   aggregate,
		TotalUncertainty: unc.Total,
		ShouldAct:        shouldAct,
	}
}

// regimeContinuity carries the previous regime label forward unless a pivot
// was detected this cycle
func regimeContinuity(prev *State, reg regime.Alert) (string, float64) {
	if reg.PivotDetected {
		return reg.ExpectedRegime, reg.PivotProbability
	}
	if prev != nil {
		return prev.CurrentRegime, 1.0 - reg.PivotProbability
	}
	return "", 1.0 - reg.PivotProbability
}

// dominantPressure maps the intent arg-max onto market pressure; without any
// intent features the pressure is unknowable
func dominantPressure(it intent.Score) Pressure {
	if !it.FeaturesPresent {
		return PressureUnknown
	}
	switch it.Dominant {
	case intent.HypothesisLong:
		return PressureLong
	case intent.HypothesisShort:
		return PressureShort
	case intent.HypothesisNeutral:
		return PressureNeutral
	default:
		return PressureUnknown
	}
}
