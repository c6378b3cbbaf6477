package perception

import (
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

// Engine is the perception orchestrator: the single place with sequencing
// logic. Every component below it is pure and independent, so distinct Engine
// values may run concurrently as long as each has its own config/state pair.
type Engine struct {
	cfg config.Config
}

// NewEngine creates an engine for the given cycle-invariant configuration
func NewEngine(cfg config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Step executes one perception cycle. Components run in the fixed sequence
// entropy -> noise -> intent -> reflexivity -> shocks -> regime ->
// uncertainty -> state -> delta -> decision, because later steps consume
// earlier outputs. prev is nil on the first cycle. The wall-clock duration is
// measured against the configured budget but the pipeline always completes
// and returns a result; the breach flag is advisory.
func (e *Engine) Step(prev *State, in Input) (State, Output) {
	started := time.Now()
	cfg := e.cfg

	ent := entropy.Compute(in.MarketData, cfg.Windows.EntropyBins)
	ns := noise.Evaluate(in.MarketData, cfg.Windows.TrendBars, cfg.Thresholds.Noise)
	it := intent.Infer(in.Features, cfg.Intent)
	refl := reflexivity.Analyze(decisionPoints(in.RecentDecisions, cfg.Windows.DecisionWindow))
	shocks := shock.Detect(in.MarketData, cfg.Thresholds.ShockSigma, cfg.Windows.MinShockPoints)
	reg := regime.Detect(in.Features, cfg.Thresholds.RegimeStress)
	unc := uncertainty.Aggregate(ent.MarketEntropy, ns.NoiseLevel, refl.Coefficient, reg.Stress, cfg.Weights)

	state := composeState(prev, in.Timestamp, ent, ns, it, refl, shocks, reg, unc, cfg)

	elapsed := time.Since(started)
	snap := Snapshot{
		ID:             SnapshotID(in.Timestamp),
		Timestamp:      in.Timestamp,
		State:          state,
		Entropy:        ent,
		Noise:          ns,
		Intent:         it,
		Reflexivity:    refl,
		Shocks:         shocks,
		Regime:         reg,
		Uncertainty:    unc,
		ComputeTime:    elapsed,
		BudgetExceeded: elapsed > cfg.ComputationBudget(),
	}

	var delta *Delta
	if prev != nil {
		delta = computeDelta(*prev, state, shocks)
	}

	out := Output{
		Snapshot:     snap,
		Delta:        delta,
		Decision:     makeDecision(snap, cfg),
		ArtifactRefs: make(map[string]string),
		ComputeTime:  elapsed,
	}
	return state, out
}

// decisionPoints reduces the bounded window of prior decisions to
// direction/return pairs for the reflexivity analyzer
func decisionPoints(decisions []PriorDecision, window int) []reflexivity.DecisionPoint {
	if window > 0 && len(decisions) > window {
		decisions = decisions[len(decisions)-window:]
	}
	points := make([]reflexivity.DecisionPoint, len(decisions))
	for i, d := range decisions {
		points[i] = reflexivity.DecisionPoint{
			Direction: d.Direction(),
			Return:    d.SubsequentReturn,
		}
	}
	return points
}
