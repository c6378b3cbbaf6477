package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/quantmesh/metaperception/internal/datafeed"
	httpiface "github.com/quantmesh/metaperception/internal/interfaces/http"
	"github.com/quantmesh/metaperception/internal/metrics"
	"github.com/quantmesh/metaperception/internal/override"
	"github.com/quantmesh/metaperception/internal/perception"
	"github.com/quantmesh/metaperception/internal/persistence"
)

// Runner drives the perception engine on a fixed cycle interval: materialize
// input, step the engine, publish, persist, and log overrides on blocked
// cycles. The engine stays pure; all I/O lives here.
type Runner struct {
	engine    *perception.Engine
	source    datafeed.Source
	store     persistence.Store
	breaker   *gobreaker.CircuitBreaker
	metrics   *metrics.Registry
	cache     *httpiface.StateCache
	overrides *override.Detector

	interval time.Duration
	runID    string
	prev     *perception.State
}

// New assembles a runner; store and cache may be nil when persistence or
// serving is disabled
func New(
	engine *perception.Engine,
	source datafeed.Source,
	store persistence.Store,
	reg *metrics.Registry,
	cache *httpiface.StateCache,
	interval time.Duration,
) *Runner {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "perception-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("persistence breaker state change")
		},
	})

	return &Runner{
		engine:    engine,
		source:    source,
		store:     store,
		breaker:   breaker,
		metrics:   reg,
		cache:     cache,
		overrides: override.NewDetector(),
		interval:  interval,
		runID:     uuid.New().String(),
	}
}

// RunID identifies this runner session
func (r *Runner) RunID() string {
	return r.runID
}

// Run executes cycles on the configured interval until the context is
// cancelled
func (r *Runner) Run(ctx context.Context) error {
	log.Info().Str("run_id", r.runID).Dur("interval", r.interval).Msg("perception runner starting")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("run_id", r.runID).Msg("perception runner stopping")
			return ctx.Err()
		case now := <-ticker.C:
			r.cycle(ctx, now)
		}
	}
}

// cycle executes one perception step end to end
func (r *Runner) cycle(ctx context.Context, now time.Time) {
	in := r.source.Materialize(now.UTC(), nil)

	state, out := r.engine.Step(r.prev, in)
	r.prev = &state

	cfg := r.engine.Config()
	rec, blocked := r.overrides.Inspect(out, cfg)

	trigger := ""
	if blocked {
		trigger = string(rec.Trigger)
		log.Warn().
			Str("snapshot_id", out.Snapshot.ID).
			Str("trigger", trigger).
			Int("prevented_trades", rec.PreventedTrades).
			Float64("prevented_capital_usd", rec.PreventedCapitalUSD).
			Str("rationale", out.Decision.Rationale).
			Msg("cycle blocked")
	} else {
		log.Info().
			Str("snapshot_id", out.Snapshot.ID).
			Float64("uncertainty", state.TotalUncertainty).
			Str("risk_mode", string(out.Decision.RiskMode)).
			Msg("cycle completed")
	}

	if out.Snapshot.BudgetExceeded {
		log.Warn().
			Str("snapshot_id", out.Snapshot.ID).
			Dur("compute_time", out.ComputeTime).
			Int("budget_ms", cfg.MaxComputationTimeMS).
			Msg("computation budget exceeded")
	}

	r.persist(ctx, &out, rec, blocked)
	if r.metrics != nil {
		r.metrics.ObserveCycle(out, trigger)
	}
	if r.cache != nil {
		r.cache.Publish(out)
	}
}

// persist writes the cycle artifacts through the circuit breaker and records
// their storage locations on the output
func (r *Runner) persist(ctx context.Context, out *perception.Output, rec override.Record, blocked bool) {
	if r.store == nil {
		return
	}

	_, err := r.breaker.Execute(func() (any, error) {
		ref, err := r.store.SaveSnapshot(ctx, out.Snapshot)
		if err != nil {
			return nil, err
		}
		out.ArtifactRefs["snapshot"] = ref

		ref, err = r.store.SaveDecision(ctx, out.Decision)
		if err != nil {
			return nil, err
		}
		out.ArtifactRefs["decision"] = ref

		if blocked {
			ref, err = r.store.SaveOverride(ctx, rec)
			if err != nil {
				return nil, err
			}
			out.ArtifactRefs["override"] = ref
		}
		return nil, nil
	})
	if err != nil {
		log.Error().Err(err).Str("snapshot_id", out.Snapshot.ID).Msg("artifact persistence failed")
	}
}
