package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/quantmesh/metaperception/internal/perception"
)

// Registry holds the Prometheus instruments for the perception engine
type Registry struct {
	reg *prometheus.Registry

	CycleDuration  prometheus.Histogram
	TotalCycles    prometheus.Counter
	BlockedCycles  *prometheus.CounterVec
	BudgetBreaches prometheus.Counter
	RegimeSwitches prometheus.Counter

	Uncertainty   prometheus.Gauge
	MarketEntropy prometheus.Gauge
	NoiseLevel    prometheus.Gauge
	RegimeStress  prometheus.Gauge
	ActiveShocks  prometheus.Gauge
}

// NewRegistry creates and registers all engine metrics on a fresh registry
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "metaperception_cycle_duration_seconds",
			Help:    "Duration of each perception cycle in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		TotalCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "metaperception_cycles_total",
			Help: "Total perception cycles executed",
		}),
		BlockedCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metaperception_blocked_cycles_total",
			Help: "Cycles where the should-act guard blocked action, by trigger",
		}, []string{"trigger"}),
		BudgetBreaches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "metaperception_budget_breaches_total",
			Help: "Cycles exceeding the advisory computation-time budget",
		}),
		RegimeSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "metaperception_regime_switches_total",
			Help: "Detected regime changes between consecutive cycles",
		}),
		Uncertainty: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metaperception_total_uncertainty",
			Help: "Weighted total uncertainty of the latest cycle",
		}),
		MarketEntropy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metaperception_market_entropy_bits",
			Help: "Mean market entropy of the latest cycle in bits",
		}),
		NoiseLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metaperception_noise_level",
			Help: "Aggregate noise level of the latest cycle",
		}),
		RegimeStress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metaperception_regime_stress",
			Help: "Regime stress score of the latest cycle",
		}),
		ActiveShocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metaperception_active_shocks",
			Help: "Number of unresolved shock events in the latest cycle",
		}),
	}

	r.reg.MustRegister(
		r.CycleDuration, r.TotalCycles, r.BlockedCycles, r.BudgetBreaches,
		r.RegimeSwitches, r.Uncertainty, r.MarketEntropy, r.NoiseLevel,
		r.RegimeStress, r.ActiveShocks,
	)
	return r
}

// Prometheus exposes the underlying registry for the /metrics handler
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}

// ObserveCycle records one cycle output. trigger is the blocking trigger for
// blocked cycles and empty otherwise.
func (r *Registry) ObserveCycle(out perception.Output, trigger string) {
	st := out.Snapshot.State

	r.TotalCycles.Inc()
	r.CycleDuration.Observe(out.ComputeTime.Seconds())
	r.Uncertainty.Set(st.TotalUncertainty)
	r.MarketEntropy.Set(st.MarketEntropy)
	r.NoiseLevel.Set(st.NoiseLevel)
	r.RegimeStress.Set(st.RegimeStress)
	r.ActiveShocks.Set(float64(len(st.ActiveShocks)))

	if out.Snapshot.BudgetExceeded {
		r.BudgetBreaches.Inc()
	}
	if !st.ShouldAct && trigger != "" {
		r.BlockedCycles.WithLabelValues(trigger).Inc()
	}
	if out.Delta != nil && out.Delta.RegimeChanged {
		r.RegimeSwitches.Inc()
	}
}

// Summary gathers the registry and reports sample counts per metric family,
// used by the health surface
func (r *Registry) Summary() (map[string]int, error) {
	families, err := r.reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	out := make(map[string]int, len(families))
	for _, mf := range families {
		out[mf.GetName()] = countSamples(mf)
	}
	return out, nil
}

func countSamples(mf *dto.MetricFamily) int {
	return len(mf.GetMetric())
}
