package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmesh/metaperception/internal/perception"
)

func cycleOutput(shouldAct bool) perception.Output {
	return perception.Output{
		Snapshot: perception.Snapshot{
			ID: "snap-test",
			State: perception.State{
				TotalUncertainty: 0.42,
				MarketEntropy:    2.1,
				NoiseLevel:       0.3,
				RegimeStress:     0.5,
				ActiveShocks:     []string{"a:1", "b:2"},
				ShouldAct:        shouldAct,
			},
		},
		ComputeTime: 3 * time.Millisecond,
	}
}

func TestObserveCycle_GaugesTrackLatestState(t *testing.T) {
	r := NewRegistry()

	r.ObserveCycle(cycleOutput(true), "")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.TotalCycles))
	assert.Equal(t, 0.42, testutil.ToFloat64(r.Uncertainty))
	assert.Equal(t, 2.1, testutil.ToFloat64(r.MarketEntropy))
	assert.Equal(t, 0.3, testutil.ToFloat64(r.NoiseLevel))
	assert.Equal(t, 0.5, testutil.ToFloat64(r.RegimeStress))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.ActiveShocks))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.BudgetBreaches))
}

func TestObserveCycle_BlockedCyclesByTrigger(t *testing.T) {
	r := NewRegistry()

	r.ObserveCycle(cycleOutput(false), "HIGH_NOISE")
	r.ObserveCycle(cycleOutput(false), "HIGH_NOISE")
	r.ObserveCycle(cycleOutput(false), "REGIME_PIVOT")
	r.ObserveCycle(cycleOutput(true), "")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.BlockedCycles.WithLabelValues("HIGH_NOISE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.BlockedCycles.WithLabelValues("REGIME_PIVOT")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.TotalCycles))
}

func TestObserveCycle_BudgetAndRegimeCounters(t *testing.T) {
	r := NewRegistry()

	out := cycleOutput(true)
	out.Snapshot.BudgetExceeded = true
	out.Delta = &perception.Delta{RegimeChanged: true}
	r.ObserveCycle(out, "")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.BudgetBreaches))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RegimeSwitches))
}

func TestSummary_ReportsFamilies(t *testing.T) {
	r := NewRegistry()
	r.ObserveCycle(cycleOutput(false), "HIGH_NOISE")

	summary, err := r.Summary()
	require.NoError(t, err)

	assert.Contains(t, summary, "metaperception_cycles_total")
	assert.Contains(t, summary, "metaperception_total_uncertainty")
	assert.Equal(t, 1, summary["metaperception_blocked_cycles_total"])
}
