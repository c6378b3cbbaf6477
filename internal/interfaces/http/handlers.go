package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantmesh/metaperception/internal/metrics"
	"github.com/quantmesh/metaperception/internal/perception"
)

// StateCache holds the most recently published cycle output for read-only
// serving. The runner publishes; handlers only read.
type StateCache struct {
	mu     sync.RWMutex
	latest *perception.Output
}

// NewStateCache creates an empty cache
func NewStateCache() *StateCache {
	return &StateCache{}
}

// Publish replaces the cached output with the latest cycle
func (c *StateCache) Publish(out perception.Output) {
	c.mu.Lock()
	c.latest = &out
	c.mu.Unlock()
}

// Latest returns the cached output, or false before the first cycle
func (c *StateCache) Latest() (perception.Output, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return perception.Output{}, false
	}
	return *c.latest, true
}

type handlers struct {
	cache   *StateCache
	metrics *metrics.Registry
	started time.Time
}

// health reports liveness, uptime, and metric family counts
func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	summary, err := h.metrics.Summary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "metrics gather failed")
		return
	}

	_, hasCycle := h.cache.Latest()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"uptime_seconds":  time.Since(h.started).Seconds(),
		"has_cycle":       hasCycle,
		"metric_families": summary,
	})
}

// latestSnapshot serves the full snapshot of the most recent cycle
func (h *handlers) latestSnapshot(w http.ResponseWriter, _ *http.Request) {
	out, ok := h.cache.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no cycle completed yet")
		return
	}
	writeJSON(w, http.StatusOK, out.Snapshot)
}

// latestDecision serves the most recent decision
func (h *handlers) latestDecision(w http.ResponseWriter, _ *http.Request) {
	out, ok := h.cache.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no cycle completed yet")
		return
	}
	writeJSON(w, http.StatusOK, out.Decision)
}

// latestDelta serves the most recent delta; the first cycle has none
func (h *handlers) latestDelta(w http.ResponseWriter, _ *http.Request) {
	out, ok := h.cache.Latest()
	if !ok || out.Delta == nil {
		writeError(w, http.StatusNotFound, "no delta available")
		return
	}
	writeJSON(w, http.StatusOK, out.Delta)
}

// regime serves a condensed regime view from the latest state
func (h *handlers) regime(w http.ResponseWriter, _ *http.Request) {
	out, ok := h.cache.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no cycle completed yet")
		return
	}

	st := out.Snapshot.State
	writeJSON(w, http.StatusOK, map[string]any{
		"current_regime":    st.CurrentRegime,
		"regime_confidence": st.RegimeConfidence,
		"regime_stress":     st.RegimeStress,
		"pivot_probability": st.PivotProbability,
		"alert_level":       out.Snapshot.Regime.Level,
		"should_act":        st.ShouldAct,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
