package perception

import (
	"github.com/quantmesh/metaperception/internal/domain/shock"
)

// computeDelta diffs two successive states for alerting. It runs only when a
// previous state exists; the first cycle has no delta. Newly active and newly
// resolved shocks are set differences on shock identifiers.
func computeDelta(prev State, cur State, events []shock.Event) *Delta {
	d := &Delta{
		EntropyDelta:     cur.MarketEntropy - prev.MarketEntropy,
		NoiseDelta:       cur.NoiseLevel - prev.NoiseLevel,
		ReflexivityDelta: cur.ReflexivityCoeff - prev.ReflexivityCoeff,
		IntentShift:      cur.Intent.Shift(prev.Intent),
		RegimeChanged:    cur.CurrentRegime != prev.CurrentRegime,
		PreviousRegime:   prev.CurrentRegime,
		CurrentRegime:    cur.CurrentRegime,
		NewShocks:        make([]shock.Event, 0),
		ResolvedShocks:   make([]string, 0),
	}

	// Events are already ordered by descending intensity, so NewShocks keeps
	// that ordering
	for _, ev := range events {
		if ev.Resolved {
			continue
		}
		if !prev.HasActiveShock(ev.ID) {
			d.NewShocks = append(d.NewShocks, ev)
		}
	}
	for _, id := range prev.ActiveShocks {
		if !cur.HasActiveShock(id) {
			d.ResolvedShocks = append(d.ResolvedShocks, id)
		}
	}

	d.Priority = deltaPriority(d)
	return d
}

// deltaPriority escalates on new critical shocks, then regime changes, then
// any new shock
func deltaPriority(d *Delta) AlertPriority {
	for _, ev := range d.NewShocks {
		if ev.Severity == shock.SeverityCritical {
			return PriorityCritical
		}
	}
	if d.RegimeChanged {
		return PriorityHigh
	}
	if len(d.NewShocks) > 0 {
		return PriorityMedium
	}
	return PriorityLow
}
