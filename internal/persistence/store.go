package persistence

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/quantmesh/metaperception/internal/override"
	"github.com/quantmesh/metaperception/internal/perception"
)

// Store durably persists cycle artifacts keyed by their deterministic
// identifiers. Implementations return a location reference for the stored
// artifact (path, redis key, table row id).
type Store interface {
	SaveSnapshot(ctx context.Context, snap perception.Snapshot) (string, error)
	SaveDecision(ctx context.Context, dec perception.Decision) (string, error)
	SaveOverride(ctx context.Context, rec override.Record) (string, error)
	Close() error
}

// Tiered fans writes out to a primary store plus optional hot and archive
// tiers. The primary must succeed; tier failures are logged and swallowed so
// a degraded cache or database never fails the cycle.
type Tiered struct {
	primary Store
	hot     Store
	archive Store
}

// NewTiered builds a tiered store; hot and archive may be nil
func NewTiered(primary, hot, archive Store) *Tiered {
	return &Tiered{primary: primary, hot: hot, archive: archive}
}

// SaveSnapshot writes the snapshot to all configured tiers
func (t *Tiered) SaveSnapshot(ctx context.Context, snap perception.Snapshot) (string, error) {
	ref, err := t.primary.SaveSnapshot(ctx, snap)
	if err != nil {
		return "", err
	}
	if t.hot != nil {
		if _, err := t.hot.SaveSnapshot(ctx, snap); err != nil {
			log.Warn().Err(err).Str("snapshot_id", snap.ID).Msg("hot tier snapshot write failed")
		}
	}
	if t.archive != nil {
		if _, err := t.archive.SaveSnapshot(ctx, snap); err != nil {
			log.Warn().Err(err).Str("snapshot_id", snap.ID).Msg("archive tier snapshot write failed")
		}
	}
	return ref, nil
}

// SaveDecision writes the decision to all configured tiers
func (t *Tiered) SaveDecision(ctx context.Context, dec perception.Decision) (string, error) {
	ref, err := t.primary.SaveDecision(ctx, dec)
	if err != nil {
		return "", err
	}
	if t.hot != nil {
		if _, err := t.hot.SaveDecision(ctx, dec); err != nil {
			log.Warn().Err(err).Str("decision_id", dec.ID).Msg("hot tier decision write failed")
		}
	}
	if t.archive != nil {
		if _, err := t.archive.SaveDecision(ctx, dec); err != nil {
			log.Warn().Err(err).Str("decision_id", dec.ID).Msg("archive tier decision write failed")
		}
	}
	return ref, nil
}

// SaveOverride writes the override record to all configured tiers
func (t *Tiered) SaveOverride(ctx context.Context, rec override.Record) (string, error) {
	ref, err := t.primary.SaveOverride(ctx, rec)
	if err != nil {
		return "", err
	}
	if t.hot != nil {
		if _, err := t.hot.SaveOverride(ctx, rec); err != nil {
			log.Warn().Err(err).Str("override_id", rec.ID).Msg("hot tier override write failed")
		}
	}
	if t.archive != nil {
		if _, err := t.archive.SaveOverride(ctx, rec); err != nil {
			log.Warn().Err(err).Str("override_id", rec.ID).Msg("archive tier override write failed")
		}
	}
	return ref, nil
}

// Close closes every tier, returning the first error encountered
func (t *Tiered) Close() error {
	var first error
	for _, s := range []Store{t.primary, t.hot, t.archive} {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
