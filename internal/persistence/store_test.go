package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmesh/metaperception/internal/override"
	"github.com/quantmesh/metaperception/internal/perception"
)

// memStore records calls for tier fan-out assertions
type memStore struct {
	snapshots int
	decisions int
	overrides int
	failWith  error
	closed    bool
}

func (m *memStore) SaveSnapshot(context.Context, perception.Snapshot) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}
	m.snapshots++
	return "mem://snapshot", nil
}

func (m *memStore) SaveDecision(context.Context, perception.Decision) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}
	m.decisions++
	return "mem://decision", nil
}

func (m *memStore) SaveOverride(context.Context, override.Record) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}
	m.overrides++
	return "mem://override", nil
}

func (m *memStore) Close() error {
	m.closed = true
	return nil
}

func TestTiered_FansOutToAllTiers(t *testing.T) {
	primary, hot, archive := &memStore{}, &memStore{}, &memStore{}
	tiered := NewTiered(primary, hot, archive)
	ctx := context.Background()

	ref, err := tiered.SaveSnapshot(ctx, sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "mem://snapshot", ref, "the primary's reference is returned")

	_, err = tiered.SaveDecision(ctx, perception.Decision{ID: "d1"})
	require.NoError(t, err)
	_, err = tiered.SaveOverride(ctx, override.Record{ID: "o1"})
	require.NoError(t, err)

	for _, s := range []*memStore{primary, hot, archive} {
		assert.Equal(t, 1, s.snapshots)
		assert.Equal(t, 1, s.decisions)
		assert.Equal(t, 1, s.overrides)
	}
}

func TestTiered_PrimaryFailureFailsTheWrite(t *testing.T) {
	primary := &memStore{failWith: errors.New("disk full")}
	hot := &memStore{}
	tiered := NewTiered(primary, hot, nil)

	_, err := tiered.SaveSnapshot(context.Background(), sampleSnapshot())
	require.Error(t, err)
	assert.Equal(t, 0, hot.snapshots, "tiers are skipped when the primary fails")
}

func TestTiered_HotTierFailureSwallowed(t *testing.T) {
	primary := &memStore{}
	hot := &memStore{failWith: errors.New("connection refused")}
	tiered := NewTiered(primary, hot, nil)

	ref, err := tiered.SaveSnapshot(context.Background(), sampleSnapshot())
	require.NoError(t, err, "a degraded hot tier never fails the cycle")
	assert.Equal(t, "mem://snapshot", ref)
	assert.Equal(t, 1, primary.snapshots)
}

func TestTiered_NilTiersAllowed(t *testing.T) {
	primary := &memStore{}
	tiered := NewTiered(primary, nil, nil)

	_, err := tiered.SaveSnapshot(context.Background(), sampleSnapshot())
	require.NoError(t, err)
	require.NoError(t, tiered.Close())
	assert.True(t, primary.closed)
}
