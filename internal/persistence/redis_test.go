package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmesh/metaperception/internal/override"
	"github.com/quantmesh/metaperception/internal/perception"
)

func TestRedisStore_SaveSnapshot(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, time.Hour)

	snap := sampleSnapshot()
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	key := "metaperception:snapshot:" + snap.ID
	mock.ExpectSet(key, payload, time.Hour).SetVal("OK")

	ref, err := store.SaveSnapshot(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, key, ref)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SaveDecision(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, 0)

	dec := perception.Decision{ID: "snap-x-dec-1", SnapshotID: "snap-x", ShouldAct: true}
	payload, err := json.Marshal(dec)
	require.NoError(t, err)

	key := "metaperception:decision:" + dec.ID
	mock.ExpectSet(key, payload, 0).SetVal("OK")

	ref, err := store.SaveDecision(context.Background(), dec)
	require.NoError(t, err)
	assert.Equal(t, key, ref)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SetFailureSurfaces(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, time.Minute)

	rec := override.Record{ID: "snap-x-dec-1-override"}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	key := "metaperception:override:" + rec.ID
	mock.ExpectSet(key, payload, time.Minute).SetErr(assert.AnError)

	_, err = store.SaveOverride(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set")
}
