package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/quantmesh/metaperception/internal/override"
	"github.com/quantmesh/metaperception/internal/perception"
)

// Key prefixes for the hot store
const (
	snapshotKeyPrefix = "metaperception:snapshot:"
	decisionKeyPrefix = "metaperception:decision:"
	overrideKeyPrefix = "metaperception:override:"
)

// RedisStore is the hot tier: recent artifacts with a TTL, keyed by their
// deterministic identifiers
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client; ttl <= 0 disables expiry
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisStoreFromAddr dials addr and verifies connectivity
func NewRedisStoreFromAddr(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStore(client, ttl), nil
}

// SaveSnapshot stores the snapshot JSON under its deterministic key
func (r *RedisStore) SaveSnapshot(ctx context.Context, snap perception.Snapshot) (string, error) {
	return r.set(ctx, snapshotKeyPrefix+snap.ID, snap)
}

// SaveDecision stores the decision JSON under its deterministic key
func (r *RedisStore) SaveDecision(ctx context.Context, dec perception.Decision) (string, error) {
	return r.set(ctx, decisionKeyPrefix+dec.ID, dec)
}

// SaveOverride stores the override record JSON under its deterministic key
func (r *RedisStore) SaveOverride(ctx context.Context, rec override.Record) (string, error) {
	return r.set(ctx, overrideKeyPrefix+rec.ID, rec)
}

// Close releases the underlying client
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) set(ctx context.Context, key string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set %s: %w", key, err)
	}
	return key, nil
}
