package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/quantmesh/metaperception/internal/override"
	"github.com/quantmesh/metaperception/internal/perception"
)

// schema creates the archive tables if absent. Artifacts are stored as jsonb
// alongside the queryable identity and gate columns.
const schema = `
CREATE TABLE IF NOT EXISTS perception_snapshots (
	id          TEXT PRIMARY KEY,
	ts          TIMESTAMPTZ NOT NULL,
	should_act  BOOLEAN NOT NULL,
	uncertainty DOUBLE PRECISION NOT NULL,
	payload     JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS perception_decisions (
	id          TEXT PRIMARY KEY,
	snapshot_id TEXT NOT NULL,
	should_act  BOOLEAN NOT NULL,
	risk_mode   TEXT NOT NULL,
	payload     JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS perception_overrides (
	id           TEXT PRIMARY KEY,
	decision_id  TEXT NOT NULL,
	trigger_type TEXT NOT NULL,
	payload      JSONB NOT NULL
);
`

// PostgresStore is the archive tier backed by Postgres via sqlx
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore opens the DSN, verifies connectivity, and ensures the
// archive schema exists
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// SaveSnapshot upserts the snapshot row
func (p *PostgresStore) SaveSnapshot(ctx context.Context, snap perception.Snapshot) (string, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot %s: %w", snap.ID, err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO perception_snapshots (id, ts, should_act, uncertainty, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		snap.ID, snap.Timestamp, snap.State.ShouldAct, snap.State.TotalUncertainty, payload)
	if err != nil {
		return "", fmt.Errorf("insert snapshot %s: %w", snap.ID, err)
	}
	return "perception_snapshots/" + snap.ID, nil
}

// SaveDecision upserts the decision row
func (p *PostgresStore) SaveDecision(ctx context.Context, dec perception.Decision) (string, error) {
	payload, err := json.Marshal(dec)
	if err != nil {
		return "", fmt.Errorf("marshal decision %s: %w", dec.ID, err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO perception_decisions (id, snapshot_id, should_act, risk_mode, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		dec.ID, dec.SnapshotID, dec.ShouldAct, string(dec.RiskMode), payload)
	if err != nil {
		return "", fmt.Errorf("insert decision %s: %w", dec.ID, err)
	}
	return "perception_decisions/" + dec.ID, nil
}

// SaveOverride upserts the override row
func (p *PostgresStore) SaveOverride(ctx context.Context, rec override.Record) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal override %s: %w", rec.ID, err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO perception_overrides (id, decision_id, trigger_type, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		rec.ID, rec.DecisionID, string(rec.Trigger), payload)
	if err != nil {
		return "", fmt.Errorf("insert override %s: %w", rec.ID, err)
	}
	return "perception_overrides/" + rec.ID, nil
}

// Close releases the connection pool
func (p *PostgresStore) Close() error {
	return p.db.Close()
}
