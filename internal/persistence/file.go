package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantmesh/metaperception/internal/override"
	"github.com/quantmesh/metaperception/internal/perception"
)

// FileStore writes artifacts as pretty-printed JSON under a base directory,
// using atomic temp-file-plus-rename writes
type FileStore struct {
	baseDir string
}

// NewFileStore creates a file store rooted at baseDir
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

// SaveSnapshot persists a snapshot under snapshots/<id>.json
func (f *FileStore) SaveSnapshot(_ context.Context, snap perception.Snapshot) (string, error) {
	path := filepath.Join(f.baseDir, "snapshots", snap.ID+".json")
	if err := writeJSONAtomic(path, snap); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", snap.ID, err)
	}
	return path, nil
}

// SaveDecision persists a decision under decisions/<id>.json
func (f *FileStore) SaveDecision(_ context.Context, dec perception.Decision) (string, error) {
	path := filepath.Join(f.baseDir, "decisions", dec.ID+".json")
	if err := writeJSONAtomic(path, dec); err != nil {
		return "", fmt.Errorf("write decision %s: %w", dec.ID, err)
	}
	return path, nil
}

// SaveOverride persists an override record under overrides/<id>.json
func (f *FileStore) SaveOverride(_ context.Context, rec override.Record) (string, error) {
	path := filepath.Join(f.baseDir, "overrides", rec.ID+".json")
	if err := writeJSONAtomic(path, rec); err != nil {
		return "", fmt.Errorf("write override %s: %w", rec.ID, err)
	}
	return path, nil
}

// Close is a no-op for the file store
func (f *FileStore) Close() error { return nil }

// writeJSONAtomic writes JSON via temp file + rename so readers never observe
// a partial artifact
func writeJSONAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
