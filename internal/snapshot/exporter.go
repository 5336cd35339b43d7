// Package snapshot serializes reconciled record sets to JSON files. It
// is a pure sink: no network or database access, just what it is given.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wikiseed/internal/domain"
	"wikiseed/internal/pipeline"
)

// Manifest summarizes one run across its categories.
type Manifest struct {
	RunID       string                   `json:"run_id"`
	GeneratedAt time.Time                `json:"generated_at"`
	Groups      map[string]GroupManifest `json:"groups"`
}

// GroupManifest is the per-category manifest entry.
type GroupManifest struct {
	Count     int    `json:"count"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Status    string `json:"status"`
}

// Exporter writes snapshot files into a single output directory.
type Exporter struct {
	dir string
}

// NewExporter creates an exporter rooted at dir, creating it if needed.
func NewExporter(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// WriteCategory serializes one category's reconciled records to
// <dir>/<category>.json.
func (e *Exporter) WriteCategory(category domain.Category, records []domain.SnapshotRecord) error {
	if records == nil {
		records = []domain.SnapshotRecord{}
	}
	return e.writeJSON(string(category)+".json", records)
}

// WriteManifest serializes the run summary to <dir>/manifest.json.
func (e *Exporter) WriteManifest(summary *pipeline.Summary) error {
	manifest := Manifest{
		RunID:       summary.RunID,
		GeneratedAt: summary.FinishedAt,
		Groups:      make(map[string]GroupManifest, len(summary.Categories)),
	}

	for _, cs := range summary.Categories {
		manifest.Groups[string(cs.Category)] = GroupManifest{
			Count:     cs.RecordCount,
			Processed: cs.Processed,
			Skipped:   cs.Skipped,
			Failed:    cs.Failed,
			Status:    cs.Status(),
		}
	}

	return e.writeJSON("manifest.json", manifest)
}

// writeJSON writes v as indented JSON, atomically via a temp file so a
// crashed run never leaves a half-written snapshot behind.
func (e *Exporter) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	target := filepath.Join(e.dir, name)
	tmp := target + ".tmp"

	if writeErr := os.WriteFile(tmp, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write %s: %w", name, writeErr)
	}

	if renameErr := os.Rename(tmp, target); renameErr != nil {
		return fmt.Errorf("failed to finalize %s: %w", name, renameErr)
	}

	return nil
}
