package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteSnapshot writes a status snapshot as JSON, atomically via a temp
// file and rename.
func WriteSnapshot(path string, status *Status) error {
	if path == "" {
		return fmt.Errorf("snapshot path is required")
	}
	if status == nil {
		return fmt.Errorf("status is required")
	}
	status.SchemaVersion = StatusSchemaVersion

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// SnapshotPathFor returns the snapshot path for a timestamp.
func SnapshotPathFor(dir string, at time.Time) string {
	return filepath.Join(dir, at.UTC().Format("2006-01-02T15-04-05")+".json")
}
