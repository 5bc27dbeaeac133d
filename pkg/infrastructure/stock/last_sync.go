package stock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

type marker struct {
	LastSync string `json:"last_sync"`
}

// LastSyncFile reads and writes the stock synchronization marker, a JSON document {"last_sync": "..."}
type LastSyncFile struct {
	path string
}

// NewLastSyncFile creates a marker bound to path
func NewLastSyncFile(path string) *LastSyncFile {
	return &LastSyncFile{path: path}
}

// Path returns the marker location
func (f *LastSyncFile) Path() string {
	return f.path
}

// LastSync returns the recorded synchronization time; a missing or empty marker yields nil.
// Timestamps without a zone are read as UTC.
func (f *LastSyncFile) LastSync() (*time.Time, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sync marker %s: %w", f.path, err)
	}

	var m marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse sync marker %s: %w", f.path, err)
	}
	raw := strings.TrimSpace(m.LastSync)
	if raw == "" {
		return nil, nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("sync marker %s: unrecognized timestamp %q", f.path, raw)
}

// MarkSynced records t as the last synchronization time
func (f *LastSyncFile) MarkSynced(t time.Time) error {
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	data, err := json.Marshal(marker{LastSync: t.UTC().Format(time.RFC3339Nano)})
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write sync marker %s: %w", f.path, err)
	}
	return nil
}
