// Package index builds and describes the retrieval index: a vector
// collection plus a canonical record snapshot, rebuilt wholesale so the
// index is always a pure function of the current record set.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SchemaVersion identifies the on-disk index layout. Bumped when the
// snapshot or manifest shape changes incompatibly.
const SchemaVersion = "apps.index.v1"

// ErrIndexUnavailable is returned when the index is missing or corrupt
// and a rebuild is required. Surfaced as an actionable error, never as
// a silently empty result.
var ErrIndexUnavailable = errors.New("index unavailable, run build")

// Manifest records what the index was built from and how. Written last
// during a build, so its presence means the build completed.
type Manifest struct {
	SchemaVersion string    `json:"schema_version"`
	Dimension     int       `json:"dimension"`
	Provider      string    `json:"provider"`
	Count         int       `json:"count"`
	BuiltAt       time.Time `json:"built_at"`
}

// WriteManifest persists the manifest via temp file + rename.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest, mapping a missing or unreadable file
// to ErrIndexUnavailable.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no manifest at %s", ErrIndexUnavailable, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: corrupt manifest %s: %v", ErrIndexUnavailable, path, err)
	}
	if m.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: manifest schema %q, want %q", ErrIndexUnavailable, m.SchemaVersion, SchemaVersion)
	}
	return &m, nil
}
