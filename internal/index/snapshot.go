package index

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/appsrag/internal/tracker"
)

// maxSnapshotLine caps one snapshot line on read.
const maxSnapshotLine = 1 << 20

// WriteSnapshot replaces the canonical record snapshot (one JSON record
// per line) via temp file + rename. The snapshot is the authoritative
// record set for retrieval: the vector collection only adds similarity
// scores on top of it.
func WriteSnapshot(path string, records []tracker.ApplicationRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("encoding record %s: %w", rec.ID, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads the record snapshot in build order, plus the count
// of corrupt lines skipped. A missing snapshot is ErrIndexUnavailable.
func ReadSnapshot(path string) ([]tracker.ApplicationRecord, int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, fmt.Errorf("%w: no snapshot at %s", ErrIndexUnavailable, path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	var (
		records []tracker.ApplicationRecord
		corrupt int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxSnapshotLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec tracker.ApplicationRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			corrupt++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, corrupt, fmt.Errorf("reading snapshot: %w", err)
	}
	return records, corrupt, nil
}
