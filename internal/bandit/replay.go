package bandit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FeedbackEvent is one historical outcome to replay into the model.
type FeedbackEvent struct {
	// EventID is the idempotency key; replaying an id already in the
	// ledger is a silent skip.
	EventID string

	Category string
	Method   string
	Outcome  string
}

// ReplaySummary reports a batch replay. Row-level failures accumulate
// here instead of aborting the batch.
type ReplaySummary struct {
	// Processed counts events applied to arms.
	Processed int `json:"processed"`

	// Duplicates counts ledger hits, skipped silently.
	Duplicates int `json:"duplicates"`

	// Invalid counts events with outcomes outside the taxonomy or
	// unusable arm keys.
	Invalid int `json:"invalid"`

	// Errors carries one message per invalid event, for the report.
	Errors []string `json:"errors,omitempty"`
}

// Ledger is the persisted set of already-applied feedback event ids.
type Ledger struct {
	path string
	seen map[string]bool
}

// OpenLedger loads the ledger, starting empty when missing. A corrupt
// ledger file starts empty as well: the worst case is re-counting, and
// the arm state itself remains intact.
func OpenLedger(path string) *Ledger {
	l := &Ledger{path: path, seen: make(map[string]bool)}
	data, err := os.ReadFile(path)
	if err != nil {
		return l
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return l
	}
	for _, id := range ids {
		l.seen[id] = true
	}
	return l
}

// Seen reports whether the event id has been applied.
func (l *Ledger) Seen(id string) bool { return l.seen[id] }

// Add marks an event id as applied.
func (l *Ledger) Add(id string) { l.seen[id] = true }

// Len returns the number of recorded ids.
func (l *Ledger) Len() int { return len(l.seen) }

// Save persists the ledger as a sorted id list via temp file + rename.
func (l *Ledger) Save() error {
	ids := make([]string, 0, len(l.seen))
	for id := range l.seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}
	return nil
}

// Replay applies a stream of events exactly once each, guarded by the
// ledger. The model is mutated in memory; the caller saves model and
// ledger together after a successful pass.
func (m *Model) Replay(events []FeedbackEvent, ledger *Ledger) ReplaySummary {
	var summary ReplaySummary
	for _, ev := range events {
		if ev.EventID == "" {
			summary.Invalid++
			summary.Errors = append(summary.Errors, "event without id skipped")
			continue
		}
		if ledger.Seen(ev.EventID) {
			summary.Duplicates++
			continue
		}
		if err := m.Feedback(ev.Category, ev.Method, ev.Outcome); err != nil {
			summary.Invalid++
			summary.Errors = append(summary.Errors, fmt.Sprintf("event %s: %v", ev.EventID, err))
			continue
		}
		ledger.Add(ev.EventID)
		summary.Processed++
	}
	return summary
}
