package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/appsrag/internal/bandit"
)

// ArmSummary is the distilled long-term signal for one (category,
// method) pair: how its terminal outcomes have landed so far.
type ArmSummary struct {
	Category  string         `json:"category"`
	Method    string         `json:"method"`
	Events    int            `json:"events"`
	Successes int            `json:"successes"`
	Rate      float64        `json:"rate"`
	Outcomes  map[string]int `json:"outcomes"`
}

// LongView is the semantic memory surface. Unlike the episodic log it
// is not append-only: each recompute replaces it wholesale, so it is
// always a pure function of the short-term stream.
type LongView struct {
	RecomputedAt time.Time             `json:"recomputed_at"`
	Arms         map[string]ArmSummary `json:"arms"`
}

// Rate returns the outcome success rate for (category, method), or 0
// when the pair has no distilled signal yet.
func (v *LongView) Rate(category, method string) float64 {
	if v == nil {
		return 0
	}
	key, err := bandit.ArmKey(category, method)
	if err != nil {
		return 0
	}
	return v.Arms[key].Rate
}

// RecomputeLong distills the full episodic stream into a fresh long
// view and atomically replaces the persisted one. Only feedback events
// with a valid terminal outcome and a complete arm key contribute; an
// empty stream yields an empty view, not an error.
func (s *Store) RecomputeLong(now time.Time) (*LongView, error) {
	events, corrupt, err := s.ReadShort(time.Time{})
	if err != nil {
		return nil, err
	}
	if corrupt > 0 {
		s.logger.Warn("recomputing from a log with corrupt lines", zap.Int("skipped", corrupt))
	}

	view := &LongView{RecomputedAt: now, Arms: make(map[string]ArmSummary)}
	for _, ev := range events {
		outcome, err := bandit.ParseOutcome(ev.Outcome)
		if err != nil {
			continue
		}
		key, err := bandit.ArmKey(ev.Category, ev.Method)
		if err != nil {
			continue
		}
		summary, ok := view.Arms[key]
		if !ok {
			summary = ArmSummary{Category: ev.Category, Method: ev.Method, Outcomes: make(map[string]int)}
		}
		summary.Events++
		if outcome.IsSuccess() {
			summary.Successes++
		}
		summary.Outcomes[string(outcome)]++
		summary.Rate = float64(summary.Successes) / float64(summary.Events)
		view.Arms[key] = summary
	}

	if err := s.saveLong(view); err != nil {
		return nil, err
	}
	return view, nil
}

// LoadLong reads the persisted long view, returning an empty view when
// none has been computed yet.
func (s *Store) LoadLong() (*LongView, error) {
	data, err := os.ReadFile(s.longPath)
	if errors.Is(err, os.ErrNotExist) {
		return &LongView{Arms: make(map[string]ArmSummary)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading semantic view: %w", err)
	}
	var view LongView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("parsing semantic view %s: %w", s.longPath, err)
	}
	if view.Arms == nil {
		view.Arms = make(map[string]ArmSummary)
	}
	return &view, nil
}

// saveLong replaces the semantic view via temp file + rename.
func (s *Store) saveLong(view *LongView) error {
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding semantic view: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.longPath), 0o755); err != nil {
		return fmt.Errorf("creating memory directory: %w", err)
	}
	tmp := s.longPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing semantic view: %w", err)
	}
	if err := os.Rename(tmp, s.longPath); err != nil {
		return fmt.Errorf("replacing semantic view: %w", err)
	}
	return nil
}
