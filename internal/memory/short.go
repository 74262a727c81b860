package memory

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/appsrag/internal/bandit"
	"github.com/fyrsmithlabs/appsrag/internal/piiguard"
)

// ErrEmptyEvent is returned when an event has no type.
var ErrEmptyEvent = errors.New("event has no type")

// maxLineBytes caps one episodic log line on read.
const maxLineBytes = 1 << 20

// Store owns the on-disk memory surfaces. It is an injected handle:
// opened at command start, passed explicitly, never a package global.
type Store struct {
	shortPath string
	longPath  string
	guard     *piiguard.Guard
	logger    *zap.Logger
}

// NewStore builds a store over the given log paths. The guard is the
// hard PII gate for every persisted write; it must not be nil.
func NewStore(shortPath, longPath string, guard *piiguard.Guard, logger *zap.Logger) (*Store, error) {
	if guard == nil {
		return nil, errors.New("pii guard is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		shortPath: shortPath,
		longPath:  longPath,
		guard:     guard,
		logger:    logger.Named("memory"),
	}, nil
}

// AppendShort appends one event to the episodic log. The text payload
// passes the PII gate first: a detection rejects the whole write and
// the log file is untouched. The append is line-atomic: one full line,
// flushed, no in-place rewrites.
func (s *Store) AppendShort(event ShortEvent) error {
	if event.Type == "" {
		return ErrEmptyEvent
	}
	if err := s.guard.Gate("text", event.Text); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.shortPath), 0o755); err != nil {
		return fmt.Errorf("creating memory directory: %w", err)
	}
	f, err := os.OpenFile(s.shortPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening episodic log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("flushing episodic log: %w", err)
	}
	return nil
}

// ReadShort returns events at or after since (zero time = all), in log
// order, plus the count of corrupt lines skipped. One unparseable line
// never aborts the read.
func (s *Store) ReadShort(since time.Time) ([]ShortEvent, int, error) {
	f, err := os.Open(s.shortPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("opening episodic log: %w", err)
	}
	defer f.Close()

	var (
		events  []ShortEvent
		corrupt int
		lineNo  int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev ShortEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			corrupt++
			s.logger.Warn("skipping corrupt log line",
				zap.Int("line", lineNo),
				zap.Error(err))
			continue
		}
		if !since.IsZero() && ev.TS.Before(since) {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, corrupt, fmt.Errorf("reading episodic log: %w", err)
	}
	return events, corrupt, nil
}

// RecencyScores folds the episodic log into one score per application:
// the strongest recency-decayed event touching it. Decay is exponential
// with the configured half-life in days; each event is weighted by its
// outcome score hint.
func (s *Store) RecencyScores(now time.Time, halfLifeDays float64) (map[string]float64, error) {
	events, _, err := s.ReadShort(time.Time{})
	if err != nil {
		return nil, err
	}
	if halfLifeDays <= 0 {
		halfLifeDays = 14
	}

	scores := make(map[string]float64)
	for _, ev := range events {
		if ev.AppID == "" {
			continue
		}
		ageDays := now.Sub(ev.TS).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		decay := math.Exp(-math.Ln2 * ageDays / halfLifeDays)
		score := decay * eventScoreHint(ev)
		if score > scores[ev.AppID] {
			scores[ev.AppID] = score
		}
	}
	return scores, nil
}

// eventScoreHint resolves the scoring weight for one event: an explicit
// hint wins, then the outcome's hint, then a neutral default.
func eventScoreHint(ev ShortEvent) float64 {
	if ev.ScoreHint > 0 {
		return ev.ScoreHint
	}
	if ev.Outcome != "" {
		if outcome, err := bandit.ParseOutcome(ev.Outcome); err == nil {
			return outcome.ScoreHint()
		}
	}
	return 0.35
}
