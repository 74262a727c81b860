package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/appsrag/internal/bandit"
	"github.com/fyrsmithlabs/appsrag/internal/index"
	"github.com/fyrsmithlabs/appsrag/internal/memory"
	"github.com/fyrsmithlabs/appsrag/internal/tracker"
)

// Feedback records a terminal outcome for an application: updates the
// arm posterior, persists the model, and logs the event to both memory
// surfaces.
func (s *Service) Feedback(appID, outcome string) error {
	rec, err := s.findRecord(appID)
	if err != nil {
		return err
	}
	category, method := rec.ArmKey()
	if err := s.model.Feedback(category, method, outcome); err != nil {
		return err
	}
	if err := s.model.Save(); err != nil {
		return err
	}

	// Pre-seed the replay ledger with this event so a later batch replay
	// of the memory stream does not apply the same outcome twice.
	if eventID := s.appendAudit(appID, memory.EventFeedback, fmt.Sprintf("outcome=%s", outcome), outcome); eventID != "" {
		ledger := bandit.OpenLedger(s.cfg.FeedbackLedgerPath())
		ledger.Add(eventID)
		if err := ledger.Save(); err != nil {
			s.logger.Warn("feedback ledger save failed", zap.Error(err))
		}
	}
	return nil
}

// FeedbackBatch replays the episodic memory stream into the bandit
// model. Each event id is applied at most once across all runs; the
// replay ledger makes the operation idempotent.
func (s *Service) FeedbackBatch() (*bandit.ReplaySummary, error) {
	events, _, err := s.memstore.ReadShort(time.Time{})
	if err != nil {
		return nil, err
	}

	snapshot := s.snapshotByID()
	feedback := make([]bandit.FeedbackEvent, 0, len(events))
	for _, ev := range events {
		if ev.Outcome == "" {
			continue
		}
		category, method := ev.Category, ev.Method
		if (category == "" || method == "") && ev.AppID != "" {
			if rec, ok := snapshot[ev.AppID]; ok {
				category, method = rec.ArmKey()
			}
		}
		feedback = append(feedback, bandit.FeedbackEvent{
			EventID:  ev.ID,
			Category: category,
			Method:   method,
			Outcome:  ev.Outcome,
		})
	}

	ledger := bandit.OpenLedger(s.cfg.FeedbackLedgerPath())
	summary := s.model.Replay(feedback, ledger)
	if err := s.model.Save(); err != nil {
		return nil, err
	}
	if err := ledger.Save(); err != nil {
		return nil, err
	}
	s.logger.Info("feedback batch applied",
		zap.Int("processed", summary.Processed),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("invalid", summary.Invalid))
	return &summary, nil
}

// SyncFeedback derives outcomes from the tracker's status and response
// columns and replays them into the model. A separate ledger keyed on
// the row content keeps re-runs from double-counting unchanged rows; a
// row only produces a new outcome after its status actually moves.
func (s *Service) SyncFeedback() (*bandit.ReplaySummary, error) {
	rows, err := tracker.ReadCSV(s.cfg.Paths.TrackerCSV)
	if err != nil {
		return nil, fmt.Errorf("reading tracker: %w", err)
	}
	normalizer := &tracker.Normalizer{ApplicationsDir: s.cfg.Paths.ApplicationsDir, Now: s.now}
	records, _ := normalizer.Normalize(rows)
	byID := make(map[string]tracker.ApplicationRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	feedback := make([]bandit.FeedbackEvent, 0, len(rows))
	for _, row := range rows {
		outcome := tracker.InferOutcome(row)
		if outcome == "" {
			continue
		}
		rec, ok := byID[tracker.RowID(row)]
		if !ok {
			continue
		}
		category, method := rec.ArmKey()
		feedback = append(feedback, bandit.FeedbackEvent{
			EventID:  tracker.OutcomeDedupeKey(rec.ID, outcome, row),
			Category: category,
			Method:   method,
			Outcome:  outcome,
		})
	}

	ledger := bandit.OpenLedger(s.cfg.TrackerLedgerPath())
	summary := s.model.Replay(feedback, ledger)
	if err := s.model.Save(); err != nil {
		return nil, err
	}
	if err := ledger.Save(); err != nil {
		return nil, err
	}
	if summary.Processed > 0 {
		s.appendAudit("", memory.EventFeedback,
			fmt.Sprintf("tracker sync applied=%d duplicates=%d", summary.Processed, summary.Duplicates), "")
	}
	return &summary, nil
}

// thumbOutcomes maps vote spellings to the binary feedback taxonomy.
var thumbOutcomes = map[string]string{
	"up": "response", "thumbs_up": "response", "+1": "response", "👍": "response",
	"down": "no_response", "thumbs_down": "no_response", "-1": "no_response", "👎": "no_response",
}

// Thumb records a coarse vote against an application. With no explicit
// app id it falls back to the top hit of the last ranked results, then
// to the most recently updated record.
func (s *Service) Thumb(appID, vote string) (string, error) {
	outcome, ok := thumbOutcomes[strings.ToLower(strings.TrimSpace(vote))]
	if !ok {
		return "", fmt.Errorf("unrecognized vote %q, want up or down", vote)
	}

	resolved, err := s.resolveThumbTarget(appID)
	if err != nil {
		return "", err
	}
	if err := s.Feedback(resolved, outcome); err != nil {
		return "", err
	}
	return resolved, nil
}

// resolveThumbTarget picks the application a bare vote applies to.
func (s *Service) resolveThumbTarget(appID string) (string, error) {
	if appID != "" {
		return appID, nil
	}
	if state := s.loadSession(); state.LastResults != nil && len(state.LastResults.AppIDs) > 0 {
		return state.LastResults.AppIDs[0], nil
	}

	records, _, err := index.ReadSnapshot(s.cfg.RecordsPath())
	if err != nil {
		return "", err
	}
	latestID := ""
	var latestAt time.Time
	for _, rec := range records {
		if latestID == "" || rec.UpdatedAt.After(latestAt) {
			latestID = rec.ID
			latestAt = rec.UpdatedAt
		}
	}
	if latestID == "" {
		return "", fmt.Errorf("no application to attribute the vote to")
	}
	return latestID, nil
}

func (s *Service) snapshotByID() map[string]tracker.ApplicationRecord {
	records, _, err := index.ReadSnapshot(s.cfg.RecordsPath())
	if err != nil {
		return map[string]tracker.ApplicationRecord{}
	}
	byID := make(map[string]tracker.ApplicationRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	return byID
}
