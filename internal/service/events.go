package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/appsrag/internal/memory"
)

// appendAudit writes one line to the events audit log and mirrors the
// event into short-term memory, returning the event id ("" when the
// write failed). Audit failures are logged, never fatal: the operation
// that produced the event already succeeded.
func (s *Service) appendAudit(appID, eventType, msg, outcome string) string {
	event := memory.NewShortEvent(appID, eventType, msg)
	event.Outcome = outcome
	if appID != "" {
		if rec, err := s.findRecord(appID); err == nil {
			event.Category, event.Method = rec.ArmKey()
		}
	}

	if err := s.memstore.AppendShort(event); err != nil {
		s.logger.Warn("short memory append failed", zap.Error(err))
		return ""
	}
	if err := s.appendEventLine(event); err != nil {
		s.logger.Warn("audit log append failed", zap.Error(err))
	}
	return event.ID
}

// appendEventLine appends one JSON line to events.jsonl. The payload has
// already passed the PII gate via AppendShort.
func (s *Service) appendEventLine(event memory.ShortEvent) error {
	path := s.cfg.EventsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// Log records an operator note against an application. The note goes
// through the PII gate; a rejected note is an error, not a silent drop.
func (s *Service) Log(appID, eventType, msg string) error {
	if eventType == "" {
		eventType = memory.EventNote
	}
	event := memory.NewShortEvent(appID, eventType, msg)
	if appID != "" {
		rec, err := s.findRecord(appID)
		if err != nil {
			return err
		}
		event.Category, event.Method = rec.ArmKey()
	}
	if err := s.memstore.AppendShort(event); err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return s.appendEventLine(event)
}

// ReadEvents returns the episodic event stream, oldest first. Missing
// file means no events yet.
func (s *Service) ReadEvents() ([]memory.ShortEvent, error) {
	events, _, err := s.memstore.ReadShort(time.Time{})
	return events, err
}
