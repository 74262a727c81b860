package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// LastResults remembers the most recent ranked result set so a bare
// thumb vote can be attributed to the top hit.
type LastResults struct {
	Source string    `json:"source"`
	Query  string    `json:"query"`
	AppIDs []string  `json:"app_ids"`
	TS     time.Time `json:"ts"`
}

// sessionState is the small cross-invocation scratch file. Best-effort:
// a corrupt or missing file is treated as empty, never an error.
type sessionState struct {
	LastResults *LastResults `json:"last_results,omitempty"`
}

func (s *Service) loadSession() sessionState {
	var state sessionState
	data, err := os.ReadFile(s.cfg.SessionStatePath())
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return sessionState{}
	}
	return state
}

func (s *Service) saveSession(state sessionState) {
	path := s.cfg.SessionStatePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return
	}
	_ = os.Rename(tmp, path)
}

// rememberResults records the ranked app ids from a query or retrieve
// so the next thumb vote without an explicit app id targets the top hit.
func (s *Service) rememberResults(source, query string, appIDs []string) {
	state := s.loadSession()
	state.LastResults = &LastResults{
		Source: source,
		Query:  query,
		AppIDs: appIDs,
		TS:     s.now().UTC(),
	}
	s.saveSession(state)
}
