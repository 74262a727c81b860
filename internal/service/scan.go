package service

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/appsrag/internal/piiguard"
)

// scanExtensions are the artifact file types the PII scan inspects.
var scanExtensions = map[string]bool{
	".md":    true,
	".txt":   true,
	".html":  true,
	".csv":   true,
	".jsonl": true,
}

// ScanFinding is one PII hit in an artifact file.
type ScanFinding struct {
	Path    string   `json:"path"`
	RuleIDs []string `json:"rule_ids"`
}

// ScanReport summarizes one read-only sweep over the artifact tree.
type ScanReport struct {
	Scanned  int           `json:"scanned"`
	Findings []ScanFinding `json:"findings"`
}

// CheckText runs the PII rules over a text blob without touching any
// store. Used for ad-hoc checks before content is pasted somewhere.
func (s *Service) CheckText(content string) *piiguard.Result {
	return s.guard.Check(content)
}

// Scan walks the artifact tree and reports files containing detectable
// PII. Read-only: it never rewrites or redacts files, it only points at
// what the operator should clean up.
func (s *Service) Scan(root string) (*ScanReport, error) {
	if root == "" {
		root = s.cfg.Paths.ApplicationsDir
	}

	report := &ScanReport{Findings: []ScanFinding{}}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !scanExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("scan skipped unreadable file", zap.String("path", path), zap.Error(err))
			return nil
		}
		report.Scanned++
		if result := s.guard.Check(string(data)); !result.Clean() {
			report.Findings = append(report.Findings, ScanFinding{
				Path:    path,
				RuleIDs: result.RuleIDs(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
