package tracker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Row is one tracker row keyed by header name.
type Row map[string]string

// Tracker column names. The tracker is a spreadsheet export, so headers
// are human-facing.
const (
	colCompany  = "Company"
	colRole     = "Role"
	colStatus   = "Status"
	colMethod   = "Method"
	colTags     = "Tags"
	colURL      = "Career Page URL"
	colNotes    = "Notes"
	colCaptured = "Date Captured"
	colApplied  = "Date Applied"
	colResponse = "Response"
	colStage    = "Interview Stage"
	colRespType = "Response Type"
)

// RowError reports a tracker row that could not be normalized. Rows fail
// soft: the error is collected and the build continues.
type RowError struct {
	// Line is the 1-indexed data row number (header excluded).
	Line int

	// Company and Role echo whatever the row carried, for the report.
	Company string
	Role    string

	// Reason describes the validation failure.
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("tracker row %d (%s / %s): %s", e.Line, e.Company, e.Role, e.Reason)
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases and dash-joins a string for ids and directory names.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(nonAlnumRe.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "unknown"
	}
	return s
}

// StableID derives the record identity from company, role and the
// capture date. The hash suffix keeps ids unique when the same company
// and role recur.
func StableID(company, role string, captured time.Time) string {
	date := ""
	if !captured.IsZero() {
		date = captured.UTC().Format("2006-01-02")
	}
	base := Slug(company) + "__" + Slug(role) + "__" + date
	sum := sha256.Sum256([]byte(base))
	return Slug(company) + "__" + Slug(role) + "__" + hex.EncodeToString(sum[:])[:10]
}

// RowID derives the stable record id for a raw tracker row, matching
// what Normalize assigns. Rows missing company or role return "".
func RowID(row Row) string {
	company := strings.TrimSpace(row[colCompany])
	role := strings.TrimSpace(row[colRole])
	if company == "" || role == "" {
		return ""
	}
	captured := ParseDate(row[colCaptured])
	if captured.IsZero() {
		captured = ParseDate(row[colApplied])
	}
	return StableID(company, role, captured)
}

// atsPatterns maps URL shapes to methods, most specific first. ATS hosts
// outside the method enum (lever, workday, ...) fall through to other.
var atsPatterns = []struct {
	method  Method
	pattern *regexp.Regexp
}{
	{MethodAshby, regexp.MustCompile(`ashbyhq\.com`)},
	{MethodGreenhouse, regexp.MustCompile(`greenhouse\.io`)},
	{MethodLinkedIn, regexp.MustCompile(`linkedin\.com/jobs`)},
	{MethodOther, regexp.MustCompile(`jobs\.lever\.co|myworkdayjobs\.com|workday\.com|wellfound\.com|angel\.co`)},
}

// InferMethod infers the application method from the job URL. An explicit
// tracker Method cell wins over inference.
func InferMethod(url string) Method {
	url = strings.ToLower(url)
	for _, ats := range atsPatterns {
		if ats.pattern.MatchString(url) {
			return ats.method
		}
	}
	return MethodDirect
}

// ParseTags splits a semicolon-separated tag cell.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(raw, ";") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// dateLayouts are the formats tracker date cells show up in.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// ParseDate parses a tracker date cell. Empty or unparseable cells
// return the zero time.
func ParseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Normalizer turns tracker rows into ApplicationRecords.
type Normalizer struct {
	// ApplicationsDir is the artifact root with per-company subdirectories.
	// Empty disables artifact resolution.
	ApplicationsDir string

	// Now supplies the normalization timestamp; defaults to time.Now.
	Now func() time.Time
}

// Normalize converts rows in order. Malformed rows (missing company or
// role) are skipped and reported; one bad row never aborts the batch.
// Duplicate ids after the first occurrence are dropped.
func (n *Normalizer) Normalize(rows []Row) ([]ApplicationRecord, []RowError) {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}

	records := make([]ApplicationRecord, 0, len(rows))
	var errs []RowError
	seen := make(map[string]bool, len(rows))

	for i, row := range rows {
		line := i + 1
		company := strings.TrimSpace(row[colCompany])
		role := strings.TrimSpace(row[colRole])
		if company == "" || role == "" {
			missing := "company"
			if company != "" {
				missing = "role"
			}
			errs = append(errs, RowError{Line: line, Company: company, Role: role, Reason: "missing required field " + missing})
			continue
		}

		url := strings.TrimSpace(row[colURL])
		captured := ParseDate(row[colCaptured])
		applied := ParseDate(row[colApplied])
		if captured.IsZero() {
			captured = applied
		}

		method := ParseMethod(row[colMethod])
		if strings.TrimSpace(row[colMethod]) == "" && url != "" {
			method = InferMethod(url)
		}

		tags := ParseTags(row[colTags])
		category := ""
		if len(tags) > 0 {
			category = tags[0]
		}

		rec := ApplicationRecord{
			ID:         StableID(company, role, captured),
			Company:    company,
			Role:       role,
			Status:     ParseStatus(row[colStatus]),
			Method:     method,
			Category:   category,
			Tags:       tags,
			URL:        url,
			Notes:      strings.TrimSpace(row[colNotes]),
			CapturedAt: captured,
			AppliedAt:  applied,
			UpdatedAt:  now().UTC(),
		}

		if n.ApplicationsDir != "" {
			rec.Artifacts = ResolveArtifacts(n.ApplicationsDir, company)
		}

		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		records = append(records, rec)
	}

	return records, errs
}
