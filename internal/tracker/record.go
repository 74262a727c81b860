// Package tracker normalizes application tracker rows into canonical records.
package tracker

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an application. Transitions are not
// strictly ordered; Rejected can follow Applied or Draft.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusApplied   Status = "Applied"
	StatusBlocked   Status = "Blocked"
	StatusRejected  Status = "Rejected"
	StatusResponse  Status = "Response"
	StatusInterview Status = "Interview"
	StatusOffer     Status = "Offer"
	StatusClosed    Status = "Closed"
)

// Method is how the application was (or will be) submitted.
type Method string

const (
	MethodDirect     Method = "direct"
	MethodAshby      Method = "ashby"
	MethodGreenhouse Method = "greenhouse"
	MethodLinkedIn   Method = "linkedin"
	MethodReferral   Method = "referral"
	MethodOther      Method = "other"
)

// ArtifactPaths are the per-application artifact references. Paths only;
// artifact content is never embedded in a record.
type ArtifactPaths struct {
	// JobPosting is the captured job description, if any.
	JobPosting string `json:"job_posting,omitempty"`

	// Resumes are tailored resume paths.
	Resumes []string `json:"resumes,omitempty"`

	// CoverLetters are cover letter paths.
	CoverLetters []string `json:"cover_letters,omitempty"`

	// Evidence are submission evidence paths (confirmation pages, etc).
	Evidence []string `json:"evidence,omitempty"`
}

// ApplicationRecord is the canonical per-application record. Created only
// by the normalizer from tracker rows; status/outcome fields are the only
// parts mutated outside a full re-ingestion, and only via feedback.
type ApplicationRecord struct {
	// ID is a stable identifier derived from company, role and capture date.
	ID string `json:"app_id"`

	Company string `json:"company"`
	Role    string `json:"role"`
	Status  Status `json:"status"`
	Method  Method `json:"method"`

	// Category is the primary free-form role tag ("infra", "mobile", ...).
	Category string `json:"category"`

	// Tags are all role tags including Category.
	Tags []string `json:"tags,omitempty"`

	// URL is the job posting or career page URL.
	URL string `json:"url,omitempty"`

	// Notes is operator free text from the tracker.
	Notes string `json:"notes,omitempty"`

	Artifacts ArtifactPaths `json:"artifacts"`

	// CapturedAt is when the posting was first recorded in the tracker.
	CapturedAt time.Time `json:"captured_at"`

	// AppliedAt is when the application was submitted, zero if not yet.
	AppliedAt time.Time `json:"applied_at,omitempty"`

	// UpdatedAt is the last tracker or feedback touch.
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchText is the keyword-searchable blob shared by the lexical scorer
// and the vector embedding: company, role, category, status, notes.
func (r *ApplicationRecord) SearchText() string {
	parts := []string{
		"Company: " + r.Company,
		"Role: " + r.Role,
		"Status: " + string(r.Status),
		"Method: " + string(r.Method),
		"Tags: " + strings.Join(r.Tags, ";"),
	}
	if r.Notes != "" {
		parts = append(parts, "Notes: "+r.Notes)
	}
	return strings.Join(parts, "\n")
}

// ArmKey is the bandit arm this record contributes to.
func (r *ApplicationRecord) ArmKey() (category, method string) {
	return r.Category, string(r.Method)
}

// knownStatuses maps lowercased tracker values to Status.
var knownStatuses = map[string]Status{
	"draft":       StatusDraft,
	"in progress": StatusDraft,
	"applied":     StatusApplied,
	"blocked":     StatusBlocked,
	"rejected":    StatusRejected,
	"response":    StatusResponse,
	"interview":   StatusInterview,
	"offer":       StatusOffer,
	"closed":      StatusClosed,
}

// ParseStatus maps a raw tracker status cell to a Status. Unknown or
// empty values default to Draft.
func ParseStatus(raw string) Status {
	if s, ok := knownStatuses[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusDraft
}

// ParseMethod maps a raw method cell to a Method. Unknown non-empty
// values map to other; empty maps to direct.
func ParseMethod(raw string) Method {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return MethodDirect
	case "direct":
		return MethodDirect
	case "ashby":
		return MethodAshby
	case "greenhouse":
		return MethodGreenhouse
	case "linkedin":
		return MethodLinkedIn
	case "referral":
		return MethodReferral
	default:
		return MethodOther
	}
}
