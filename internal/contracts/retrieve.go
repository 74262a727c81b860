// Package contracts defines the strict request/response shapes for the
// agent-facing retrieve operation, including the versioned envelope.
package contracts

import (
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Contract identity and limits for the retrieve operation.
const (
	ContractRetrieveV1 = "apps.retrieve.v1"
	ContractVersion    = "2026-02-19"

	// MaxQueryLength caps the free-text query.
	MaxQueryLength = 512

	// MaxK caps the requested result count.
	MaxK = 200

	// MaxFilterLength caps each filter value.
	MaxFilterLength = 120

	// MaxContextLength caps the context snippet carried per result.
	MaxContextLength = 320
)

// RetrieveRequest is the validated retrieve input. Filters are hard
// pre-filters, not soft boosts.
type RetrieveRequest struct {
	Query  string `json:"query"`
	K      int    `json:"k"`
	Status string `json:"status,omitempty"`
	Method string `json:"method,omitempty"`
}

// NewRetrieveRequest trims and validates a retrieve request.
func NewRetrieveRequest(query string, k int, status, method string) (RetrieveRequest, error) {
	req := RetrieveRequest{
		Query:  strings.TrimSpace(query),
		K:      k,
		Status: strings.TrimSpace(status),
		Method: strings.TrimSpace(method),
	}
	if err := req.Validate(); err != nil {
		return RetrieveRequest{}, err
	}
	return req, nil
}

// Validate enforces the contract limits.
func (r RetrieveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required, validation.Length(1, MaxQueryLength)),
		validation.Field(&r.K, validation.Required, validation.Min(1), validation.Max(MaxK)),
		validation.Field(&r.Status, validation.Length(0, MaxFilterLength)),
		validation.Field(&r.Method, validation.Length(0, MaxFilterLength)),
	)
}

// RetrieveItem is one canonical retrieve result. Scores are rounded to
// four decimals so envelopes compare stably across runs.
type RetrieveItem struct {
	AppID    string   `json:"app_id"`
	Company  string   `json:"company"`
	Role     string   `json:"role"`
	Status   string   `json:"status"`
	Method   string   `json:"method"`
	Tags     []string `json:"tags"`
	Score    float64  `json:"score"`
	Context  string   `json:"context"`
	Evidence []string `json:"evidence"`
}

// Canonicalize normalizes the item in place: nil slices become empty,
// the score is rounded, and the context snippet is truncated.
func (i *RetrieveItem) Canonicalize() {
	if i.Tags == nil {
		i.Tags = []string{}
	}
	if i.Evidence == nil {
		i.Evidence = []string{}
	}
	i.Score = math.Round(i.Score*10000) / 10000
	if i.Score < 0 {
		i.Score = 0
	}
	if len(i.Context) > MaxContextLength {
		i.Context = i.Context[:MaxContextLength]
	}
}
