package bandit

import (
	"fmt"
	"sort"
	"strings"
)

// Outcome is a terminal application outcome fed back into the model.
type Outcome string

const (
	OutcomeResponse   Outcome = "response"
	OutcomeInterview  Outcome = "interview"
	OutcomeOffer      Outcome = "offer"
	OutcomeRejected   Outcome = "rejected"
	OutcomeNoResponse Outcome = "no_response"
	OutcomeBlocked    Outcome = "blocked"
)

// outcomeSuccess maps each valid outcome to its success/failure class.
// "applied" and "draft" are statuses, not terminal outcomes, and are
// deliberately absent: feeding them back is an error.
var outcomeSuccess = map[Outcome]bool{
	OutcomeResponse:   true,
	OutcomeInterview:  true,
	OutcomeOffer:      true,
	OutcomeRejected:   false,
	OutcomeNoResponse: false,
	OutcomeBlocked:    false,
}

// scoreHints weight episodic memory recency boosts per outcome.
var scoreHints = map[Outcome]float64{
	OutcomeBlocked:    0.2,
	OutcomeNoResponse: 0.3,
	OutcomeRejected:   0.4,
	OutcomeResponse:   0.7,
	OutcomeInterview:  0.9,
	OutcomeOffer:      1.0,
}

// ParseOutcome validates a raw outcome string. Returns ErrInvalidOutcome
// for unknown values and for non-terminal statuses.
func ParseOutcome(raw string) (Outcome, error) {
	o := Outcome(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := outcomeSuccess[o]; !ok {
		return "", fmt.Errorf("%w: %q (valid: %s)", ErrInvalidOutcome, raw, strings.Join(ValidOutcomes(), ", "))
	}
	return o, nil
}

// IsSuccess reports whether the outcome counts as a success.
func (o Outcome) IsSuccess() bool { return outcomeSuccess[o] }

// ScoreHint returns the memory recency weight for this outcome.
// Unknown outcomes get a neutral 0.35.
func (o Outcome) ScoreHint() float64 {
	if hint, ok := scoreHints[o]; ok {
		return hint
	}
	return 0.35
}

// ValidOutcomes lists the accepted outcome names, sorted.
func ValidOutcomes() []string {
	names := make([]string, 0, len(outcomeSuccess))
	for o := range outcomeSuccess {
		names = append(names, string(o))
	}
	sort.Strings(names)
	return names
}
