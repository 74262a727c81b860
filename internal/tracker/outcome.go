package tracker

import "strings"

// InferOutcome inspects a tracker row's status and response columns and
// returns a terminal outcome name for the feedback loop, or "" when the
// row carries no explicit outcome signal. The returned names match the
// bandit outcome taxonomy.
func InferOutcome(row Row) string {
	status := ParseStatus(row[colStatus])
	combined := strings.ToLower(strings.Join([]string{
		strings.TrimSpace(row[colResponse]),
		strings.TrimSpace(row[colStage]),
		strings.TrimSpace(row[colRespType]),
	}, " | "))

	switch {
	case status == StatusOffer || strings.Contains(combined, "offer"):
		return "offer"
	case status == StatusRejected || strings.Contains(combined, "reject"):
		return "rejected"
	case status == StatusBlocked,
		strings.Contains(combined, "blocked"),
		strings.Contains(combined, "captcha"):
		return "blocked"
	}

	// Interview and response signals only make sense once applied.
	if status != StatusApplied && status != StatusInterview && status != StatusResponse {
		return ""
	}
	if status == StatusInterview {
		return "interview"
	}
	for _, marker := range []string{"interview", "phone screen", "screening", "onsite", "final round"} {
		if strings.Contains(combined, marker) {
			return "interview"
		}
	}
	if status == StatusResponse {
		return "response"
	}
	for _, marker := range []string{"recruiter", "reached out", "reply", "responded", "response"} {
		if strings.Contains(combined, marker) {
			return "response"
		}
	}
	return ""
}

// OutcomeDedupeKey builds the idempotency key used when replaying
// tracker-derived outcomes, so re-running sync never double-counts an
// unchanged row.
func OutcomeDedupeKey(appID, outcome string, row Row) string {
	return strings.ToLower(strings.Join([]string{
		appID,
		outcome,
		strings.TrimSpace(row[colStatus]),
		strings.TrimSpace(row[colResponse]),
		strings.TrimSpace(row[colStage]),
		strings.TrimSpace(row[colRespType]),
	}, "|"))
}
