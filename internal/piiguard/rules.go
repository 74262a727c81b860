package piiguard

// DefaultRules returns the high-risk PII patterns the persistence gate
// enforces. Job-application artifacts legitimately contain names, emails
// and phone numbers; the gate only blocks the patterns that have no
// business being in a tracker: SSN-shaped sequences and dates of birth.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "ssn",
			Description: "SSN-shaped digit sequence",
			Pattern:     `\b\d{3}-\d{2}-\d{4}\b`,
		},
		{
			ID:          "dob",
			Description: "Date of birth near birth-related context",
			Pattern:     `\b(0[1-9]|1[0-2])/(0[1-9]|[12]\d|3[01])/(19\d{2}|20\d{2})\b`,
			// Plain dates are everywhere in a tracker (applied dates,
			// follow-ups); only a date with nearby birth context is a DOB.
			ContextPattern: `(?i)\b(dob|date of birth|birthdate|born)\b`,
			ContextWindow:  40,
		},
	}
}
