package piiguard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		g, err := New(nil)
		require.NoError(t, err)
		assert.True(t, g.Enabled())
	})

	t.Run("missing rule ID", func(t *testing.T) {
		_, err := New(&Config{Enabled: true, Rules: []Rule{{Pattern: `x`}}})
		assert.Error(t, err)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := New(&Config{Enabled: true, Rules: []Rule{{ID: "bad", Pattern: `[`}}})
		assert.Error(t, err)
	})

	t.Run("invalid context pattern", func(t *testing.T) {
		_, err := New(&Config{Enabled: true, Rules: []Rule{{ID: "bad", Pattern: `x`, ContextPattern: `[`}}})
		assert.Error(t, err)
	})
}

func TestCheckSSN(t *testing.T) {
	g := MustNew(nil)

	t.Run("detects ssn", func(t *testing.T) {
		result := g.Check("my ssn is 123-45-6789 thanks")
		require.False(t, result.Clean())
		assert.Equal(t, 1, result.ByRule["ssn"])
		assert.Equal(t, []string{"ssn"}, result.RuleIDs())
	})

	t.Run("ignores phone-shaped numbers", func(t *testing.T) {
		result := g.Check("call 415-555-0199 or 555-0123")
		assert.True(t, result.Clean())
	})

	t.Run("line numbers", func(t *testing.T) {
		result := g.Check("line one\nline two 123-45-6789")
		require.Len(t, result.Findings, 1)
		assert.Equal(t, 2, result.Findings[0].Line)
	})
}

func TestCheckDOB(t *testing.T) {
	g := MustNew(nil)

	t.Run("date with birth context", func(t *testing.T) {
		result := g.Check("DOB: 01/02/1990")
		require.False(t, result.Clean())
		assert.Equal(t, 1, result.ByRule["dob"])
	})

	t.Run("date of birth phrasing", func(t *testing.T) {
		result := g.Check("date of birth is 12/31/1985 per the form")
		assert.False(t, result.Clean())
	})

	t.Run("plain date without context is allowed", func(t *testing.T) {
		result := g.Check("applied on 01/02/2026, follow up 01/09/2026")
		assert.True(t, result.Clean())
	})

	t.Run("context outside window is ignored", func(t *testing.T) {
		padding := "interview notes from the recruiter call about compensation bands "
		result := g.Check("born in Ohio." + padding + "meeting on 03/04/1991")
		assert.True(t, result.Clean())
	})
}

func TestGate(t *testing.T) {
	g := MustNew(nil)

	t.Run("clean text passes", func(t *testing.T) {
		assert.NoError(t, g.Gate("notes", "strong infra background, applied via ashby"))
	})

	t.Run("ssn is rejected with field name", func(t *testing.T) {
		err := g.Gate("notes", "ssn 123-45-6789")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPIIDetected))
		assert.Contains(t, err.Error(), `"notes"`)
		assert.Contains(t, err.Error(), "ssn")
	})

	t.Run("disabled guard passes everything", func(t *testing.T) {
		off := MustNew(&Config{Enabled: false, Rules: DefaultRules()})
		assert.NoError(t, off.Gate("notes", "123-45-6789"))
	})
}

func TestRedact(t *testing.T) {
	g := MustNew(nil)

	out := g.Redact("ssn 123-45-6789 and DOB: 01/02/1990 end")
	assert.NotContains(t, out, "123-45-6789")
	assert.NotContains(t, out, "01/02/1990")
	assert.Contains(t, out, "[REDACTED_SSN]")
	assert.Contains(t, out, "[REDACTED_DOB]")
	assert.Contains(t, out, "end")

	assert.Equal(t, "nothing here", g.Redact("nothing here"))
}
