package tracker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Baseten":        "baseten",
		"Foo Bar, Inc.":  "foo-bar-inc",
		"  Weird__Name ": "weird-name",
		"":               "unknown",
		"!!!":            "unknown",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestStableID(t *testing.T) {
	captured := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	a := StableID("Baseten", "Infra Engineer", captured)
	b := StableID("Baseten", "Infra Engineer", captured)
	assert.Equal(t, a, b, "same inputs yield same id")
	assert.True(t, strings.HasPrefix(a, "baseten__infra-engineer__"))

	c := StableID("Baseten", "Infra Engineer", captured.AddDate(0, 1, 0))
	assert.NotEqual(t, a, c, "different capture dates yield different ids")

	d := StableID("Baseten", "Mobile Engineer", captured)
	assert.NotEqual(t, a, d)
}

func TestInferMethod(t *testing.T) {
	cases := map[string]Method{
		"https://jobs.ashbyhq.com/baseten/123":       MethodAshby,
		"https://boards.greenhouse.io/acme/jobs/1":   MethodGreenhouse,
		"https://www.linkedin.com/jobs/view/999":     MethodLinkedIn,
		"https://jobs.lever.co/other/abc":            MethodOther,
		"https://acme.wd1.myworkdayjobs.com/careers": MethodOther,
		"https://acme.com/careers":                   MethodDirect,
		"":                                           MethodDirect,
	}
	for url, want := range cases {
		assert.Equal(t, want, InferMethod(url), url)
	}
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusApplied, ParseStatus("applied"))
	assert.Equal(t, StatusApplied, ParseStatus(" Applied "))
	assert.Equal(t, StatusDraft, ParseStatus("In Progress"))
	assert.Equal(t, StatusDraft, ParseStatus(""))
	assert.Equal(t, StatusDraft, ParseStatus("whatever"))
	assert.Equal(t, StatusOffer, ParseStatus("OFFER"))
}

func TestParseMethod(t *testing.T) {
	assert.Equal(t, MethodDirect, ParseMethod(""))
	assert.Equal(t, MethodAshby, ParseMethod("Ashby"))
	assert.Equal(t, MethodReferral, ParseMethod("referral"))
	assert.Equal(t, MethodOther, ParseMethod("workday"))
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"infra", "remote"}, ParseTags("infra; remote"))
	assert.Nil(t, ParseTags("  "))
	assert.Equal(t, []string{"solo"}, ParseTags("solo;"))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, ParseDate("2026-01-15"))
	assert.Equal(t, want, ParseDate("01/15/2026"))
	assert.True(t, ParseDate("").IsZero())
	assert.True(t, ParseDate("soon").IsZero())
}

func TestNormalize(t *testing.T) {
	n := &Normalizer{Now: fixedNow}

	t.Run("valid row", func(t *testing.T) {
		rows := []Row{{
			"Company":         "Baseten",
			"Role":            "Infra Engineer",
			"Status":          "Applied",
			"Tags":            "infra;remote",
			"Career Page URL": "https://jobs.ashbyhq.com/baseten/123",
			"Date Applied":    "2026-01-15",
			"Notes":           "warm intro",
		}}
		records, errs := n.Normalize(rows)
		require.Empty(t, errs)
		require.Len(t, records, 1)

		rec := records[0]
		assert.Equal(t, "Baseten", rec.Company)
		assert.Equal(t, StatusApplied, rec.Status)
		assert.Equal(t, MethodAshby, rec.Method)
		assert.Equal(t, "infra", rec.Category)
		assert.Equal(t, []string{"infra", "remote"}, rec.Tags)
		assert.Equal(t, fixedNow(), rec.UpdatedAt)
		// CapturedAt falls back to AppliedAt when absent.
		assert.Equal(t, ParseDate("2026-01-15"), rec.CapturedAt)
	})

	t.Run("explicit method wins over URL", func(t *testing.T) {
		rows := []Row{{
			"Company":         "Acme",
			"Role":            "SRE",
			"Method":          "referral",
			"Career Page URL": "https://jobs.ashbyhq.com/acme/1",
		}}
		records, errs := n.Normalize(rows)
		require.Empty(t, errs)
		assert.Equal(t, MethodReferral, records[0].Method)
	})

	t.Run("malformed rows are skipped not fatal", func(t *testing.T) {
		rows := []Row{
			{"Company": "", "Role": "Ghost Role"},
			{"Company": "Acme", "Role": "SRE"},
			{"Company": "NoRole", "Role": "  "},
		}
		records, errs := n.Normalize(rows)
		assert.Len(t, records, 1)
		require.Len(t, errs, 2)
		assert.Equal(t, 1, errs[0].Line)
		assert.Contains(t, errs[0].Reason, "company")
		assert.Equal(t, 3, errs[1].Line)
		assert.Contains(t, errs[1].Reason, "role")
	})

	t.Run("duplicate ids keep first occurrence", func(t *testing.T) {
		row := Row{"Company": "Acme", "Role": "SRE", "Date Captured": "2026-01-01", "Notes": "first"}
		dup := Row{"Company": "Acme", "Role": "SRE", "Date Captured": "2026-01-01", "Notes": "second"}
		records, errs := n.Normalize([]Row{row, dup})
		require.Empty(t, errs)
		require.Len(t, records, 1)
		assert.Equal(t, "first", records[0].Notes)
	})

	t.Run("row order is preserved", func(t *testing.T) {
		rows := []Row{
			{"Company": "Zeta", "Role": "A"},
			{"Company": "Alpha", "Role": "B"},
		}
		records, _ := n.Normalize(rows)
		require.Len(t, records, 2)
		assert.Equal(t, "Zeta", records[0].Company)
		assert.Equal(t, "Alpha", records[1].Company)
	})
}

func TestResolveArtifacts(t *testing.T) {
	dir := t.TempDir()
	companyDir := filepath.Join(dir, "baseten")
	for _, sub := range []string{"tailored_resumes", "cover_letters", "submissions", "job_postings"} {
		require.NoError(t, os.MkdirAll(filepath.Join(companyDir, sub), 0o755))
	}
	write := func(rel string) {
		require.NoError(t, os.WriteFile(filepath.Join(companyDir, rel), []byte("x"), 0o644))
	}
	write("tailored_resumes/resume_v2.pdf")
	write("cover_letters/cover.md")
	write("submissions/confirmation.png")
	write("job_postings/posting.md")

	got := ResolveArtifacts(dir, "Baseten")
	assert.Equal(t, []string{"baseten/tailored_resumes/resume_v2.pdf"}, got.Resumes)
	assert.Equal(t, []string{"baseten/cover_letters/cover.md"}, got.CoverLetters)
	assert.Equal(t, []string{"baseten/submissions/confirmation.png"}, got.Evidence)
	assert.Equal(t, "baseten/job_postings/posting.md", got.JobPosting)

	t.Run("missing company dir yields empty", func(t *testing.T) {
		got := ResolveArtifacts(dir, "Nobody")
		assert.Empty(t, got.Resumes)
		assert.Empty(t, got.Evidence)
	})
}

func TestParseCSV(t *testing.T) {
	input := `Company,Role,Status,Tags
Baseten,Infra Engineer,Applied,infra
,,,
Acme,SRE,Draft,
`
	rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2, "fully-empty rows are dropped")
	assert.Equal(t, "Baseten", rows[0]["Company"])
	assert.Equal(t, "Draft", rows[1]["Status"])
}

func TestSearchText(t *testing.T) {
	rec := ApplicationRecord{
		Company: "Baseten",
		Role:    "Infra Engineer",
		Status:  StatusApplied,
		Method:  MethodAshby,
		Tags:    []string{"infra"},
		Notes:   "warm intro",
	}
	text := rec.SearchText()
	for _, want := range []string{"Baseten", "Infra Engineer", "Applied", "ashby", "infra", "warm intro"} {
		assert.Contains(t, text, want)
	}
}

func TestRowID(t *testing.T) {
	row := Row{
		"Company":       "Baseten",
		"Role":          "Infra Engineer",
		"Date Captured": "2026-01-05",
	}
	rows := []Row{row}
	n := &Normalizer{}
	records, errs := n.Normalize(rows)
	require.Empty(t, errs)
	require.Len(t, records, 1)
	assert.Equal(t, records[0].ID, RowID(row))

	// Capture date falls back to the applied date, matching Normalize.
	fallback := Row{
		"Company":      "Baseten",
		"Role":         "Infra Engineer",
		"Date Applied": "2026-01-05",
	}
	assert.Equal(t, RowID(row), RowID(fallback))

	assert.Empty(t, RowID(Row{"Role": "Infra Engineer"}))
}
