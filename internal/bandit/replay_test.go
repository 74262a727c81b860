package bandit

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayAppliesEachEventOnce(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "arms.json"), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	ledger := OpenLedger(filepath.Join(dir, "feedback_seen.json"))

	events := []FeedbackEvent{
		{EventID: "ev-1", Category: "ml-platform", Method: "referral", Outcome: "interview"},
		{EventID: "ev-2", Category: "ml-platform", Method: "referral", Outcome: "offer"},
		{EventID: "ev-3", Category: "backend", Method: "linkedin", Outcome: "no_response"},
	}

	summary := m.Replay(events, ledger)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 0, summary.Invalid)

	arm := m.Arm("ml-platform", "referral")
	require.NotNil(t, arm)
	assert.Equal(t, 3.0, arm.Alpha)
	assert.Equal(t, 1.0, arm.Beta)

	// Replaying the same stream must not double-count.
	summary = m.Replay(events, ledger)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 3, summary.Duplicates)
	assert.Equal(t, 3.0, arm.Alpha)
	assert.Equal(t, 1.0, arm.Beta)
	assert.Equal(t, 2, arm.Pulls)
}

func TestReplaySkipsInvalidWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "arms.json"), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	ledger := OpenLedger(filepath.Join(dir, "feedback_seen.json"))

	events := []FeedbackEvent{
		{EventID: "ev-1", Category: "infra", Method: "direct", Outcome: "offer"},
		{EventID: "ev-2", Category: "infra", Method: "direct", Outcome: "applied"}, // status, not outcome
		{EventID: "", Category: "infra", Method: "direct", Outcome: "offer"},       // no id
		{EventID: "ev-3", Category: "", Method: "direct", Outcome: "offer"},        // bad arm
		{EventID: "ev-4", Category: "infra", Method: "direct", Outcome: "rejected"},
	}

	summary := m.Replay(events, ledger)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 3, summary.Invalid)
	assert.Len(t, summary.Errors, 3)

	// Failed events stay out of the ledger so a corrected replay can land.
	assert.False(t, ledger.Seen("ev-2"))
	assert.False(t, ledger.Seen("ev-3"))
	assert.True(t, ledger.Seen("ev-1"))
	assert.True(t, ledger.Seen("ev-4"))
}

func TestLedgerPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "feedback_seen.json")

	ledger := OpenLedger(path)
	assert.Equal(t, 0, ledger.Len())
	ledger.Add("ev-b")
	ledger.Add("ev-a")
	require.NoError(t, ledger.Save())

	reopened := OpenLedger(path)
	assert.Equal(t, 2, reopened.Len())
	assert.True(t, reopened.Seen("ev-a"))
	assert.True(t, reopened.Seen("ev-b"))
	assert.False(t, reopened.Seen("ev-c"))

	// Persisted form is a sorted id list.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `["ev-a","ev-b"]`, string(data))
}

func TestLedgerCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback_seen.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	ledger := OpenLedger(path)
	assert.Equal(t, 0, ledger.Len())
}
