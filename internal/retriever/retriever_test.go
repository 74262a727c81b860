package retriever

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/appsrag/internal/bandit"
	"github.com/fyrsmithlabs/appsrag/internal/config"
	"github.com/fyrsmithlabs/appsrag/internal/embeddings"
	"github.com/fyrsmithlabs/appsrag/internal/index"
	"github.com/fyrsmithlabs/appsrag/internal/memory"
	"github.com/fyrsmithlabs/appsrag/internal/piiguard"
	"github.com/fyrsmithlabs/appsrag/internal/tracker"
	"github.com/fyrsmithlabs/appsrag/internal/vectorstore"
)

type fixture struct {
	retriever *Retriever
	builder   *index.Builder
	memstore  *memory.Store
	model     *bandit.Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	provider, err := embeddings.NewHashingProvider(512)
	require.NoError(t, err)

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       filepath.Join(dir, "vectors"),
		VectorSize: 512,
	}, provider, nil)
	require.NoError(t, err)

	guard := piiguard.MustNew(piiguard.DefaultConfig())
	snapshotPath := filepath.Join(dir, "applications.jsonl")

	builder, err := index.NewBuilder(store, guard, index.BuilderConfig{
		SnapshotPath: snapshotPath,
		ManifestPath: filepath.Join(dir, "index_manifest.json"),
		Dimension:    512,
		Provider:     "hashing",
	}, nil)
	require.NoError(t, err)

	memstore, err := memory.NewStore(
		filepath.Join(dir, "memory_short.jsonl"),
		filepath.Join(dir, "memory_long.json"),
		guard, nil,
	)
	require.NoError(t, err)

	model, err := bandit.Open(filepath.Join(dir, "arms.json"), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	cfg := config.RetrievalConfig{
		Weights: config.FusionWeights{
			Vector: 0.48, Lexical: 0.22, Bandit: 0.20, ShortMemory: 0.06, LongMemory: 0.04,
		},
	}
	r, err := New(Options{
		Store:        store,
		Memory:       memstore,
		Model:        model,
		SnapshotPath: snapshotPath,
		Retrieval:    cfg,
		HalfLifeDays: 14,
	})
	require.NoError(t, err)

	return &fixture{retriever: r, builder: builder, memstore: memstore, model: model}
}

func corpus() []tracker.ApplicationRecord {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return []tracker.ApplicationRecord{
		{
			ID: "baseten__infra-engineer__a1", Company: "Baseten", Role: "Infra Engineer",
			Status: tracker.StatusApplied, Method: tracker.MethodAshby, Category: "infra",
			Tags: []string{"infra"}, UpdatedAt: base,
		},
		{
			ID: "acme__frontend-engineer__b2", Company: "Acme", Role: "Frontend Engineer",
			Status: tracker.StatusDraft, Method: tracker.MethodLinkedIn, Category: "frontend",
			Tags: []string{"frontend"}, UpdatedAt: base.Add(time.Hour),
		},
		{
			ID: "globex__platform-engineer__c3", Company: "Globex", Role: "Platform Engineer",
			Status: tracker.StatusApplied, Method: tracker.MethodReferral, Category: "infra",
			Tags: []string{"infra", "platform"}, UpdatedAt: base.Add(2 * time.Hour),
		},
	}
}

func TestRetrieveRanksRelevantFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.builder.Build(ctx, corpus())
	require.NoError(t, err)

	results, err := f.retriever.Retrieve(ctx, "infra engineer", Filters{}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "Baseten", results[0].Record.Company)
	assert.Greater(t, results[0].Score, 0.0)
	assert.Greater(t, results[0].VectorScore, 0.0)
	assert.Equal(t, 1.0, results[0].LexicalScore)

	assert.Equal(t, "Acme", results[2].Record.Company)
	assert.Less(t, results[2].LexicalScore, 1.0)
}

func TestRetrieveEmptyQueryIsComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	records := corpus()
	_, err := f.builder.Build(ctx, records)
	require.NoError(t, err)

	results, err := f.retriever.Retrieve(ctx, "", Filters{}, 100)
	require.NoError(t, err)
	require.Len(t, results, len(records), "empty query must return every record")

	seen := make(map[string]bool)
	for _, res := range results {
		seen[res.Record.ID] = true
		assert.Zero(t, res.VectorScore)
		assert.Zero(t, res.LexicalScore)
	}
	for _, rec := range records {
		assert.True(t, seen[rec.ID], "missing %s", rec.ID)
	}
}

func TestRetrieveHardFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.builder.Build(ctx, corpus())
	require.NoError(t, err)

	results, err := f.retriever.Retrieve(ctx, "engineer", Filters{Status: "applied"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, tracker.StatusApplied, res.Record.Status)
	}

	results, err = f.retriever.Retrieve(ctx, "engineer", Filters{Method: "ashby"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Baseten", results[0].Record.Company)

	results, err = f.retriever.Retrieve(ctx, "engineer", Filters{Status: "offer"}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveBanditPriorBoosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.builder.Build(ctx, corpus())
	require.NoError(t, err)

	// Pump the referral arm so Globex outranks the equally-tagged Baseten
	// on an arm-neutral query.
	for i := 0; i < 10; i++ {
		require.NoError(t, f.model.Feedback("infra", "referral", "interview"))
		require.NoError(t, f.model.Feedback("infra", "ashby", "no_response"))
	}

	results, err := f.retriever.Retrieve(ctx, "", Filters{Status: "applied"}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Globex", results[0].Record.Company)
	assert.Greater(t, results[0].BanditScore, results[1].BanditScore)
}

func TestRetrieveShortMemoryBoosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.builder.Build(ctx, corpus())
	require.NoError(t, err)

	ev := memory.NewShortEvent("baseten__infra-engineer__a1", memory.EventFeedback, "")
	ev.Outcome = "interview"
	require.NoError(t, f.memstore.AppendShort(ev))

	results, err := f.retriever.Retrieve(ctx, "", Filters{}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Baseten", results[0].Record.Company)
	assert.Greater(t, results[0].ShortMemory, 0.5)
}

func TestRetrieveTiesBreakByUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []tracker.ApplicationRecord{
		{ID: "older", Company: "Older Co", Role: "Engineer", Status: tracker.StatusApplied,
			Method: tracker.MethodDirect, Category: "infra", UpdatedAt: base},
		{ID: "newer", Company: "Newer Co", Role: "Engineer", Status: tracker.StatusApplied,
			Method: tracker.MethodDirect, Category: "infra", UpdatedAt: base.Add(24 * time.Hour)},
	}
	_, err := f.builder.Build(ctx, records)
	require.NoError(t, err)

	// Identical scores on every component: same arm, no memory, no query.
	results, err := f.retriever.Retrieve(ctx, "", Filters{}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "newer", results[0].Record.ID)
}

func TestRetrieveKBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.builder.Build(ctx, corpus())
	require.NoError(t, err)

	results, err := f.retriever.Retrieve(ctx, "engineer", Filters{}, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// Asking for more than exists returns all available, no error.
	results, err = f.retriever.Retrieve(ctx, "engineer", Filters{}, 500)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	_, err = f.retriever.Retrieve(ctx, "engineer", Filters{}, 0)
	require.Error(t, err)
}

func TestRetrieveWithoutIndex(t *testing.T) {
	f := newFixture(t)
	_, err := f.retriever.Retrieve(context.Background(), "engineer", Filters{}, 5)
	require.ErrorIs(t, err, index.ErrIndexUnavailable)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.builder.Build(ctx, nil)
	require.NoError(t, err)

	results, err := f.retriever.Retrieve(ctx, "anything", Filters{}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
