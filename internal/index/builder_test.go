package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/appsrag/internal/embeddings"
	"github.com/fyrsmithlabs/appsrag/internal/piiguard"
	"github.com/fyrsmithlabs/appsrag/internal/tracker"
	"github.com/fyrsmithlabs/appsrag/internal/vectorstore"
)

func testBuilder(t *testing.T) (*Builder, vectorstore.Store, BuilderConfig) {
	t.Helper()
	dir := t.TempDir()

	provider, err := embeddings.NewHashingProvider(256)
	require.NoError(t, err)

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       filepath.Join(dir, "vectors"),
		VectorSize: 256,
	}, provider, nil)
	require.NoError(t, err)

	cfg := BuilderConfig{
		SnapshotPath: filepath.Join(dir, "applications.jsonl"),
		ManifestPath: filepath.Join(dir, "index_manifest.json"),
		Dimension:    256,
		Provider:     "hashing",
	}
	b, err := NewBuilder(store, piiguard.MustNew(piiguard.DefaultConfig()), cfg, nil)
	require.NoError(t, err)
	return b, store, cfg
}

func sampleRecords() []tracker.ApplicationRecord {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return []tracker.ApplicationRecord{
		{
			ID: "baseten__infra-engineer__0000000001", Company: "Baseten", Role: "Infra Engineer",
			Status: tracker.StatusApplied, Method: tracker.MethodAshby, Category: "infra",
			Tags: []string{"infra"}, UpdatedAt: now,
		},
		{
			ID: "acme__frontend__0000000002", Company: "Acme", Role: "Frontend Engineer",
			Status: tracker.StatusDraft, Method: tracker.MethodLinkedIn, Category: "frontend",
			Tags: []string{"frontend"}, UpdatedAt: now.Add(time.Hour),
		},
	}
}

func TestBuildNonEmpty(t *testing.T) {
	b, store, cfg := testBuilder(t)
	ctx := context.Background()

	result, err := b.Build(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, SchemaVersion, result.SchemaVersion)
	assert.Zero(t, result.PIIRejected)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, corrupt, err := ReadSnapshot(cfg.SnapshotPath)
	require.NoError(t, err)
	assert.Zero(t, corrupt)
	require.Len(t, records, 2)
	assert.Equal(t, "Baseten", records[0].Company)

	manifest, err := ReadManifest(cfg.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, 2, manifest.Count)
	assert.Equal(t, 256, manifest.Dimension)
}

func TestBuildEmptyInputCreatesValidIndex(t *testing.T) {
	b, store, cfg := testBuilder(t)
	ctx := context.Background()

	result, err := b.Build(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Count)
	assert.Equal(t, SchemaVersion, result.SchemaVersion)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	records, _, err := ReadSnapshot(cfg.SnapshotPath)
	require.NoError(t, err)
	assert.Empty(t, records)

	manifest, err := ReadManifest(cfg.ManifestPath)
	require.NoError(t, err)
	assert.Zero(t, manifest.Count)
	assert.Equal(t, SchemaVersion, manifest.SchemaVersion)
}

func TestBuildIsIdempotent(t *testing.T) {
	b, store, cfg := testBuilder(t)
	ctx := context.Background()
	records := sampleRecords()

	_, err := b.Build(ctx, records)
	require.NoError(t, err)
	result, err := b.Build(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "rebuild must not duplicate documents")

	snapshot, _, err := ReadSnapshot(cfg.SnapshotPath)
	require.NoError(t, err)
	assert.Len(t, snapshot, 2)
}

func TestBuildReplacesWholesale(t *testing.T) {
	b, store, cfg := testBuilder(t)
	ctx := context.Background()
	records := sampleRecords()

	_, err := b.Build(ctx, records)
	require.NoError(t, err)

	// Rebuilding from a smaller set drops the removed record.
	result, err := b.Build(ctx, records[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	snapshot, _, err := ReadSnapshot(cfg.SnapshotPath)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Baseten", snapshot[0].Company)
}

func TestBuildRejectsPIIRecords(t *testing.T) {
	b, _, cfg := testBuilder(t)
	ctx := context.Background()

	records := sampleRecords()
	records[1].Notes = "candidate ssn 123-45-6789"

	result, err := b.Build(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 1, result.PIIRejected)
	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0], "acme__frontend__0000000002")

	// The flagged string never reached disk.
	data, err := os.ReadFile(cfg.SnapshotPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "123-45-6789")
}

func TestReadSnapshotMissing(t *testing.T) {
	_, _, err := ReadSnapshot(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestReadSnapshotSkipsCorruptLines(t *testing.T) {
	b, _, cfg := testBuilder(t)
	_, err := b.Build(context.Background(), sampleRecords())
	require.NoError(t, err)

	f, err := os.OpenFile(cfg.SnapshotPath, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("{broken\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	records, corrupt, err := ReadSnapshot(cfg.SnapshotPath)
	require.NoError(t, err)
	assert.Equal(t, 1, corrupt)
	assert.Len(t, records, 2)
}

func TestReadManifestErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadManifest(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, ErrIndexUnavailable)

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{oops"), 0o600))
	_, err = ReadManifest(corrupt)
	require.ErrorIs(t, err, ErrIndexUnavailable)

	stale := filepath.Join(dir, "stale.json")
	require.NoError(t, os.WriteFile(stale, []byte(`{"schema_version":"apps.index.v0"}`), 0o600))
	_, err = ReadManifest(stale)
	require.ErrorIs(t, err, ErrIndexUnavailable)
}
