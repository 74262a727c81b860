package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/appsrag/internal/piiguard"
	"github.com/fyrsmithlabs/appsrag/internal/tracker"
	"github.com/fyrsmithlabs/appsrag/internal/vectorstore"
)

// BuildResult summarizes one index build. Record-level failures are
// accumulated here; they never abort the build.
type BuildResult struct {
	// Count is the number of records indexed.
	Count int `json:"count"`

	// SchemaVersion is the layout the index was built with.
	SchemaVersion string `json:"schema_version"`

	// PIIRejected counts records the gate kept out of the index.
	PIIRejected int `json:"pii_rejected"`

	// Rejected carries one message per gated record.
	Rejected []string `json:"rejected,omitempty"`

	// BuiltAt is the build completion time.
	BuiltAt time.Time `json:"built_at"`
}

// BuilderConfig wires the builder's persistence targets.
type BuilderConfig struct {
	// SnapshotPath is the canonical record snapshot (JSONL).
	SnapshotPath string

	// ManifestPath is the index manifest file.
	ManifestPath string

	// Dimension is the embedding dimension recorded in the manifest.
	Dimension int

	// Provider is the embedding provider name recorded in the manifest.
	Provider string
}

// Builder rebuilds the index from a record set. Rebuilds are wholesale:
// the prior collection and snapshot are fully replaced, never merged.
type Builder struct {
	store  vectorstore.Store
	guard  *piiguard.Guard
	config BuilderConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewBuilder creates a builder over the given store and PII gate.
func NewBuilder(store vectorstore.Store, guard *piiguard.Guard, config BuilderConfig, logger *zap.Logger) (*Builder, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if guard == nil {
		return nil, fmt.Errorf("pii guard is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		store:  store,
		guard:  guard,
		config: config,
		logger: logger.Named("index"),
		now:    time.Now,
	}, nil
}

// Build replaces the index with one built from records. An empty input
// still produces a validly-initialized index: empty snapshot, empty
// collection, fresh manifest. Building twice on the same input is
// query-equivalent to building once.
func (b *Builder) Build(ctx context.Context, records []tracker.ApplicationRecord) (*BuildResult, error) {
	result := &BuildResult{SchemaVersion: SchemaVersion}

	accepted := make([]tracker.ApplicationRecord, 0, len(records))
	for _, rec := range records {
		if err := b.gateRecord(rec); err != nil {
			result.PIIRejected++
			result.Rejected = append(result.Rejected, fmt.Sprintf("record %s: %v", rec.ID, err))
			b.logger.Warn("record rejected by pii gate", zap.String("app_id", rec.ID), zap.Error(err))
			continue
		}
		accepted = append(accepted, rec)
	}

	// Wholesale replace: drop the collection before re-adding.
	if err := b.store.DeleteCollection(ctx); err != nil {
		return nil, fmt.Errorf("dropping collection: %w", err)
	}
	if err := b.store.CreateCollection(ctx, b.config.Dimension); err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	if len(accepted) > 0 {
		docs := make([]vectorstore.Document, len(accepted))
		for i, rec := range accepted {
			docs[i] = vectorstore.Document{
				ID:      rec.ID,
				Content: boostedText(rec),
				Metadata: map[string]string{
					"company":  rec.Company,
					"role":     rec.Role,
					"status":   string(rec.Status),
					"method":   string(rec.Method),
					"category": rec.Category,
				},
			}
		}
		if _, err := b.store.AddDocuments(ctx, docs); err != nil {
			return nil, fmt.Errorf("indexing records: %w", err)
		}
	}

	if err := WriteSnapshot(b.config.SnapshotPath, accepted); err != nil {
		return nil, err
	}

	result.Count = len(accepted)
	result.BuiltAt = b.now().UTC()
	manifest := Manifest{
		SchemaVersion: SchemaVersion,
		Dimension:     b.config.Dimension,
		Provider:      b.config.Provider,
		Count:         result.Count,
		BuiltAt:       result.BuiltAt,
	}
	if err := WriteManifest(b.config.ManifestPath, manifest); err != nil {
		return nil, err
	}

	b.logger.Info("index built",
		zap.Int("count", result.Count),
		zap.Int("pii_rejected", result.PIIRejected),
		zap.String("schema_version", result.SchemaVersion),
	)
	return result, nil
}

// gateRecord runs every persisted text field through the PII gate so
// the caller learns which field failed.
func (b *Builder) gateRecord(rec tracker.ApplicationRecord) error {
	fields := []struct{ name, content string }{
		{"company", rec.Company},
		{"role", rec.Role},
		{"notes", rec.Notes},
		{"tags", strings.Join(rec.Tags, ";")},
	}
	for _, f := range fields {
		if err := b.guard.Gate(f.name, f.content); err != nil {
			return err
		}
	}
	return nil
}

// boostedText is the embedded blob: high-signal fields repeated for
// higher weight in the bag-of-features vector.
func boostedText(rec tracker.ApplicationRecord) string {
	var parts []string
	repeat := func(s string, n int) {
		if s == "" {
			return
		}
		for i := 0; i < n; i++ {
			parts = append(parts, s)
		}
	}
	repeat(rec.Company, 5)
	repeat(rec.Role, 4)
	repeat(strings.Join(rec.Tags, " "), 3)
	repeat(string(rec.Method), 2)
	repeat(string(rec.Status), 1)
	repeat(rec.Notes, 1)
	return strings.Join(parts, " ")
}
