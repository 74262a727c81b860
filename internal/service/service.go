// Package service is the operation layer: it owns the persisted store
// handles (index, memory logs, bandit state) and exposes the commands
// the CLI and automation agents run. Handles are opened explicitly at
// construction and passed through each operation; there are no
// package-level singletons.
package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/appsrag/internal/bandit"
	"github.com/fyrsmithlabs/appsrag/internal/config"
	"github.com/fyrsmithlabs/appsrag/internal/embeddings"
	"github.com/fyrsmithlabs/appsrag/internal/index"
	"github.com/fyrsmithlabs/appsrag/internal/memory"
	"github.com/fyrsmithlabs/appsrag/internal/piiguard"
	"github.com/fyrsmithlabs/appsrag/internal/retriever"
	"github.com/fyrsmithlabs/appsrag/internal/tracker"
	"github.com/fyrsmithlabs/appsrag/internal/vectorstore"
)

// Service wires the subsystem's components behind the exposed
// operations. One Service per process invocation; Close releases the
// embedding provider.
type Service struct {
	cfg      *config.Config
	logger   *zap.Logger
	guard    *piiguard.Guard
	provider embeddings.Provider
	store    vectorstore.Store
	memstore *memory.Store
	model    *bandit.Model
	builder  *index.Builder
	retr     *retriever.Retriever
	now      func() time.Time

	// buildMu serializes builds: a build in progress completes before
	// the next one starts, so the index is never half-written.
	buildMu sync.Mutex
}

// New opens all store handles for the given configuration.
func New(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	guardCfg := piiguard.DefaultConfig()
	guardCfg.Enabled = !cfg.PIIGuard.Disabled
	guard, err := piiguard.New(guardCfg)
	if err != nil {
		return nil, fmt.Errorf("initializing pii guard: %w", err)
	}

	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider:  cfg.Embeddings.Provider,
		Dimension: cfg.Embeddings.Dimension,
		Model:     cfg.Embeddings.Model,
		CacheDir:  cfg.Embeddings.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing embedding provider: %w", err)
	}

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       cfg.IndexDir(),
		VectorSize: provider.Dimension(),
	}, provider, logger)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	memstore, err := memory.NewStore(cfg.ShortMemoryPath(), cfg.LongMemoryPath(), guard, logger)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("opening memory store: %w", err)
	}

	model, err := bandit.Open(cfg.ArmsPath(), rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("opening bandit state: %w", err)
	}

	builder, err := index.NewBuilder(store, guard, index.BuilderConfig{
		SnapshotPath: cfg.RecordsPath(),
		ManifestPath: cfg.ManifestPath(),
		Dimension:    provider.Dimension(),
		Provider:     cfg.Embeddings.Provider,
	}, logger)
	if err != nil {
		provider.Close()
		return nil, err
	}

	retr, err := retriever.New(retriever.Options{
		Store:        store,
		Memory:       memstore,
		Model:        model,
		SnapshotPath: cfg.RecordsPath(),
		Retrieval:    cfg.Retrieval,
		HalfLifeDays: cfg.Memory.HalfLifeDays,
		Logger:       logger,
	})
	if err != nil {
		provider.Close()
		return nil, err
	}

	return &Service{
		cfg:      cfg,
		logger:   logger.Named("service"),
		guard:    guard,
		provider: provider,
		store:    store,
		memstore: memstore,
		model:    model,
		builder:  builder,
		retr:     retr,
		now:      time.Now,
	}, nil
}

// Close releases held resources.
func (s *Service) Close() error {
	if err := s.store.Close(); err != nil {
		return err
	}
	return s.provider.Close()
}

// BuildReport summarizes one build operation.
type BuildReport struct {
	index.BuildResult

	// RowErrors are tracker rows the normalizer skipped.
	RowErrors []tracker.RowError `json:"row_errors,omitempty"`

	// BootstrappedArms counts arms seeded from historical statuses when
	// the bandit state started empty.
	BootstrappedArms int `json:"bootstrapped_arms,omitempty"`
}

// Build rebuilds the index and derived memory view from the current
// tracker state. Zero-record input is valid. Row-level failures are
// reported, not fatal.
func (s *Service) Build(ctx context.Context) (*BuildReport, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	rows, err := tracker.ReadCSV(s.cfg.Paths.TrackerCSV)
	if err != nil {
		return nil, fmt.Errorf("reading tracker: %w", err)
	}

	normalizer := &tracker.Normalizer{ApplicationsDir: s.cfg.Paths.ApplicationsDir, Now: s.now}
	records, rowErrors := normalizer.Normalize(rows)

	result, err := s.builder.Build(ctx, records)
	if err != nil {
		return nil, err
	}

	report := &BuildReport{BuildResult: *result, RowErrors: rowErrors}

	// Rederive the semantic view so it stays a pure function of the
	// episodic stream.
	if _, err := s.memstore.RecomputeLong(s.now().UTC()); err != nil {
		return nil, err
	}

	if s.model.Len() == 0 {
		report.BootstrappedArms = s.bootstrapArms(records)
	}
	if err := s.model.Save(); err != nil {
		return nil, err
	}

	s.appendAudit("", "build", fmt.Sprintf("count=%d row_errors=%d pii_rejected=%d",
		result.Count, len(rowErrors), result.PIIRejected), "")
	return report, nil
}

// bootstrapStatusOutcome seeds arms from historical statuses: partial
// signals for Applied/Blocked/Rejected/Offer, nothing for Draft/Closed.
var bootstrapStatusOutcome = map[tracker.Status]string{
	tracker.StatusApplied:  "no_response",
	tracker.StatusBlocked:  "blocked",
	tracker.StatusRejected: "rejected",
	tracker.StatusOffer:    "offer",
}

// bootstrapArms seeds an empty model from record statuses and returns
// the number of outcomes applied.
func (s *Service) bootstrapArms(records []tracker.ApplicationRecord) int {
	applied := 0
	for _, rec := range records {
		outcome, ok := bootstrapStatusOutcome[rec.Status]
		if !ok {
			continue
		}
		category, method := rec.ArmKey()
		if err := s.model.Feedback(category, method, outcome); err != nil {
			continue
		}
		applied++
	}
	if applied > 0 {
		s.logger.Info("bootstrapped bandit arms from record statuses", zap.Int("outcomes", applied))
	}
	return applied
}

// StatusReport is the dashboard summary.
type StatusReport struct {
	Total        int                         `json:"total"`
	StatusCounts map[string]int              `json:"status_counts"`
	Manifest     *index.Manifest             `json:"manifest"`
	Arms         []bandit.ArmStat            `json:"arms"`
	ShortEvents  int                         `json:"short_events"`
	CorruptLines int                         `json:"corrupt_lines,omitempty"`
	Drafts       []tracker.ApplicationRecord `json:"drafts,omitempty"`
	Blocked      []tracker.ApplicationRecord `json:"blocked,omitempty"`
}

// Status reports counts per status, arm posteriors, and index metadata.
// Requires a built index.
func (s *Service) Status() (*StatusReport, error) {
	manifest, err := index.ReadManifest(s.cfg.ManifestPath())
	if err != nil {
		return nil, err
	}
	records, _, err := index.ReadSnapshot(s.cfg.RecordsPath())
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		Total:        len(records),
		StatusCounts: make(map[string]int),
		Manifest:     manifest,
		Arms:         s.model.Stats(),
	}
	for _, rec := range records {
		report.StatusCounts[string(rec.Status)]++
		switch rec.Status {
		case tracker.StatusDraft:
			report.Drafts = append(report.Drafts, rec)
		case tracker.StatusBlocked:
			report.Blocked = append(report.Blocked, rec)
		}
	}

	events, corrupt, err := s.memstore.ReadShort(time.Time{})
	if err != nil {
		return nil, err
	}
	report.ShortEvents = len(events)
	report.CorruptLines = corrupt

	sort.Slice(report.Drafts, func(i, j int) bool {
		return report.Drafts[i].Company < report.Drafts[j].Company
	})
	return report, nil
}

// Recommend returns the bandit-sampled top-k targeting arms.
func (s *Service) Recommend(k int) []bandit.Recommendation {
	return s.model.Recommend(k)
}

// findRecord looks up one record in the snapshot by app id.
func (s *Service) findRecord(appID string) (*tracker.ApplicationRecord, error) {
	records, _, err := index.ReadSnapshot(s.cfg.RecordsPath())
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == appID {
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("app_id %q not found in index", appID)
}
