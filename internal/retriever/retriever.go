// Package retriever ranks application records for a free-text query by
// fusing vector similarity, lexical overlap, bandit priors, and memory
// boosts into one weighted score.
package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/appsrag/internal/bandit"
	"github.com/fyrsmithlabs/appsrag/internal/config"
	"github.com/fyrsmithlabs/appsrag/internal/index"
	"github.com/fyrsmithlabs/appsrag/internal/memory"
	"github.com/fyrsmithlabs/appsrag/internal/tracker"
	"github.com/fyrsmithlabs/appsrag/internal/vectorstore"
)

// Filters are hard pre-filters applied before any scoring. A record
// that fails a filter is excluded, never soft-penalized.
type Filters struct {
	Status string
	Method string
}

// Match reports whether the record passes the filters. Comparison is
// case-insensitive.
func (f Filters) Match(rec *tracker.ApplicationRecord) bool {
	if f.Status != "" && !strings.EqualFold(f.Status, string(rec.Status)) {
		return false
	}
	if f.Method != "" && !strings.EqualFold(f.Method, string(rec.Method)) {
		return false
	}
	return true
}

// ScoredRecord is one ranked result with its score breakdown.
type ScoredRecord struct {
	Record tracker.ApplicationRecord `json:"record"`

	// Score is the fused final score.
	Score float64 `json:"score"`

	// Component scores, kept for explainability in verbose output.
	VectorScore  float64 `json:"vector_score"`
	LexicalScore float64 `json:"lexical_score"`
	BanditScore  float64 `json:"bandit_score"`
	ShortMemory  float64 `json:"short_memory"`
	LongMemory   float64 `json:"long_memory"`
}

// Retriever scores snapshot records. Candidates always come from the
// canonical snapshot, so an empty query still returns every record;
// the vector store only contributes similarity scores on top.
type Retriever struct {
	store        vectorstore.Store
	memstore     *memory.Store
	model        *bandit.Model
	snapshotPath string
	weights      config.FusionWeights
	candidateMul int
	minCandidate int
	halfLifeDays float64
	logger       *zap.Logger
	now          func() time.Time
}

// Options wires the retriever's collaborators and tuning.
type Options struct {
	Store        vectorstore.Store
	Memory       *memory.Store
	Model        *bandit.Model
	SnapshotPath string
	Retrieval    config.RetrievalConfig
	HalfLifeDays float64
	Logger       *zap.Logger
}

// New creates a retriever.
func New(opts Options) (*Retriever, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if opts.Memory == nil {
		return nil, fmt.Errorf("memory store is required")
	}
	if opts.Model == nil {
		return nil, fmt.Errorf("bandit model is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	candidateMul := opts.Retrieval.CandidateMultiplier
	if candidateMul <= 0 {
		candidateMul = 8
	}
	minCandidate := opts.Retrieval.MinCandidates
	if minCandidate <= 0 {
		minCandidate = 40
	}
	return &Retriever{
		store:        opts.Store,
		memstore:     opts.Memory,
		model:        opts.Model,
		snapshotPath: opts.SnapshotPath,
		weights:      opts.Retrieval.Weights,
		candidateMul: candidateMul,
		minCandidate: minCandidate,
		halfLifeDays: opts.HalfLifeDays,
		logger:       logger.Named("retriever"),
		now:          time.Now,
	}, nil
}

// Retrieve returns up to k records ranked by fused score. An empty
// query ranks the full (filtered) snapshot by the non-vector signals,
// so build-then-list is complete. Requesting more results than exist
// returns all available, no error.
func (r *Retriever) Retrieve(ctx context.Context, query string, filters Filters, k int) ([]ScoredRecord, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	records, corrupt, err := index.ReadSnapshot(r.snapshotPath)
	if err != nil {
		return nil, err
	}
	if corrupt > 0 {
		r.logger.Warn("snapshot has corrupt lines", zap.Int("skipped", corrupt))
	}

	candidates := make([]tracker.ApplicationRecord, 0, len(records))
	for _, rec := range records {
		if filters.Match(&rec) {
			candidates = append(candidates, rec)
		}
	}
	if len(candidates) == 0 {
		return []ScoredRecord{}, nil
	}

	query = strings.TrimSpace(query)
	vectorScores, err := r.vectorScores(ctx, query, k)
	if err != nil {
		return nil, err
	}

	shortScores, err := r.memstore.RecencyScores(r.now().UTC(), r.halfLifeDays)
	if err != nil {
		return nil, err
	}
	longView, err := r.memstore.LoadLong()
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredRecord, 0, len(candidates))
	for _, rec := range candidates {
		category, method := rec.ArmKey()
		s := ScoredRecord{
			Record:       rec,
			VectorScore:  vectorScores[rec.ID],
			LexicalScore: lexicalOverlap(query, &rec),
			BanditScore:  r.model.Mean(category, method),
			ShortMemory:  shortScores[rec.ID],
			LongMemory:   longView.Rate(category, method),
		}
		s.Score = r.weights.Vector*s.VectorScore +
			r.weights.Lexical*s.LexicalScore +
			r.weights.Bandit*s.BanditScore +
			r.weights.ShortMemory*s.ShortMemory +
			r.weights.LongMemory*s.LongMemory
		scored = append(scored, s)
	}

	// Rank by score, ties broken by most recent update.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Record.UpdatedAt.After(scored[j].Record.UpdatedAt)
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// vectorScores fetches similarity scores for an over-sampled candidate
// pool. Empty queries skip the vector store entirely.
func (r *Retriever) vectorScores(ctx context.Context, query string, k int) (map[string]float64, error) {
	scores := make(map[string]float64)
	if query == "" {
		return scores, nil
	}

	candidateK := k * r.candidateMul
	if candidateK < r.minCandidate {
		candidateK = r.minCandidate
	}

	results, err := r.store.Search(ctx, query, candidateK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	for _, res := range results {
		scores[res.ID] = normalizeSimilarity(float64(res.Score))
	}
	return scores, nil
}

// normalizeSimilarity clamps cosine similarity into [0, 1].
func normalizeSimilarity(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	if raw <= 1 {
		return raw
	}
	return raw / (1 + raw)
}

// lexicalOverlap is the fraction of query terms present in the record's
// searchable text, capped at 1.
func lexicalOverlap(query string, rec *tracker.ApplicationRecord) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(terms))
	unique := terms[:0]
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			unique = append(unique, t)
		}
	}

	text := strings.ToLower(rec.SearchText())
	hits := 0
	for _, t := range unique {
		if strings.Contains(text, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(unique))
}
