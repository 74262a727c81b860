// Package config provides configuration loading for appsrag.
package config

import (
	"fmt"
	"math"
	"path/filepath"
	"time"
)

// Config is the root configuration for the appsrag CLI.
type Config struct {
	// Paths configures on-disk locations for tracker input and persisted state.
	Paths PathsConfig `koanf:"paths"`

	// Logging configures the zap logger.
	Logging LoggingConfig `koanf:"logging"`

	// Embeddings selects and configures the embedding provider.
	Embeddings EmbeddingsConfig `koanf:"embeddings"`

	// Retrieval configures query-time score fusion.
	Retrieval RetrievalConfig `koanf:"retrieval"`

	// Memory configures the episodic memory store.
	Memory MemoryConfig `koanf:"memory"`

	// Watch configures the auto-rebuild loop.
	Watch WatchConfig `koanf:"watch"`

	// PIIGuard configures the persistence gate.
	PIIGuard PIIGuardConfig `koanf:"pii_guard"`
}

// PathsConfig holds filesystem locations. All persisted state lives under
// DataDir; TrackerCSV and ApplicationsDir are read-only inputs.
type PathsConfig struct {
	// DataDir is the root for the index, memory logs and bandit state.
	// Default: ~/.local/share/appsrag
	DataDir string `koanf:"data_dir"`

	// TrackerCSV is the application tracker spreadsheet export.
	TrackerCSV string `koanf:"tracker_csv"`

	// ApplicationsDir holds per-company artifact subdirectories.
	ApplicationsDir string `koanf:"applications_dir"`
}

// LoggingConfig controls logger construction.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// EmbeddingsConfig selects the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "hashing" (default, deterministic, offline) or
	// "fastembed" (local ONNX model, CGO builds only).
	Provider string `koanf:"provider"`

	// Model is the fastembed model name. Ignored by the hashing provider.
	Model string `koanf:"model"`

	// CacheDir is the fastembed model cache directory.
	CacheDir string `koanf:"cache_dir"`

	// Dimension is the hashing embedder output dimension.
	Dimension int `koanf:"dimension"`
}

// RetrievalConfig holds query-time tuning.
type RetrievalConfig struct {
	// Weights controls score fusion. The weighting formula is a plain
	// weighted sum; the source of these defaults is empirical, so they
	// are exposed as configuration rather than constants.
	Weights FusionWeights `koanf:"weights"`

	// CandidateMultiplier scales k when fetching vector candidates.
	CandidateMultiplier int `koanf:"candidate_multiplier"`

	// MinCandidates floors the candidate pool size.
	MinCandidates int `koanf:"min_candidates"`
}

// FusionWeights are the weighted-sum coefficients for retrieval scoring.
type FusionWeights struct {
	Vector      float64 `koanf:"vector"`
	Lexical     float64 `koanf:"lexical"`
	Bandit      float64 `koanf:"bandit"`
	ShortMemory float64 `koanf:"short_memory"`
	LongMemory  float64 `koanf:"long_memory"`
}

// MemoryConfig tunes the episodic recency decay.
type MemoryConfig struct {
	// HalfLifeDays is the half-life of the recency boost.
	HalfLifeDays float64 `koanf:"half_life_days"`
}

// WatchConfig controls the auto-rebuild loop.
type WatchConfig struct {
	// Interval is the fallback poll interval for tracker changes.
	Interval Duration `koanf:"interval"`

	// Debounce delays rebuilds after a filesystem event so editors that
	// write in multiple bursts trigger a single rebuild.
	Debounce Duration `koanf:"debounce"`
}

// PIIGuardConfig controls the persistence gate.
type PIIGuardConfig struct {
	// Disabled turns the gate off. Only intended for deliberately
	// synthetic test fixtures; the zero value keeps the gate on.
	Disabled bool `koanf:"disabled"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = "~/.local/share/appsrag"
	}
	if c.Paths.TrackerCSV == "" {
		c.Paths.TrackerCSV = "applications/job_applications/application_tracker.csv"
	}
	if c.Paths.ApplicationsDir == "" {
		c.Paths.ApplicationsDir = "applications"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Embeddings.Provider == "" {
		c.Embeddings.Provider = "hashing"
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if c.Embeddings.Dimension == 0 {
		c.Embeddings.Dimension = 1536
	}
	zero := FusionWeights{}
	if c.Retrieval.Weights == zero {
		c.Retrieval.Weights = FusionWeights{
			Vector:      0.48,
			Lexical:     0.22,
			Bandit:      0.20,
			ShortMemory: 0.06,
			LongMemory:  0.04,
		}
	}
	if c.Retrieval.CandidateMultiplier == 0 {
		c.Retrieval.CandidateMultiplier = 8
	}
	if c.Retrieval.MinCandidates == 0 {
		c.Retrieval.MinCandidates = 40
	}
	if c.Memory.HalfLifeDays == 0 {
		c.Memory.HalfLifeDays = 14.0
	}
	if c.Watch.Interval == 0 {
		c.Watch.Interval = Duration(10 * time.Second)
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(500 * time.Millisecond)
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	switch c.Embeddings.Provider {
	case "hashing", "fastembed":
	default:
		return fmt.Errorf("embeddings.provider must be hashing or fastembed, got %q", c.Embeddings.Provider)
	}
	if c.Embeddings.Dimension <= 0 {
		return fmt.Errorf("embeddings.dimension must be positive, got %d", c.Embeddings.Dimension)
	}
	w := c.Retrieval.Weights
	for name, v := range map[string]float64{
		"vector":       w.Vector,
		"lexical":      w.Lexical,
		"bandit":       w.Bandit,
		"short_memory": w.ShortMemory,
		"long_memory":  w.LongMemory,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("retrieval.weights.%s must be non-negative, got %v", name, v)
		}
	}
	sum := w.Vector + w.Lexical + w.Bandit + w.ShortMemory + w.LongMemory
	if sum <= 0 {
		return fmt.Errorf("retrieval.weights must not all be zero")
	}
	if c.Memory.HalfLifeDays <= 0 {
		return fmt.Errorf("memory.half_life_days must be positive, got %v", c.Memory.HalfLifeDays)
	}
	if c.Watch.Interval.Duration() <= 0 {
		return fmt.Errorf("watch.interval must be positive")
	}
	return nil
}

// Derived paths under DataDir.

// IndexDir is the chromem-go persistence directory.
func (c *Config) IndexDir() string { return filepath.Join(c.Paths.DataDir, "index") }

// RecordsPath is the canonical application snapshot.
func (c *Config) RecordsPath() string {
	return filepath.Join(c.Paths.DataDir, "applications.jsonl")
}

// ManifestPath is the index schema manifest.
func (c *Config) ManifestPath() string { return filepath.Join(c.Paths.DataDir, "index_manifest.json") }

// ShortMemoryPath is the episodic memory log.
func (c *Config) ShortMemoryPath() string {
	return filepath.Join(c.Paths.DataDir, "memory_short.jsonl")
}

// LongMemoryPath is the derived semantic memory view.
func (c *Config) LongMemoryPath() string {
	return filepath.Join(c.Paths.DataDir, "memory_long.json")
}

// EventsPath is the audit event log.
func (c *Config) EventsPath() string { return filepath.Join(c.Paths.DataDir, "events.jsonl") }

// ArmsPath is the persisted bandit state.
func (c *Config) ArmsPath() string { return filepath.Join(c.Paths.DataDir, "arms.json") }

// FeedbackLedgerPath is the feedback-batch idempotency ledger.
func (c *Config) FeedbackLedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "feedback_seen.json")
}

// TrackerLedgerPath is the sync-feedback idempotency ledger.
func (c *Config) TrackerLedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "tracker_feedback_seen.json")
}

// SessionStatePath records the most recent query/retrieve results.
func (c *Config) SessionStatePath() string {
	return filepath.Join(c.Paths.DataDir, "session_state.json")
}
