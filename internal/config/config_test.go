package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "~/.local/share/appsrag", cfg.Paths.DataDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "hashing", cfg.Embeddings.Provider)
	assert.Equal(t, 1536, cfg.Embeddings.Dimension)
	assert.Equal(t, 0.48, cfg.Retrieval.Weights.Vector)
	assert.Equal(t, 0.22, cfg.Retrieval.Weights.Lexical)
	assert.Equal(t, 14.0, cfg.Memory.HalfLifeDays)
	assert.Equal(t, 10*time.Second, cfg.Watch.Interval.Duration())
	assert.False(t, cfg.PIIGuard.Disabled)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		cfg.ApplyDefaults()
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid()
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad provider", func(t *testing.T) {
		cfg := valid()
		cfg.Embeddings.Provider = "openai"
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative weight", func(t *testing.T) {
		cfg := valid()
		cfg.Retrieval.Weights.Bandit = -0.1
		assert.Error(t, cfg.Validate())
	})

	t.Run("all-zero weights", func(t *testing.T) {
		cfg := valid()
		cfg.Retrieval.Weights = FusionWeights{}
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero half life", func(t *testing.T) {
		cfg := valid()
		cfg.Memory.HalfLifeDays = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
paths:
  data_dir: /tmp/appsrag-test
  tracker_csv: tracker.csv
logging:
  level: debug
retrieval:
  weights:
    vector: 0.5
    lexical: 0.5
watch:
  interval: 30s
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/appsrag-test", cfg.Paths.DataDir)
	assert.Equal(t, "tracker.csv", cfg.Paths.TrackerCSV)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 0.5, cfg.Retrieval.Weights.Vector)
	// Unset weights stay zero when any weight is set explicitly.
	assert.Equal(t, 0.0, cfg.Retrieval.Weights.Bandit)
	assert.Equal(t, 30*time.Second, cfg.Watch.Interval.Duration())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "hashing", cfg.Embeddings.Provider)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APPSRAG_LOGGING_LEVEL", "warn")
	t.Setenv("APPSRAG_PATHS_DATA_DIR", "/tmp/appsrag-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/tmp/appsrag-env", cfg.Paths.DataDir)
}

func TestEnvKeyToPath(t *testing.T) {
	cases := map[string]string{
		"paths_data_dir":           "paths.data_dir",
		"logging_level":            "logging.level",
		"retrieval_weights_vector": "retrieval.weights.vector",
		"pii_guard_disabled":       "pii_guard.disabled",
		"watch_interval":           "watch.interval",
	}
	for in, want := range cases {
		assert.Equal(t, want, envKeyToPath(in), in)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Config{Paths: PathsConfig{DataDir: "/data"}}
	assert.Equal(t, "/data/applications.jsonl", cfg.RecordsPath())
	assert.Equal(t, "/data/arms.json", cfg.ArmsPath())
	assert.Equal(t, "/data/memory_short.jsonl", cfg.ShortMemoryPath())
	assert.Equal(t, "/data/index", cfg.IndexDir())
}

func TestDurationRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(out))

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
}
