package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1 << 20

// envPrefix namespaces appsrag environment overrides.
const envPrefix = "APPSRAG_"

// Load loads configuration from a YAML file, then overrides with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (APPSRAG_PATHS_DATA_DIR, APPSRAG_LOGGING_LEVEL, ...)
//  2. YAML config file (~/.config/appsrag/config.yaml by default)
//  3. Defaults from ApplyDefaults
//
// A missing config file is not an error; defaults and env apply.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "appsrag", "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("opening config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file %s exceeds %d bytes", configPath, maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	// APPSRAG_PATHS_DATA_DIR -> paths.data_dir
	// APPSRAG_RETRIEVAL_WEIGHTS_VECTOR -> retrieval.weights.vector
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return envKeyToPath(s)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if expanded, err := expandHome(cfg.Paths.DataDir); err == nil {
		cfg.Paths.DataDir = expanded
	}

	return &cfg, nil
}

// envKeyToPath maps a lowercased env suffix to a koanf path. Section names
// come first in the variable, so the first underscore splits section from
// field; known nested sections get a second split.
func envKeyToPath(s string) string {
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return s
	}
	section, rest := parts[0], parts[1]
	switch section {
	case "paths", "logging", "embeddings", "memory", "watch":
		return section + "." + rest
	case "retrieval":
		if strings.HasPrefix(rest, "weights_") {
			return "retrieval.weights." + strings.TrimPrefix(rest, "weights_")
		}
		return "retrieval." + rest
	case "pii":
		// APPSRAG_PII_GUARD_ENABLED -> pii_guard.enabled
		if strings.HasPrefix(rest, "guard_") {
			return "pii_guard." + strings.TrimPrefix(rest, "guard_")
		}
		return s
	default:
		return s
	}
}

// expandHome expands a leading ~ to the user home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
