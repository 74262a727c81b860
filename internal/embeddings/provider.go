// Package embeddings provides embedding generation via multiple providers.
package embeddings

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/appsrag/internal/vectorstore"
)

// Sentinel errors for embedding operations.
var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Provider is the interface for embedding providers.
type Provider interface {
	vectorstore.Embedder
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// Close releases resources held by the provider.
	Close() error
}

// ProviderConfig holds configuration for creating an embedding provider.
type ProviderConfig struct {
	// Provider is the provider type: "hashing" or "fastembed".
	Provider string
	// Dimension is the vector dimension (hashing provider only).
	Dimension int
	// Model is the embedding model name (fastembed provider only).
	Model string
	// CacheDir is the model cache directory (fastembed provider only).
	CacheDir string
}

// NewProvider creates an embedding provider based on the configuration.
//
// The hashing provider is the default: fully offline, deterministic,
// and dependency-free, which keeps builds reproducible on machines
// without an ONNX runtime. fastembed trades that for real semantic
// similarity when CGO is available.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "hashing", "":
		return NewHashingProvider(cfg.Dimension)
	case "fastembed":
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
