// Package vectorstore defines the interface for vector storage operations.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns a slice of embeddings (one per input text) or an error.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for vector storage operations. The index
// builder drops and recreates the collection wholesale on each build,
// so the store only needs add, search, and collection lifecycle.
type Store interface {
	// AddDocuments adds documents with precomputed or generated
	// embeddings. Returns the document ids that were stored.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search returns up to k results ordered by similarity descending.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// CreateCollection creates the collection for the given dimension.
	// Creating an existing collection is a no-op.
	CreateCollection(ctx context.Context, vectorSize int) error

	// DeleteCollection removes the collection and all its documents.
	// Deleting a missing collection is a no-op.
	DeleteCollection(ctx context.Context) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases store resources.
	Close() error
}
