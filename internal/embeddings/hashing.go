package embeddings

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DefaultHashingDimension is the default vector size for the hashing
// provider.
const DefaultHashingDimension = 1536

// HashingProvider embeds text by hashing unigram and bigram tokens into
// a fixed-dimension bag-of-features vector, L2 normalized. It is fully
// deterministic and needs no model download, so the same corpus always
// produces the same index.
//
// Bigrams let short multi-word phrases ("infra engineer") score above
// bags of the same words in unrelated positions.
type HashingProvider struct {
	dimension int
}

// NewHashingProvider creates a hashing provider for the given
// dimension, defaulting when zero.
func NewHashingProvider(dimension int) (*HashingProvider, error) {
	if dimension == 0 {
		dimension = DefaultHashingDimension
	}
	if dimension < 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidConfig, dimension)
	}
	return &HashingProvider{dimension: dimension}, nil
}

// tokenize lowercases, splits on whitespace, and appends joined
// bigrams to the unigram stream.
func tokenize(text string) []string {
	tokens := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+"_"+tokens[i+1])
	}
	return out
}

// embed hashes each token with blake2b into a bucket and normalizes.
func (p *HashingProvider) embed(text string) []float32 {
	vec := make([]float32, p.dimension)
	for _, tok := range tokenize(text) {
		sum := blake2b.Sum512([]byte(tok))
		bucket := binary.LittleEndian.Uint64(sum[:8]) % uint64(p.dimension)
		vec[bucket]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec
}

// EmbedDocuments generates embeddings for multiple texts.
func (p *HashingProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = p.embed(text)
	}
	return out, nil
}

// EmbedQuery generates an embedding for a single query.
func (p *HashingProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.embed(text), nil
}

// Dimension returns the embedding dimension.
func (p *HashingProvider) Dimension() int { return p.dimension }

// Close is a no-op: the provider holds no resources.
func (p *HashingProvider) Close() error { return nil }
