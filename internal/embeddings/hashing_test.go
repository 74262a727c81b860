package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestHashingProviderDeterminism(t *testing.T) {
	p, err := NewHashingProvider(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultHashingDimension, p.Dimension())

	ctx := context.Background()
	a, err := p.EmbedQuery(ctx, "infra engineer at baseten")
	require.NoError(t, err)
	b, err := p.EmbedQuery(ctx, "infra engineer at baseten")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultHashingDimension)
}

func TestHashingProviderNormalized(t *testing.T) {
	p, err := NewHashingProvider(256)
	require.NoError(t, err)

	vec, err := p.EmbedQuery(context.Background(), "one two three four")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, math.Sqrt(dot(vec, vec)), 1e-5)
}

func TestHashingProviderSimilarity(t *testing.T) {
	p, err := NewHashingProvider(0)
	require.NoError(t, err)
	ctx := context.Background()

	query, err := p.EmbedQuery(ctx, "infra engineer")
	require.NoError(t, err)

	docs, err := p.EmbedDocuments(ctx, []string{
		"baseten infra engineer ashby",
		"acme marketing manager linkedin",
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Greater(t, dot(query, docs[0]), dot(query, docs[1]),
		"shared tokens must score higher than disjoint ones")
}

func TestHashingProviderBigramsCaptureOrder(t *testing.T) {
	p, err := NewHashingProvider(0)
	require.NoError(t, err)
	ctx := context.Background()

	ordered, err := p.EmbedQuery(ctx, "machine learning")
	require.NoError(t, err)
	reversed, err := p.EmbedQuery(ctx, "learning machine")
	require.NoError(t, err)

	// Same unigrams, different bigram: vectors differ.
	assert.NotEqual(t, ordered, reversed)
	self, err := p.EmbedQuery(ctx, "machine learning")
	require.NoError(t, err)
	assert.Greater(t, dot(ordered, self), dot(ordered, reversed))
}

func TestHashingProviderEmptyInput(t *testing.T) {
	p, err := NewHashingProvider(0)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = p.EmbedQuery(ctx, "")
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = p.EmbedDocuments(ctx, nil)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestHashingProviderCancelledContext(t *testing.T) {
	p, err := NewHashingProvider(0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.EmbedQuery(ctx, "hello")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewHashingProviderRejectsNegativeDimension(t *testing.T) {
	_, err := NewHashingProvider(-1)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewProviderFactory(t *testing.T) {
	p, err := NewProvider(ProviderConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultHashingDimension, p.Dimension())
	require.NoError(t, p.Close())

	p, err = NewProvider(ProviderConfig{Provider: "hashing", Dimension: 512})
	require.NoError(t, err)
	assert.Equal(t, 512, p.Dimension())

	_, err = NewProvider(ProviderConfig{Provider: "word2vec"})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
