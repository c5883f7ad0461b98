package dense

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

func TestHashEmbedderDeterministicAndSimilar(t *testing.T) {
	e := NewHashEmbedder(64)
	require.Equal(t, "hash-64", e.ModelID())

	vecs, err := e.Embed(context.Background(), []string{
		"How do I reset my password?",
		"how do i reset my password",
		"What is the refund policy?",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	require.Equal(t, vecs[0], vecs[1])
	require.Greater(t, faq.Cosine(vecs[0], vecs[1]), faq.Cosine(vecs[0], vecs[2]))
}

func TestRepresenterNormalizesOutput(t *testing.T) {
	rep, err := NewRepresenter(NewHashEmbedder(32), 32)
	require.NoError(t, err)
	require.Equal(t, faq.StrategyDense, rep.Strategy())

	vec, err := rep.Represent(context.Background(), "reset my password please")
	require.NoError(t, err)
	require.Len(t, vec, 32)
	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	require.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestRepresenterRejectsDimensionMismatch(t *testing.T) {
	rep, err := NewRepresenter(NewHashEmbedder(16), 32)
	require.NoError(t, err)
	_, err = rep.Represent(context.Background(), "anything")
	require.ErrorContains(t, err, "does not match")

	_, err = NewRepresenter(NewHashEmbedder(16), 0)
	require.Error(t, err)
}

func TestRepresenterUsesCache(t *testing.T) {
	embedder := &countingEmbedder{inner: NewHashEmbedder(8)}
	cache := &mapCache{items: map[string][]float32{}}
	rep, err := NewRepresenter(embedder, 8, WithCache(cache, time.Minute))
	require.NoError(t, err)

	first, err := rep.Represent(context.Background(), "refund policy")
	require.NoError(t, err)
	second, err := rep.Represent(context.Background(), "refund policy")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, embedder.calls)
	require.Contains(t, cache.items, CacheKey("hash-8", "refund policy"))
}

func TestRepresenterSurvivesCacheFailure(t *testing.T) {
	cache := &mapCache{err: errors.New("valkey down")}
	rep, err := NewRepresenter(NewHashEmbedder(8), 8, WithCache(cache, time.Minute))
	require.NoError(t, err)
	vec, err := rep.Represent(context.Background(), "refund policy")
	require.NoError(t, err)
	require.Len(t, vec, 8)
}

func TestRepresenterPropagatesEmbedderError(t *testing.T) {
	rep, err := NewRepresenter(&countingEmbedder{err: errors.New("offline")}, 8)
	require.NoError(t, err)
	_, err = rep.Represent(context.Background(), "refund policy")
	require.ErrorContains(t, err, "offline")
}

func TestNewEmbedderSelectsProvider(t *testing.T) {
	e, err := NewEmbedder(ProviderConfig{Provider: "hash", Dim: 12}, nil)
	require.NoError(t, err)
	require.Equal(t, "hash-12", e.ModelID())

	_, err = NewEmbedder(ProviderConfig{Provider: "carrier-pigeon"}, nil)
	require.Error(t, err)

	_, err = NewEmbedder(ProviderConfig{Provider: ProviderOpenAI}, nil)
	require.Error(t, err)
}

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 0, estimateTokens(""))
	require.Equal(t, 3, estimateTokens("a b c"))
	require.Equal(t, 5, estimateTokens("abcdefghij"))
}

type countingEmbedder struct {
	mu    sync.Mutex
	inner Embedder
	err   error
	calls int
}

func (c *countingEmbedder) ModelID() string {
	if c.inner == nil {
		return "counting"
	}
	return c.inner.ModelID()
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.Embed(ctx, texts)
}

type mapCache struct {
	mu    sync.Mutex
	items map[string][]float32
	err   error
}

func (m *mapCache) GetVector(_ context.Context, key string) ([]float32, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *mapCache) SaveVector(_ context.Context, key string, vector []float32, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = vector
	return nil
}
