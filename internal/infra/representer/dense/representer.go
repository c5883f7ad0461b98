package dense

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

// Representer adapts an Embedder to faq.Representer. Output vectors are unit
// length so catalog and query live on the same sphere.
type Representer struct {
	embedder Embedder
	dim      int
	cache    faq.VectorCache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// Option customizes a Representer.
type Option func(*Representer)

// WithCache memoizes query vectors in cache for ttl.
func WithCache(cache faq.VectorCache, ttl time.Duration) Option {
	return func(r *Representer) {
		r.cache = cache
		r.cacheTTL = ttl
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Representer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRepresenter wraps embedder, whose output must have dim dimensions.
func NewRepresenter(embedder Embedder, dim int, opts ...Option) (*Representer, error) {
	if embedder == nil {
		return nil, errors.New("dense representer requires an embedder")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("dense representer dimension must be positive, got %d", dim)
	}
	r := &Representer{embedder: embedder, dim: dim, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "representer.dense", "model", embedder.ModelID())
	return r, nil
}

func (r *Representer) Strategy() faq.Strategy { return faq.StrategyDense }

func (r *Representer) Dim() int { return r.dim }

// ModelID returns the wrapped embedder's model id.
func (r *Representer) ModelID() string { return r.embedder.ModelID() }

// Represent embeds text, serving repeated queries from the cache when set.
func (r *Representer) Represent(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(r.embedder.ModelID(), text)
	if r.cache != nil {
		vec, ok, err := r.cache.GetVector(ctx, key)
		switch {
		case err != nil:
			r.logger.Warn("vector cache read failed", "error", err)
		case ok && len(vec) == r.dim:
			return vec, nil
		}
	}

	vectors, err := EmbedNormalized(ctx, r.embedder, []string{text}, r.dim)
	if err != nil {
		return nil, err
	}
	vec := vectors[0]
	if r.cache != nil {
		if err := r.cache.SaveVector(ctx, key, vec, r.cacheTTL); err != nil {
			r.logger.Warn("vector cache write failed", "error", err)
		}
	}
	return vec, nil
}

// EmbedNormalized embeds texts and returns unit-length vectors. dim <= 0
// accepts whatever dimension the first vector has.
func EmbedNormalized(ctx context.Context, embedder Embedder, texts []string, dim int) ([][]float32, error) {
	raw, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(raw), len(texts))
	}
	out := make([][]float32, len(raw))
	for i, vec := range raw {
		if dim <= 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("embedding dimension %d does not match expected %d", len(vec), dim)
		}
		out[i] = faq.NormalizeL2(vec)
	}
	return out, nil
}

// CacheKey derives the cache key for text under modelID.
func CacheKey(modelID, text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return modelID + ":" + hex.EncodeToString(sum[:])
}

var _ faq.Representer = (*Representer)(nil)
