// Package catalogload turns a stored artifact into a servable faq.Snapshot.
package catalogload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/infra/artifact"
	"github.com/yanqian/faq-matcher/internal/infra/representer/dense"
	"github.com/yanqian/faq-matcher/internal/infra/representer/lexical"
)

// ArtifactSource yields a validated artifact.
type ArtifactSource interface {
	LoadArtifact(ctx context.Context) (*artifact.Artifact, error)
	String() string
}

type fileSource struct {
	src artifact.Source
}

// FromSource reads artifacts through artifact.Load.
func FromSource(src artifact.Source) ArtifactSource {
	return fileSource{src: src}
}

func (s fileSource) LoadArtifact(ctx context.Context) (*artifact.Artifact, error) {
	return artifact.Load(ctx, s.src)
}

func (s fileSource) String() string { return s.src.String() }

// Loader implements faq.Loader.
type Loader struct {
	source   ArtifactSource
	embedder dense.Embedder
	cache    faq.VectorCache
	cacheTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Loader.
type Option func(*Loader)

// WithEmbedder sets the embedder serving dense artifacts.
func WithEmbedder(e dense.Embedder) Option {
	return func(l *Loader) { l.embedder = e }
}

// WithVectorCache memoizes dense query vectors.
func WithVectorCache(cache faq.VectorCache, ttl time.Duration) Option {
	return func(l *Loader) {
		l.cache = cache
		l.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New builds a loader over source.
func New(source ArtifactSource, opts ...Option) *Loader {
	l := &Loader{source: source, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "catalogload", "source", source.String())
	return l
}

// Load reads the artifact and pairs its catalog with the right representer.
func (l *Loader) Load(ctx context.Context) (*faq.Snapshot, error) {
	art, err := l.source.LoadArtifact(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := art.Catalog()
	if err != nil {
		return nil, err
	}
	rep, err := l.representer(art)
	if err != nil {
		return nil, err
	}

	info := faq.SnapshotInfo{
		Version:  art.Manifest.FormatVersion,
		Strategy: art.Manifest.Strategy,
		ModelID:  art.Manifest.ModelID,
		Source:   l.source.String(),
		LoadedAt: l.now().UTC(),
	}
	if built, err := time.Parse(time.RFC3339, art.Manifest.CreatedAt); err == nil {
		info.BuiltAt = built.UTC()
	}
	snap, err := faq.NewSnapshot(catalog, rep, info)
	if err != nil {
		return nil, err
	}
	l.logger.Info("faq catalog loaded", "entries", catalog.Size(), "dim", catalog.Dim(), "strategy", info.Strategy, "model", info.ModelID)
	return snap, nil
}

func (l *Loader) representer(art *artifact.Artifact) (faq.Representer, error) {
	switch art.Manifest.Strategy {
	case faq.StrategyLexical:
		if art.Lexical == nil {
			return nil, fmt.Errorf("%w: lexical artifact without vocabulary", faq.ErrIndexCorrupt)
		}
		model, err := lexical.FromState(art.Lexical.State)
		if err != nil {
			return nil, err
		}
		return lexical.NewRepresenter(model), nil
	case faq.StrategyDense:
		if l.embedder == nil {
			return nil, errors.New("dense artifact requires an embedding provider")
		}
		if art.Manifest.ModelID != "" && art.Manifest.ModelID != l.embedder.ModelID() {
			return nil, fmt.Errorf("%w: artifact built with model %q, configured model is %q", faq.ErrIndexCorrupt, art.Manifest.ModelID, l.embedder.ModelID())
		}
		opts := []dense.Option{dense.WithLogger(l.logger)}
		if l.cache != nil {
			opts = append(opts, dense.WithCache(l.cache, l.cacheTTL))
		}
		return dense.NewRepresenter(l.embedder, art.Manifest.Dim, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", faq.ErrIndexCorrupt, art.Manifest.Strategy)
	}
}

var _ faq.Loader = (*Loader)(nil)
