package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/faq-matcher/internal/bootstrap"
	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/infra/admintoken"
	"github.com/yanqian/faq-matcher/internal/infra/artifact"
	"github.com/yanqian/faq-matcher/internal/infra/catalogload"
	"github.com/yanqian/faq-matcher/internal/infra/config"
	"github.com/yanqian/faq-matcher/internal/infra/faqrepo"
	"github.com/yanqian/faq-matcher/internal/infra/faqstore"
	"github.com/yanqian/faq-matcher/internal/infra/representer/dense"
	httpiface "github.com/yanqian/faq-matcher/internal/interface/http"
)

const startupLoadTimeout = 2 * time.Minute

// faqBackend serves both the trending counters and the query vector cache.
type faqBackend interface {
	faq.Store
	faq.VectorCache
}

func provideFAQConfig(cfg *config.Config) faq.Config {
	return faq.Config{
		Policies:      cfg.FAQ.MatchPolicies(),
		TrendingLimit: cfg.FAQ.TrendingLimit,
	}
}

func provideFAQBackend(cfg *config.Config, logger *slog.Logger) (faqBackend, func()) {
	noop := func() {}
	if !cfg.FAQ.Redis.Enabled {
		return faqstore.NewMemoryStore(), noop
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return faqstore.NewMemoryStore(), noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return faqstore.NewMemoryStore(), noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return faqstore.NewMemoryStore(), noop
	}
	logger.Info("faq valkey store enabled", "addr", cfg.FAQ.Redis.Addr)
	return faqstore.NewValkeyStore(client, "faq"), client.Close
}

func provideFAQStore(backend faqBackend) faq.Store { return backend }

func provideVectorCache(backend faqBackend) faq.VectorCache { return backend }

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.FAQ.Redis.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.FAQ.Redis.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.FAQ.Redis.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

// provideEmbedder returns nil when the provider cannot be built; only dense
// catalogs need it and the loader rejects those without one.
func provideEmbedder(cfg *config.Config, logger *slog.Logger) dense.Embedder {
	embedder, err := dense.NewEmbedder(providerConfig(cfg), logger)
	if err != nil {
		logger.Warn("embedding provider unavailable, dense catalogs cannot be served", "provider", cfg.LLM.Provider, "error", err)
		return nil
	}
	return embedder
}

func providerConfig(cfg *config.Config) dense.ProviderConfig {
	return dense.ProviderConfig{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.EmbeddingModel,
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Dim:       cfg.LLM.Dim,
		BatchSize: cfg.LLM.BatchSize,
	}
}

func provideArtifactSource(cfg *config.Config, logger *slog.Logger) (catalogload.ArtifactSource, func(), error) {
	noop := func() {}
	switch cfg.FAQ.Source {
	case config.SourceS3:
		store, err := artifact.NewObjectStore(objectConfig(cfg), logger)
		if err != nil {
			return nil, noop, err
		}
		return catalogload.FromSource(store), noop, nil
	case config.SourcePostgres:
		pool, err := newPostgresPool(cfg)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("faq postgres catalog source enabled")
		return faqrepo.NewPostgresRepository(pool), pool.Close, nil
	default:
		return catalogload.FromSource(artifact.DirSource{Dir: cfg.FAQ.ArtifactDir}), noop, nil
	}
}

func objectConfig(cfg *config.Config) artifact.ObjectConfig {
	o := cfg.FAQ.ObjectStorage
	return artifact.ObjectConfig{
		Endpoint:  o.Endpoint,
		AccessKey: o.AccessKey,
		SecretKey: o.SecretKey,
		Bucket:    o.Bucket,
		Region:    o.Region,
		Prefix:    o.Prefix,
	}
}

func newPostgresPool(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(cfg.FAQ.Postgres.DSN))
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if cfg.FAQ.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.FAQ.Postgres.MaxConns
	}
	if cfg.FAQ.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.FAQ.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres pool: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

func provideLoader(cfg *config.Config, source catalogload.ArtifactSource, embedder dense.Embedder, cache faq.VectorCache, logger *slog.Logger) *catalogload.Loader {
	opts := []catalogload.Option{
		catalogload.WithLogger(logger),
		catalogload.WithVectorCache(cache, cfg.FAQ.CacheTTL),
	}
	if embedder != nil {
		opts = append(opts, catalogload.WithEmbedder(embedder))
	}
	return catalogload.New(source, opts...)
}

func provideSnapshotHolder(loader faq.Loader, logger *slog.Logger) (*faq.SnapshotHolder, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupLoadTimeout)
	defer cancel()
	return bootstrap.LoadSnapshot(ctx, loader, logger)
}

func provideTokenValidator(cfg *config.Config) (httpiface.TokenValidator, error) {
	if !cfg.Admin.Enabled {
		return nil, nil
	}
	return admintoken.NewManager(cfg.Admin.Secret, cfg.Admin.Issuer, cfg.Admin.TokenTTL)
}
