package faq

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/faq-matcher/pkg/errors"
)

// Service exposes FAQ matching capabilities.
type Service interface {
	ListCatalog(ctx context.Context) ([]CatalogItem, error)
	Ask(ctx context.Context, req AskRequest) (MatchResult, error)
	Trending(ctx context.Context) ([]TrendingQuery, error)
	Status() Status
	Reload(ctx context.Context) (Status, error)
}

type service struct {
	cfg    Config
	holder *SnapshotHolder
	loader Loader
	store  Store
	logger *slog.Logger
}

// NewService wires up the FAQ domain. loader may be nil, in which case
// Reload is rejected.
func NewService(cfg Config, holder *SnapshotHolder, loader Loader, store Store, logger *slog.Logger) Service {
	if holder == nil {
		holder = NewSnapshotHolder(nil)
	}
	return &service{
		cfg:    cfg,
		holder: holder,
		loader: loader,
		store:  store,
		logger: logger.With("component", "faq.service"),
	}
}

func (s *service) ListCatalog(_ context.Context) ([]CatalogItem, error) {
	snap := s.holder.Current()
	if snap == nil {
		return nil, apperrors.Wrap(CodeUnready, "catalog not loaded", ErrUnready)
	}
	return snap.Catalog().Items(), nil
}

func (s *service) Ask(ctx context.Context, req AskRequest) (MatchResult, error) {
	question := strings.TrimSpace(req.Message)
	if IsBlank(question) {
		return MatchResult{Kind: KindEmptyInput}, nil
	}

	snap := s.holder.Current()
	if snap == nil {
		cfg, _ := s.cfg.Policy(StrategyLexical)
		return Match(nil, nil, cfg), nil
	}

	strategy := snap.Representer().Strategy()
	cfg, ok := s.cfg.Policy(strategy)
	if !ok {
		return MatchResult{}, apperrors.Wrap(CodeUnready, "no match policy configured for strategy "+string(strategy), ErrUnready)
	}

	query, err := snap.Representer().Represent(ctx, question)
	if err != nil {
		return MatchResult{}, apperrors.Wrap(CodeRepresenter, "failed to represent question", err)
	}

	result := Match(query, snap.Catalog(), cfg)
	s.logger.Debug("faq matched", "kind", result.Kind, "score", result.Score, "source_id", result.SourceID, "strategy", strategy)

	if result.Answered() {
		if err := s.store.IncrementQuery(ctx, NormalizeQuestion(result.SourceQuestion), result.SourceQuestion); err != nil {
			s.logger.Warn("faq trending increment failed", "error", err)
		}
	}
	return result, nil
}

func (s *service) Trending(ctx context.Context) ([]TrendingQuery, error) {
	recs, err := s.store.TopQueries(ctx, s.cfg.TrendingLimit)
	if err != nil {
		return nil, apperrors.Wrap(CodeStoreFailed, "failed to load trending queries", err)
	}
	return recs, nil
}

func (s *service) Status() Status {
	return statusOf(s.holder.Current())
}

func (s *service) Reload(ctx context.Context) (Status, error) {
	if s.loader == nil {
		return s.Status(), apperrors.Wrap(CodeReloadDisabled, "no catalog loader configured", nil)
	}
	snap, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error("faq reload failed, keeping current snapshot", "error", err)
		return s.Status(), apperrors.Wrap(CodeReloadFailed, "catalog reload failed", err)
	}
	if _, ok := s.cfg.Policy(snap.Representer().Strategy()); !ok {
		return s.Status(), apperrors.Wrap(CodeReloadFailed, "no match policy configured for strategy "+string(snap.Representer().Strategy()), nil)
	}
	previous := s.holder.Swap(snap)
	s.logger.Info("faq snapshot reloaded", "entries", snap.Catalog().Size(), "strategy", snap.Info().Strategy, "replaced", previous != nil)
	return statusOf(snap), nil
}

func statusOf(snap *Snapshot) Status {
	if snap == nil {
		return Status{}
	}
	info := snap.Info()
	return Status{
		Ready:   true,
		Entries: snap.Catalog().Size(),
		Dim:     snap.Catalog().Dim(),
		Info:    &info,
	}
}
