package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

// LoadSnapshot performs the startup catalog load. A missing artifact leaves
// the holder empty so the service starts unready; any other failure, a
// corrupt artifact included, aborts startup.
func LoadSnapshot(ctx context.Context, loader faq.Loader, logger *slog.Logger) (*faq.SnapshotHolder, error) {
	logger = logger.With("component", "bootstrap")
	holder := faq.NewSnapshotHolder(nil)
	if loader == nil {
		logger.Warn("no catalog loader configured, serving unready")
		return holder, nil
	}
	snap, err := loader.Load(ctx)
	if err != nil {
		if errors.Is(err, faq.ErrArtifactMissing) {
			logger.Warn("catalog artifact missing, serving unready until reload", "error", err)
			return holder, nil
		}
		logger.Error("catalog load failed", "error", err)
		return nil, err
	}
	holder.Swap(snap)
	info := snap.Info()
	logger.Info("catalog loaded", "entries", snap.Catalog().Size(), "dim", snap.Catalog().Dim(), "strategy", info.Strategy, "model_id", info.ModelID, "source", info.Source)
	return holder, nil
}
