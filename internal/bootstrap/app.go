package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/infra/config"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	holder *faq.SnapshotHolder
}

// NewApp is used by Wire to build the runnable app. holder is the snapshot
// the service reads; it is only consulted for the startup log line.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, holder *faq.SnapshotHolder) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, holder: holder}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address, "catalog_ready", a.holder.Current() != nil, "source", a.cfg.FAQ.Source)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
