package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/phenology/internal/domain/phenology"
	"github.com/yanqian/phenology/internal/infra/config"
)

// App encapsulates the HTTP server lifecycle and the cache session it owns.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	store  phenology.Store
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, store phenology.Store) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, store: store}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address, "cache", a.cfg.Cache.Backend)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		err := a.server.Shutdown(shutdownCtx)
		a.closeStore(shutdownCtx)
		return err
	case err := <-errCh:
		a.closeStore(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// closeStore ends the cache session: process-local entries are dropped and clients released.
func (a *App) closeStore(ctx context.Context) {
	if a.store == nil {
		return
	}
	if clearer, ok := a.store.(interface{ Clear(context.Context) error }); ok {
		if err := clearer.Clear(ctx); err != nil {
			a.logger.Warn("cache clear failed", "error", err)
		}
	}
	if closer, ok := a.store.(interface{ Close() }); ok {
		closer.Close()
	}
	a.logger.Info("cache session closed")
}
