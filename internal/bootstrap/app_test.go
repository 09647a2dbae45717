package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/phenology/internal/domain/phenology"
	"github.com/yanqian/phenology/internal/infra/config"
	"github.com/yanqian/phenology/internal/infra/phenologystore"
)

func TestAppRunClosesCacheSession(t *testing.T) {
	store := phenologystore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "taxonKey=1", phenology.Histogram{Search: "taxonKey=1", Total: 3}))

	cfg := &config.Config{HTTP: config.HTTPConfig{Address: "127.0.0.1:0"}, Cache: config.CacheConfig{Backend: config.CacheBackendMemory}}
	server := &http.Server{Addr: cfg.HTTP.Address, Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	app := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), server, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, app.Run(ctx))
	require.Equal(t, 0, store.Len())
}

func TestAppRunWithoutStore(t *testing.T) {
	cfg := &config.Config{HTTP: config.HTTPConfig{Address: "127.0.0.1:0"}}
	server := &http.Server{Addr: cfg.HTTP.Address, Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	app := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), server, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, app.Run(ctx))
}
