package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/phenology/internal/domain/phenology"
	"github.com/yanqian/phenology/internal/domain/sheets"
	"github.com/yanqian/phenology/internal/infra/config"
	"github.com/yanqian/phenology/internal/infra/gbif"
	"github.com/yanqian/phenology/internal/infra/phenologystore"
	sheetsclient "github.com/yanqian/phenology/internal/infra/sheets"
)

func providePhenologyConfig(cfg *config.Config) phenology.Config {
	return phenology.Config{
		DefaultGeography: cfg.GBIF.DefaultGeography,
		DrillRanks:       cfg.GBIF.DrillRanks,
		SpeciesFilter:    cfg.GBIF.SpeciesFilter,
		ChartYear:        cfg.GBIF.ChartYear,
	}
}

func provideSheetsConfig(cfg *config.Config) sheets.Config {
	return sheets.Config{
		IDs: sheets.SheetIDs{
			Signups:            cfg.Sheets.SignupsID,
			Vernacular:         cfg.Sheets.VernacularID,
			TaxonSRank:         cfg.Sheets.TaxonSRankID,
			ConservationStatus: cfg.Sheets.ConservationStatID,
		},
	}
}

func provideGBIFClient(cfg *config.Config) *gbif.Client {
	return gbif.NewClient(cfg.GBIF.BaseURL, cfg.GBIF.Timeout)
}

func provideSheetsClient(cfg *config.Config) *sheetsclient.Client {
	return sheetsclient.NewClient(cfg.Sheets.BaseURL, cfg.Sheets.APIKey, cfg.Sheets.Timeout)
}

// provideHistogramStore picks the cache backend; any backend that cannot be reached falls back to memory.
func provideHistogramStore(cfg *config.Config, logger *slog.Logger) phenology.Store {
	switch cfg.Cache.Backend {
	case config.CacheBackendNone:
		logger.Info("histogram cache disabled")
		return nil
	case config.CacheBackendValkey:
		if store := provideValkeyStore(cfg, logger); store != nil {
			return store
		}
	case config.CacheBackendPostgres:
		if store := providePostgresStore(cfg, logger); store != nil {
			return store
		}
	case config.CacheBackendObjectStore:
		if store := provideObjectStore(cfg, logger); store != nil {
			return store
		}
	}
	logger.Info("histogram memory store enabled")
	return phenologystore.NewMemoryStore()
}

func provideValkeyStore(cfg *config.Config, logger *slog.Logger) *phenologystore.ValkeyStore {
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return nil
	}
	logger.Info("histogram valkey store enabled", "addr", cfg.Cache.Valkey.Addr)
	return phenologystore.NewValkeyStore(client, cfg.Cache.Prefix)
}

func providePostgresStore(cfg *config.Config, logger *slog.Logger) *phenologystore.PostgresStore {
	poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(cfg.Cache.Postgres.DSN))
	if err != nil {
		logger.Error("invalid postgres dsn, falling back to memory store", "error", err)
		return nil
	}
	if cfg.Cache.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Cache.Postgres.MaxConns
	}
	if cfg.Cache.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Cache.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, falling back to memory store", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, falling back to memory store", "error", err)
		pool.Close()
		return nil
	}
	store := phenologystore.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("postgres schema setup failed, falling back to memory store", "error", err)
		store.Close()
		return nil
	}
	logger.Info("histogram postgres store enabled")
	return store
}

func provideObjectStore(cfg *config.Config, logger *slog.Logger) *phenologystore.ObjectStore {
	oc := cfg.Cache.ObjectStore
	store, err := phenologystore.NewObjectStore(oc.Endpoint, oc.AccessKey, oc.SecretKey, oc.Bucket, oc.Region, cfg.Cache.Prefix, logger)
	if err != nil {
		logger.Error("failed to create object store client, falling back to memory store", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Error("object store bucket check failed, falling back to memory store", "error", err)
		return nil
	}
	logger.Info("histogram object store enabled", "bucket", oc.Bucket)
	return store
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
