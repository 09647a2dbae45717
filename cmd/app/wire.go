//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/phenology/internal/bootstrap"
	"github.com/yanqian/phenology/internal/domain/phenology"
	"github.com/yanqian/phenology/internal/domain/sheets"
	"github.com/yanqian/phenology/internal/domain/taxon"
	"github.com/yanqian/phenology/internal/infra/config"
	"github.com/yanqian/phenology/internal/infra/gbif"
	sheetsclient "github.com/yanqian/phenology/internal/infra/sheets"
	httpiface "github.com/yanqian/phenology/internal/interface/http"
	"github.com/yanqian/phenology/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		providePhenologyConfig,
		provideSheetsConfig,
		provideGBIFClient,
		provideSheetsClient,
		provideHistogramStore,
		phenology.NewService,
		taxon.NewService,
		sheets.NewService,
		wire.Bind(new(phenology.OccurrenceClient), new(*gbif.Client)),
		wire.Bind(new(phenology.TaxonResolver), new(*gbif.Client)),
		wire.Bind(new(taxon.Matcher), new(*gbif.Client)),
		wire.Bind(new(sheets.Client), new(*sheetsclient.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
