package phenology

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/yanqian/phenology/pkg/errors"
	"github.com/yanqian/phenology/pkg/util"
)

// BuiltinGeography is used when neither the caller nor the config names geography filters.
// The region is stored three ways upstream; the two free-text spellings share one request.
var BuiltinGeography = []string{
	"gadmGid=USA.46_1",
	"stateProvince=vermont&stateProvince=vermont (State)",
}

// DefaultDrillRanks are the ranks whose subordinate taxa are folded into a list-key search.
var DefaultDrillRanks = []string{"GENUS", "SPECIES"}

const defaultChartYear = 2023

// Service exposes phenology aggregation.
type Service interface {
	Aggregate(ctx context.Context, q Query) (Histogram, error)
	GetOrCompute(ctx context.Context, q Query) (Histogram, error)
	ByTaxonKey(ctx context.Context, key int64, geography []string) (Histogram, error)
	ByTaxonName(ctx context.Context, name string, geography []string) (Histogram, error)
	ByListKey(ctx context.Context, req ListKeyRequest) (Histogram, error)
}

type service struct {
	cfg      Config
	client   OccurrenceClient
	resolver TaxonResolver
	store    Store
	logger   *slog.Logger
	now      util.Clock
	group    singleflight.Group
}

// NewService wires up the phenology domain. A nil store disables caching.
func NewService(cfg Config, client OccurrenceClient, resolver TaxonResolver, store Store, logger *slog.Logger) Service {
	return newService(cfg, client, resolver, store, logger)
}

func newService(cfg Config, client OccurrenceClient, resolver TaxonResolver, store Store, logger *slog.Logger) *service {
	if len(cfg.DefaultGeography) == 0 {
		cfg.DefaultGeography = BuiltinGeography
	}
	if len(cfg.DrillRanks) == 0 {
		cfg.DrillRanks = DefaultDrillRanks
	}
	if cfg.ChartYear <= 0 {
		cfg.ChartYear = defaultChartYear
	}
	return &service{
		cfg:      cfg,
		client:   client,
		resolver: resolver,
		store:    store,
		logger:   logger.With("component", "phenology.service"),
		now:      util.NowUTC,
	}
}

// Aggregate fans out one facet search per geography filter and merges the counts.
// Any failed request fails the whole aggregation.
func (s *service) Aggregate(ctx context.Context, q Query) (Histogram, error) {
	search := strings.TrimSpace(q.Search)
	if search == "" {
		return Histogram{}, apperrors.Wrap(apperrors.CodeInvalidInput, "search term cannot be empty", nil)
	}
	geography := q.Geography
	if len(geography) == 0 {
		geography = s.cfg.DefaultGeography
	}

	results := make([]FacetResult, len(geography))
	g, gctx := errgroup.WithContext(ctx)
	for i, geo := range geography {
		g.Go(func() error {
			res, err := s.client.EventDateFacets(gctx, search, geo)
			if err != nil {
				return fmt.Errorf("facet search %q: %w", geo, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if apperrors.CodeOf(err) != "" {
			return Histogram{}, err
		}
		return Histogram{}, apperrors.Wrap(apperrors.CodeUpstreamError, "occurrence search failed", err)
	}

	hist := Fold(search, results, s.now(), s.cfg.ChartYear)
	s.logger.Info("phenology aggregated",
		"search", search,
		"requests", hist.Stats.Requests,
		"buckets", hist.Stats.Buckets,
		"excluded", hist.Stats.Excluded,
		"skipped", hist.Stats.Skipped,
		"total", hist.Total,
	)
	return hist, nil
}

// GetOrCompute serves a histogram from the store, computing and storing it on a miss.
// Store failures only disable caching for the call; compute failures are returned and not stored.
func (s *service) GetOrCompute(ctx context.Context, q Query) (Histogram, error) {
	key := q.Key()
	if hist, ok := s.lookup(ctx, key); ok {
		return hist, nil
	}

	// The shared computation outlives any single caller; each caller only stops waiting on its own ctx.
	computeCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		if hist, ok := s.lookup(computeCtx, key); ok {
			return hist, nil
		}
		hist, err := s.Aggregate(computeCtx, q)
		if err != nil {
			return Histogram{}, err
		}
		s.save(computeCtx, key, hist)
		return hist, nil
	})

	select {
	case <-ctx.Done():
		return Histogram{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Histogram{}, res.Err
		}
		if res.Shared {
			s.logger.Debug("phenology computation shared", "key", key)
		}
		return res.Val.(Histogram), nil
	}
}

func (s *service) lookup(ctx context.Context, key string) (Histogram, bool) {
	if s.store == nil {
		return Histogram{}, false
	}
	hist, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("phenology cache read failed", "key", key, "error", err)
		return Histogram{}, false
	}
	if !ok || hist.IsEmpty() {
		s.logger.Debug("phenology cache miss", "key", key)
		return Histogram{}, false
	}
	s.logger.Debug("phenology cache hit", "key", key)
	return hist, true
}

func (s *service) save(ctx context.Context, key string, hist Histogram) {
	if s.store == nil {
		return
	}
	if err := s.store.Put(ctx, key, hist); err != nil {
		s.logger.Warn("phenology cache write failed", "key", key, "error", err)
	}
}

func (s *service) ByTaxonKey(ctx context.Context, key int64, geography []string) (Histogram, error) {
	if key <= 0 {
		return Histogram{}, apperrors.Wrap(apperrors.CodeInvalidInput, "taxon key must be positive", nil)
	}
	return s.GetOrCompute(ctx, Query{Search: SearchByTaxonKeys(key), Geography: geography})
}

func (s *service) ByTaxonName(ctx context.Context, name string, geography []string) (Histogram, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Histogram{}, apperrors.Wrap(apperrors.CodeInvalidInput, "taxon name cannot be empty", nil)
	}
	hist, err := s.GetOrCompute(ctx, Query{Search: SearchByName(name), Geography: geography})
	if err != nil {
		return Histogram{}, err
	}
	hist.TaxonName = name
	return hist, nil
}

// ByListKey resolves a species-list taxon to its backbone key and, for drill-down ranks,
// ORs in the backbone keys of its subordinate taxa before aggregating.
func (s *service) ByListKey(ctx context.Context, req ListKeyRequest) (Histogram, error) {
	if req.TaxonKey <= 0 {
		return Histogram{}, apperrors.Wrap(apperrors.CodeInvalidInput, "taxon key must be positive", nil)
	}
	if s.resolver == nil {
		return Histogram{}, apperrors.Wrap(apperrors.CodeUpstreamError, "taxon resolver not configured", nil)
	}
	self, err := s.resolver.Taxon(ctx, req.TaxonKey)
	if err != nil {
		return Histogram{}, wrapUpstream("taxon lookup failed", err)
	}

	selfKey := req.TaxonKey
	if self.NubKey > 0 {
		selfKey = self.NubKey
	}
	keys := []int64{selfKey}

	drillRanks := req.DrillRanks
	if len(drillRanks) == 0 {
		drillRanks = s.cfg.DrillRanks
	}
	filter := req.SpeciesFilter
	if filter == "" {
		filter = s.cfg.SpeciesFilter
	}

	var subs SubTaxa
	if slices.Contains(drillRanks, strings.ToUpper(self.Rank)) {
		subs, err = s.resolver.SubTaxa(ctx, filter, req.TaxonKey)
		if err != nil {
			return Histogram{}, wrapUpstream("subordinate taxa lookup failed", err)
		}
		keys = append(keys, subs.Keys...)
	}
	search := SearchByTaxonKeys(keys...)
	s.logger.Info("phenology list key expanded", "taxonKey", req.TaxonKey, "nubKey", self.NubKey, "subKeys", len(subs.Keys))

	hist, err := s.GetOrCompute(ctx, Query{Search: search, Geography: req.Geography})
	if err != nil {
		return Histogram{}, err
	}
	hist.NubKey = self.NubKey
	hist.Keys = append(append([]int64{}, subs.Keys...), selfKey)
	hist.Names = subs.Names
	hist.Search = search
	return hist, nil
}

func wrapUpstream(message string, err error) error {
	if apperrors.CodeOf(err) != "" {
		return err
	}
	return apperrors.Wrap(apperrors.CodeUpstreamError, message, err)
}
