package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/phenology/internal/domain/phenology"
	"github.com/yanqian/phenology/internal/domain/sheets"
	"github.com/yanqian/phenology/internal/infra/config"
	apperrors "github.com/yanqian/phenology/pkg/errors"
)

func TestRouter_PhenologyByTaxonKey(t *testing.T) {
	svc := &stubPhenology{
		byKeyFn: func(ctx context.Context, key int64, geo []string) (phenology.Histogram, error) {
			require.Equal(t, int64(5133088), key)
			require.Equal(t, []string{"gadmGid=USA.46_1"}, geo)
			return phenology.Histogram{Search: "taxonKey=5133088", Total: 10, WeekSum: map[int]int64{24: 10}}, nil
		},
	}

	recorder := performGet("/api/v1/phenology?taxonKey=5133088&geo=gadmGid%3DUSA.46_1", newRouterUnderTest(t, svc, &stubTaxon{}, &stubSheets{}))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotEmpty(t, recorder.Header().Get("X-Request-ID"))

	var got phenology.Histogram
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, int64(10), got.Total)
	require.Equal(t, int64(10), got.WeekSum[24])
}

func TestRouter_PhenologyMultipleKeys(t *testing.T) {
	svc := &stubPhenology{
		getFn: func(ctx context.Context, q phenology.Query) (phenology.Histogram, error) {
			require.Equal(t, "taxonKey=1&taxonKey=2", q.Search)
			require.Empty(t, q.Geography)
			return phenology.Histogram{Search: q.Search}, nil
		},
	}

	recorder := performGet("/api/v1/phenology?taxonKey=1&taxonKey=2", newRouterUnderTest(t, svc, &stubTaxon{}, &stubSheets{}))
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_PhenologyByName(t *testing.T) {
	svc := &stubPhenology{
		byNameFn: func(ctx context.Context, name string, geo []string) (phenology.Histogram, error) {
			require.Equal(t, "Danaus plexippus", name)
			return phenology.Histogram{TaxonName: name}, nil
		},
	}

	recorder := performGet("/api/v1/phenology?scientificName=Danaus%20plexippus", newRouterUnderTest(t, svc, &stubTaxon{}, &stubSheets{}))
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_PhenologyInvalidRequests(t *testing.T) {
	server := newRouterUnderTest(t, &stubPhenology{}, &stubTaxon{}, &stubSheets{})

	for _, path := range []string{
		"/api/v1/phenology",
		"/api/v1/phenology?taxonKey=abc",
		"/api/v1/phenology?taxonKey=1&scientificName=Turdus",
		"/api/v1/phenology/list/-3",
	} {
		recorder := performGet(path, server)
		require.Equal(t, http.StatusBadRequest, recorder.Code, path)
		errBody := decodeErrorBody(t, recorder.Body.Bytes())
		require.Equal(t, "invalid_request", errBody["error"]["code"], path)
	}
}

func TestRouter_PhenologyUpstreamFailure(t *testing.T) {
	svc := &stubPhenology{
		byKeyFn: func(ctx context.Context, key int64, geo []string) (phenology.Histogram, error) {
			return phenology.Histogram{}, apperrors.Wrap(apperrors.CodeUpstreamError, "occurrence search failed", nil)
		},
	}

	recorder := performGet("/api/v1/phenology?taxonKey=7", newRouterUnderTest(t, svc, &stubTaxon{}, &stubSheets{}))
	require.Equal(t, http.StatusBadGateway, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "upstream_error", errBody["error"]["code"])
	require.Contains(t, errBody["error"]["message"], "occurrence search failed")
}

func TestRouter_PhenologyByListKey(t *testing.T) {
	svc := &stubPhenology{
		byListFn: func(ctx context.Context, req phenology.ListKeyRequest) (phenology.Histogram, error) {
			require.Equal(t, int64(42), req.TaxonKey)
			require.Equal(t, "datasetKey=abc", req.SpeciesFilter)
			require.Equal(t, []string{"GENUS"}, req.DrillRanks)
			return phenology.Histogram{Search: "taxonKey=100&taxonKey=101", Keys: []int64{101, 100}}, nil
		},
	}

	recorder := performGet("/api/v1/phenology/list/42?speciesFilter=datasetKey%3Dabc&drillRank=genus", newRouterUnderTest(t, svc, &stubTaxon{}, &stubSheets{}))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got phenology.Histogram
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, []int64{101, 100}, got.Keys)
}

func TestRouter_MatchSpecies(t *testing.T) {
	taxonSvc := &stubTaxon{key: 5133088}
	recorder := performGet("/api/v1/species/match?name=Danaus%20plexippus", newRouterUnderTest(t, &stubPhenology{}, taxonSvc, &stubSheets{}))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, float64(5133088), got["usageKey"])

	taxonSvc = &stubTaxon{err: apperrors.Wrap(apperrors.CodeNotFound, "usage key not found for Nonesuch", nil)}
	recorder = performGet("/api/v1/species/match?name=Nonesuch", newRouterUnderTest(t, &stubPhenology{}, taxonSvc, &stubSheets{}))
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRouter_CanonicalName(t *testing.T) {
	recorder := performGet("/api/v1/taxa/canonical?scientificName=Danaus%20plexippus%20(Linnaeus%2C%201758)&rank=species", newRouterUnderTest(t, &stubPhenology{}, &stubTaxon{}, &stubSheets{}))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "Danaus plexippus", got["canonicalName"])
	require.Equal(t, "SPECIES", got["rank"])
}

func TestRouter_Sheets(t *testing.T) {
	sheetsSvc := &stubSheets{
		ranks: map[string]sheets.TaxonRow{"Danaus plexippus": {ScientificName: "Danaus plexippus", Columns: sheets.Record{"S_RANK": "S3"}}},
	}
	server := newRouterUnderTest(t, &stubPhenology{}, &stubTaxon{}, sheetsSvc)

	recorder := performGet("/api/v1/sheets/sranks?sheet=1", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, 1, sheetsSvc.lastSheet)

	var got map[string]sheets.TaxonRow
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "S3", got["Danaus plexippus"].Columns["S_RANK"])

	recorder = performGet("/api/v1/sheets/vernaculars?sheet=x", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, &stubPhenology{}, &stubTaxon{}, &stubSheets{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/phenology", nil)
	req.Header.Set("Origin", "https://val.vtecostudies.org")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func performGet(path string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, phenologySvc phenology.Service, taxonSvc *stubTaxon, sheetsSvc *stubSheets) *http.Server {
	t.Helper()
	handler := NewHandler(phenologySvc, taxonSvc, sheetsSvc, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	return NewRouter(cfg, handler)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func decodeErrorBody(t *testing.T, body []byte) map[string]map[string]string {
	t.Helper()
	var payload map[string]map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

type stubPhenology struct {
	getFn    func(ctx context.Context, q phenology.Query) (phenology.Histogram, error)
	byKeyFn  func(ctx context.Context, key int64, geo []string) (phenology.Histogram, error)
	byNameFn func(ctx context.Context, name string, geo []string) (phenology.Histogram, error)
	byListFn func(ctx context.Context, req phenology.ListKeyRequest) (phenology.Histogram, error)
}

func (s *stubPhenology) Aggregate(ctx context.Context, q phenology.Query) (phenology.Histogram, error) {
	return s.GetOrCompute(ctx, q)
}

func (s *stubPhenology) GetOrCompute(ctx context.Context, q phenology.Query) (phenology.Histogram, error) {
	if s.getFn != nil {
		return s.getFn(ctx, q)
	}
	return phenology.Histogram{}, nil
}

func (s *stubPhenology) ByTaxonKey(ctx context.Context, key int64, geo []string) (phenology.Histogram, error) {
	if s.byKeyFn != nil {
		return s.byKeyFn(ctx, key, geo)
	}
	return phenology.Histogram{}, nil
}

func (s *stubPhenology) ByTaxonName(ctx context.Context, name string, geo []string) (phenology.Histogram, error) {
	if s.byNameFn != nil {
		return s.byNameFn(ctx, name, geo)
	}
	return phenology.Histogram{}, nil
}

func (s *stubPhenology) ByListKey(ctx context.Context, req phenology.ListKeyRequest) (phenology.Histogram, error) {
	if s.byListFn != nil {
		return s.byListFn(ctx, req)
	}
	return phenology.Histogram{}, nil
}

type stubTaxon struct {
	key int64
	err error
}

func (s *stubTaxon) MatchKey(ctx context.Context, name string) (int64, error) {
	return s.key, s.err
}

func (s *stubTaxon) Canonical(scientificName, rank string) (string, error) {
	if scientificName == "Danaus plexippus (Linnaeus, 1758)" {
		return "Danaus plexippus", nil
	}
	return "", apperrors.Wrap(apperrors.CodeInvalidInput, "unexpected name", nil)
}

type stubSheets struct {
	ranks     map[string]sheets.TaxonRow
	lastSheet int
}

func (s *stubSheets) Vernaculars(ctx context.Context, sheetNumber int) (map[string][]sheets.VernacularName, error) {
	s.lastSheet = sheetNumber
	return map[string][]sheets.VernacularName{}, nil
}

func (s *stubSheets) SRanks(ctx context.Context, sheetNumber int) (map[string]sheets.TaxonRow, error) {
	s.lastSheet = sheetNumber
	return s.ranks, nil
}

func (s *stubSheets) ConservationStatus(ctx context.Context, sheetNumber int) (map[string]sheets.TaxonRow, error) {
	s.lastSheet = sheetNumber
	return s.ranks, nil
}

func (s *stubSheets) Signups(ctx context.Context, sheetNumber int) (map[string][]sheets.Signup, error) {
	s.lastSheet = sheetNumber
	return map[string][]sheets.Signup{}, nil
}
