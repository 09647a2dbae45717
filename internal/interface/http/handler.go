package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/phenology/internal/domain/phenology"
	"github.com/yanqian/phenology/internal/domain/sheets"
	"github.com/yanqian/phenology/internal/domain/taxon"
	apperrors "github.com/yanqian/phenology/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	phenologySvc phenology.Service
	taxonSvc     taxon.Service
	sheetsSvc    sheets.Service
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(phenologySvc phenology.Service, taxonSvc taxon.Service, sheetsSvc sheets.Service, logger *slog.Logger) *Handler {
	return &Handler{
		phenologySvc: phenologySvc,
		taxonSvc:     taxonSvc,
		sheetsSvc:    sheetsSvc,
		logger:       logger.With("component", "http.handler"),
	}
}

// Phenology returns weekly/monthly occurrence histograms for taxon keys or a scientific name.
func (h *Handler) Phenology(c *gin.Context) {
	geography := c.QueryArray("geo")
	name := strings.TrimSpace(c.Query("scientificName"))
	rawKeys := c.QueryArray("taxonKey")

	var (
		hist phenology.Histogram
		err  error
	)
	switch {
	case len(rawKeys) > 0 && name != "":
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "use either taxonKey or scientificName, not both", nil))
		return
	case len(rawKeys) == 1:
		key, parseErr := parseKey(rawKeys[0])
		if parseErr != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", parseErr.Error(), parseErr))
			return
		}
		hist, err = h.phenologySvc.ByTaxonKey(c.Request.Context(), key, geography)
	case len(rawKeys) > 1:
		keys := make([]int64, 0, len(rawKeys))
		for _, raw := range rawKeys {
			key, parseErr := parseKey(raw)
			if parseErr != nil {
				abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", parseErr.Error(), parseErr))
				return
			}
			keys = append(keys, key)
		}
		hist, err = h.phenologySvc.GetOrCompute(c.Request.Context(), phenology.Query{
			Search:    phenology.SearchByTaxonKeys(keys...),
			Geography: geography,
		})
	case name != "":
		hist, err = h.phenologySvc.ByTaxonName(c.Request.Context(), name, geography)
	default:
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "taxonKey or scientificName is required", nil))
		return
	}
	if err != nil {
		abortWithError(c, domainError(err, "phenology_failed"))
		return
	}

	c.JSON(http.StatusOK, hist)
}

// PhenologyByListKey aggregates a species-list taxon together with its subordinate taxa.
func (h *Handler) PhenologyByListKey(c *gin.Context) {
	key, err := parseKey(c.Param("taxonKey"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	drillRanks := make([]string, 0)
	for _, rank := range c.QueryArray("drillRank") {
		if trimmed := strings.ToUpper(strings.TrimSpace(rank)); trimmed != "" {
			drillRanks = append(drillRanks, trimmed)
		}
	}

	hist, err := h.phenologySvc.ByListKey(c.Request.Context(), phenology.ListKeyRequest{
		TaxonKey:      key,
		SpeciesFilter: c.Query("speciesFilter"),
		Geography:     c.QueryArray("geo"),
		DrillRanks:    drillRanks,
	})
	if err != nil {
		abortWithError(c, domainError(err, "phenology_failed"))
		return
	}

	c.JSON(http.StatusOK, hist)
}

// MatchSpecies resolves a name to its backbone usage key.
func (h *Handler) MatchSpecies(c *gin.Context) {
	name := c.Query("name")
	key, err := h.taxonSvc.MatchKey(c.Request.Context(), name)
	if err != nil {
		abortWithError(c, domainError(err, "species_match_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": strings.TrimSpace(name), "usageKey": key})
}

// CanonicalName strips authorship and rank markers from a scientific name.
func (h *Handler) CanonicalName(c *gin.Context) {
	scientificName := c.Query("scientificName")
	rank := c.Query("rank")
	name, err := h.taxonSvc.Canonical(scientificName, rank)
	if err != nil {
		abortWithError(c, domainError(err, "canonical_name_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"scientificName": scientificName, "rank": strings.ToUpper(rank), "canonicalName": name})
}

// Vernaculars returns vernacular names grouped by taxon id.
func (h *Handler) Vernaculars(c *gin.Context) {
	sheet, ok := sheetNumber(c)
	if !ok {
		return
	}
	names, err := h.sheetsSvc.Vernaculars(c.Request.Context(), sheet)
	if err != nil {
		abortWithError(c, domainError(err, "sheet_failed"))
		return
	}
	c.JSON(http.StatusOK, names)
}

// SRanks returns the state-rank table keyed by scientific name.
func (h *Handler) SRanks(c *gin.Context) {
	sheet, ok := sheetNumber(c)
	if !ok {
		return
	}
	ranks, err := h.sheetsSvc.SRanks(c.Request.Context(), sheet)
	if err != nil {
		abortWithError(c, domainError(err, "sheet_failed"))
		return
	}
	c.JSON(http.StatusOK, ranks)
}

// ConservationStatus returns the conservation-status table keyed by scientific name.
func (h *Handler) ConservationStatus(c *gin.Context) {
	sheet, ok := sheetNumber(c)
	if !ok {
		return
	}
	status, err := h.sheetsSvc.ConservationStatus(c.Request.Context(), sheet)
	if err != nil {
		abortWithError(c, domainError(err, "sheet_failed"))
		return
	}
	c.JSON(http.StatusOK, status)
}

// Signups returns volunteer signups grouped by their key column.
func (h *Handler) Signups(c *gin.Context) {
	sheet, ok := sheetNumber(c)
	if !ok {
		return
	}
	signups, err := h.sheetsSvc.Signups(c.Request.Context(), sheet)
	if err != nil {
		abortWithError(c, domainError(err, "sheet_failed"))
		return
	}
	c.JSON(http.StatusOK, signups)
}

func sheetNumber(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("sheet", "0")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "sheet must be a non-negative integer", err))
		return 0, false
	}
	return n, true
}

func parseKey(raw string) (int64, error) {
	key, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || key <= 0 {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, "taxon key must be a positive integer", err)
	}
	return key, nil
}

// domainError maps AppError codes onto HTTP statuses.
func domainError(err error, fallbackCode string) *HTTPError {
	status := http.StatusInternalServerError
	code := fallbackCode
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidInput):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, apperrors.CodeNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case apperrors.IsCode(err, apperrors.CodeUpstreamError):
		status = http.StatusBadGateway
		code = "upstream_error"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
