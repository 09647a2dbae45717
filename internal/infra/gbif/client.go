package gbif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/phenology/internal/domain/phenology"
	apperrors "github.com/yanqian/phenology/pkg/errors"
)

const (
	defaultBaseURL = "https://api.gbif.org/v1"
	// facetLimit is large enough to return every distinct eventDate of a taxon.
	facetLimit      = 1200000
	subTaxaPageSize = 1000
	maxSubTaxaPages = 20
)

var errNotFound = errors.New("gbif resource not found")

// Client talks to the GBIF occurrence and species APIs.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an API client. A zero timeout uses 30 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// EventDateFacets counts occurrences per eventDate for a taxon predicate within one geography filter.
func (c *Client) EventDateFacets(ctx context.Context, search, geography string) (phenology.FacetResult, error) {
	params, err := mergeQueries(geography, search)
	if err != nil {
		return phenology.FacetResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid occurrence query", err)
	}
	params.Set("facet", "eventDate")
	params.Set("facetLimit", strconv.Itoa(facetLimit))
	params.Set("limit", "0")

	var raw occurrenceResponse
	if err := c.getJSON(ctx, "/occurrence/search", params, &raw); err != nil {
		return phenology.FacetResult{}, fmt.Errorf("occurrence search: %w", err)
	}
	if raw.Facets == nil {
		return phenology.FacetResult{}, errors.New("occurrence search: response has no facets field")
	}
	facets := *raw.Facets
	if len(facets) == 0 {
		return phenology.FacetResult{}, nil
	}
	if facets[0].Counts == nil {
		return phenology.FacetResult{}, errors.New("occurrence search: facet has no counts field")
	}
	counts := make([]phenology.FacetCount, 0, len(*facets[0].Counts))
	for _, fc := range *facets[0].Counts {
		counts = append(counts, phenology.FacetCount{Name: fc.Name, Count: fc.Count})
	}
	return phenology.FacetResult{HasFacets: true, Counts: counts}, nil
}

// MatchName resolves a name to its backbone usage key.
func (c *Client) MatchName(ctx context.Context, name string) (int64, error) {
	params := url.Values{}
	params.Set("name", name)

	var raw matchResponse
	if err := c.getJSON(ctx, "/species/match", params, &raw); err != nil {
		return 0, fmt.Errorf("species match: %w", err)
	}
	if raw.UsageKey == 0 {
		return 0, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("usage key not found for %s", name), nil)
	}
	return raw.UsageKey, nil
}

// Taxon fetches a species record, such as a species-list entry, by key.
func (c *Client) Taxon(ctx context.Context, key int64) (phenology.Taxon, error) {
	var raw speciesRecord
	err := c.getJSON(ctx, "/species/"+strconv.FormatInt(key, 10), nil, &raw)
	if errors.Is(err, errNotFound) {
		return phenology.Taxon{}, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("taxon %d not found", key), err)
	}
	if err != nil {
		return phenology.Taxon{}, fmt.Errorf("species lookup: %w", err)
	}
	return phenology.Taxon{
		Key:           raw.Key,
		NubKey:        raw.NubKey,
		Rank:          raw.Rank,
		CanonicalName: raw.CanonicalName,
	}, nil
}

// SubTaxa lists the backbone keys and names of taxa below key that match speciesFilter.
func (c *Client) SubTaxa(ctx context.Context, speciesFilter string, key int64) (phenology.SubTaxa, error) {
	params, err := mergeQueries(speciesFilter)
	if err != nil {
		return phenology.SubTaxa{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid species filter", err)
	}
	params.Set("higherTaxonKey", strconv.FormatInt(key, 10))
	params.Set("limit", strconv.Itoa(subTaxaPageSize))

	var subs phenology.SubTaxa
	seen := make(map[int64]struct{})
	for page := 0; page < maxSubTaxaPages; page++ {
		params.Set("offset", strconv.Itoa(page*subTaxaPageSize))
		var raw speciesSearchResponse
		if err := c.getJSON(ctx, "/species/search", params, &raw); err != nil {
			return phenology.SubTaxa{}, fmt.Errorf("species search: %w", err)
		}
		for _, rec := range raw.Results {
			if rec.NubKey == 0 || rec.Key == key {
				continue
			}
			if _, dup := seen[rec.NubKey]; dup {
				continue
			}
			seen[rec.NubKey] = struct{}{}
			subs.Keys = append(subs.Keys, rec.NubKey)
			subs.Names = append(subs.Names, rec.CanonicalName)
		}
		if raw.EndOfRecords || len(raw.Results) == 0 {
			break
		}
	}
	return subs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build gbif request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gbif request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("gbif request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gbif response: %w", err)
	}
	return nil
}

// mergeQueries combines raw query strings such as "stateProvince=a&stateProvince=b",
// keeping repeated parameters so the API ORs them.
func mergeQueries(raws ...string) (url.Values, error) {
	out := url.Values{}
	for _, raw := range raws {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parsed, err := url.ParseQuery(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", raw, err)
		}
		for key, values := range parsed {
			for _, v := range values {
				out.Add(key, v)
			}
		}
	}
	return out, nil
}

type occurrenceResponse struct {
	Count  int64       `json:"count"`
	Facets *[]apiFacet `json:"facets"`
}

type apiFacet struct {
	Field  string        `json:"field"`
	Counts *[]facetCount `json:"counts"`
}

type facetCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type matchResponse struct {
	UsageKey  int64  `json:"usageKey"`
	MatchType string `json:"matchType"`
}

type speciesRecord struct {
	Key           int64  `json:"key"`
	NubKey        int64  `json:"nubKey"`
	Rank          string `json:"rank"`
	CanonicalName string `json:"canonicalName"`
}

type speciesSearchResponse struct {
	Offset       int             `json:"offset"`
	Limit        int             `json:"limit"`
	EndOfRecords bool            `json:"endOfRecords"`
	Results      []speciesRecord `json:"results"`
}

var (
	_ phenology.OccurrenceClient = (*Client)(nil)
	_ phenology.TaxonResolver    = (*Client)(nil)
)
