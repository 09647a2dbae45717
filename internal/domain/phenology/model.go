package phenology

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/yanqian/phenology/pkg/metrics"
)

const (
	// WeeksPerYear is the length of the dense weekly chart array.
	WeeksPerYear = 53
	// DaysPerYear is the length of the dense day-of-year chart array.
	DaysPerYear = 366
)

// Query is the signature of one aggregation: a taxonomic predicate plus geography filters.
type Query struct {
	Search    string   `json:"search"`
	Geography []string `json:"geography,omitempty"`
}

// Key is the cache key: the search term, followed by the JSON geography list when one is given.
func (q Query) Key() string {
	if len(q.Geography) == 0 {
		return q.Search
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(q.Geography); err != nil {
		return q.Search
	}
	return q.Search + strings.TrimSuffix(buf.String(), "\n")
}

// SearchByTaxonKeys builds a predicate OR-ing the given taxon keys.
func SearchByTaxonKeys(keys ...int64) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, "taxonKey="+strconv.FormatInt(key, 10))
	}
	return strings.Join(parts, "&")
}

// SearchByName builds a scientific name predicate.
func SearchByName(name string) string {
	return "scientificName=" + strings.TrimSpace(name)
}

// FacetCount is one eventDate bucket returned by the occurrence search.
type FacetCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// FacetResult is the parsed facet payload of one occurrence search.
type FacetResult struct {
	// HasFacets is false when the response carried an empty facets array.
	HasFacets bool
	Counts    []FacetCount
}

// WeekBucket is one entry of the dense weekly chart array.
type WeekBucket struct {
	Count  int64 `json:"count"`
	Week   int   `json:"week"`
	Months []int `json:"month"`
}

// DayBucket is one entry of the dense day-of-year chart array.
type DayBucket struct {
	Count int64 `json:"count"`
	DOY   int   `json:"doy"`
}

// DayExtent is the observed day-of-year range.
type DayExtent struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Histogram is the aggregated occurrence phenology for one query.
type Histogram struct {
	Search    string              `json:"search"`
	TaxonName string              `json:"taxonName,omitempty"`
	Total     int64               `json:"total"`
	WeekToday int                 `json:"weekToday"`
	WeekSum   map[int]int64       `json:"weekSum"`
	MonthSum  map[int]int64       `json:"monthSum"`
	DaySum    map[int]int64       `json:"dSum"`
	WeekArr   []WeekBucket        `json:"weekArr"`
	DoyArr    []DayBucket         `json:"doyArr"`
	DoyExt    DayExtent           `json:"doyExt"`
	Stats     metrics.FanoutStats `json:"stats"`

	// Set by the species-list variant only.
	NubKey int64    `json:"nubKey,omitempty"`
	Keys   []int64  `json:"keys,omitempty"`
	Names  []string `json:"names,omitempty"`
}

// IsEmpty reports whether h carries no data at all, as a zero-value or "{}" cache entry would.
func (h Histogram) IsEmpty() bool {
	return h.Search == "" && h.Total == 0 && len(h.WeekArr) == 0 && len(h.DoyArr) == 0
}

// Taxon is the subset of a GBIF species record needed for drill-down.
type Taxon struct {
	Key           int64  `json:"key"`
	NubKey        int64  `json:"nubKey"`
	Rank          string `json:"rank"`
	CanonicalName string `json:"canonicalName"`
}

// SubTaxa lists the subordinate backbone keys of a species-list taxon.
type SubTaxa struct {
	Keys  []int64
	Names []string
}

// ListKeyRequest asks for phenology of a species-list taxon widened by its subordinate taxa.
type ListKeyRequest struct {
	TaxonKey      int64
	SpeciesFilter string
	Geography     []string
	DrillRanks    []string
}

// Config wires runtime knobs for the phenology domain.
type Config struct {
	DefaultGeography []string
	DrillRanks       []string
	SpeciesFilter    string
	ChartYear        int
}
