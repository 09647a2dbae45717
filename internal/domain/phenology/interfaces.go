package phenology

import "context"

// OccurrenceClient runs one eventDate facet search for a predicate within a geography filter.
type OccurrenceClient interface {
	EventDateFacets(ctx context.Context, search, geography string) (FacetResult, error)
}

// TaxonResolver expands species-list taxa into their subordinate backbone taxa.
type TaxonResolver interface {
	Taxon(ctx context.Context, key int64) (Taxon, error)
	SubTaxa(ctx context.Context, speciesFilter string, key int64) (SubTaxa, error)
}

// Store persists computed histograms by query key. Entries never expire.
type Store interface {
	Get(ctx context.Context, key string) (Histogram, bool, error)
	Put(ctx context.Context, key string, histogram Histogram) error
}
