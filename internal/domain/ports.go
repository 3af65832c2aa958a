package domain

import "context"

// TableStore is the persistence boundary: full-table replace writes and
// full-table reads under fixed logical table names. Single writer.
type TableStore interface {
	// Raw layer
	ReplaceRawPlaces(ctx context.Context, rows []RawRow) error
	ReplaceRawReviews(ctx context.Context, rows []RawRow) error
	LoadRawPlaces(ctx context.Context) ([]RawRow, error)
	LoadRawReviews(ctx context.Context) ([]RawRow, error)

	// Clean layer
	ReplaceCleanPlaces(ctx context.Context, rows []CleanPlace) error
	ReplaceCleanReviews(ctx context.Context, rows []CleanReview) error

	// Read paths (API)
	GetPlace(ctx context.Context, id string) (CleanPlace, error)
	ListPlaces(ctx context.Context, q PlacesQuery) ([]CleanPlace, error)
	ListReviews(ctx context.Context, placeID string, limit int) ([]CleanReview, error)
}

// SearchClient is the ingestion boundary: a third-party local-search API.
type SearchClient interface {
	// SearchPlaces pages through listing results for one geographic center.
	SearchPlaces(ctx context.Context, query, center string, maxPages int) ([]RawRow, error)
	// PlaceReviews fetches up to limit reviews for one place by data_id.
	PlaceReviews(ctx context.Context, dataID string, limit int) ([]RawRow, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	// DelPrefix evicts every key under the prefix. Clean runs rewrite
	// whole tables, so eviction is by namespace, not by enumerated key.
	DelPrefix(ctx context.Context, prefix string) error
}

type PlacesQuery struct {
	Cuisine  *string
	MinScore *int
	Limit    int
}
