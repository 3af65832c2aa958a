package domain

// RawRow is one loosely-typed record from the ingestion boundary.
// Keys are column names; values are whatever the search API returned
// (strings, numbers, nested maps, or stringified dict literals).
type RawRow = map[string]any

// CleanPlace is one analysis-ready restaurant row. Pointer fields are
// columns that may legitimately be absent for a given place.
//
// PlaceID and DataID are distinct provider namespaces: PlaceID keys the
// place itself, DataID keys its review feed. Reviews reference DataID,
// so both must survive normalization for the review join to work.
type CleanPlace struct {
	PlaceID      string
	DataID       string
	PlaceTitle   string
	Rating       *float64
	ReviewsCount int64
	Cuisine      string
	PriceLevel   *float64
	Address      *string
	Latitude     float64
	Longitude    float64

	DineIn          bool
	Takeout         bool
	Delivery        bool
	HasReserveTable bool
	HasOnlineOrder  bool

	// ConvenienceScore is the count of true flags above, 0..5.
	ConvenienceScore int
}
