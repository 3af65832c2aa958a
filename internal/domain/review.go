package domain

import "time"

// CleanReview is one normalized review row. Every field except the two
// derived ones mirrors an optional raw column, so everything is nullable.
//
// PlaceDataID is the provider's review-feed identifier, not the place_id
// namespace; resolving a review's place goes through CleanPlace.DataID.
type CleanReview struct {
	PlaceDataID  *string
	PlaceTitle   *string
	ReviewRating *float64
	ReviewText   *string

	// Derived at normalization time.
	ReviewerName   *string
	ReviewDatetime *time.Time
}
