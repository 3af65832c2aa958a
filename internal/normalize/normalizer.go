package normalize

import (
	"fmt"
	"time"

	"resto_scout/internal/domain"
)

// Normalizer turns the raw place/review tables into their clean
// counterparts. Whole-table batch recompute, single-threaded; the only
// injected dependency is the clock anchoring relative review dates.
type Normalizer struct {
	now func() time.Time
}

func New(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Places derives the clean place table. Rows without a resolvable
// coordinate or without a place_id value are dropped — there is no sane
// default for a missing location, and an unkeyed row cannot live in a
// table keyed by place_id. Every other missing input degrades to an
// absent or zero column. A raw table that lacks the place_id column
// entirely cannot be keyed and is rejected.
func (n *Normalizer) Places(raw []domain.RawRow) ([]domain.CleanPlace, error) {
	if len(raw) > 0 && !hasColumn(raw, "place_id") {
		return nil, fmt.Errorf("raw places: place_id column missing")
	}

	hasPrice := hasColumn(raw, "price")
	hasPriceLevel := hasColumn(raw, "price_level")

	out := make([]domain.CleanPlace, 0, len(raw))
	for _, row := range raw {
		id := asString(row["place_id"])
		if id == "" {
			continue
		}
		coords, ok := ParseDict(row["gps_coordinates"])
		if !ok {
			continue
		}
		lat, latOK := asFloat(coords["latitude"])
		lon, lonOK := asFloat(coords["longitude"])
		if !latOK || !lonOK {
			continue
		}

		cp := domain.CleanPlace{
			PlaceID:   id,
			DataID:    asString(row["data_id"]),
			Latitude:  lat,
			Longitude: lon,
			Cuisine:   Cuisine(row["type"]),
		}
		cp.PlaceTitle = asString(row["title"])
		if addr := asString(row["address"]); addr != "" {
			cp.Address = &addr
		}

		if f, ok := asFloat(row["rating"]); ok {
			cp.Rating = &f
		}
		if f, ok := asFloat(row["reviews"]); ok {
			cp.ReviewsCount = int64(f)
		}

		switch {
		case hasPrice:
			if lvl, ok := PriceLevel(row["price"]); ok {
				cp.PriceLevel = &lvl
			}
		case hasPriceLevel:
			if lvl, ok := asFloat(row["price_level"]); ok {
				cp.PriceLevel = &lvl
			}
		}

		dine, take, del := ServiceFeatures(row["service_options"])
		cp.DineIn = orFalse(dine)
		cp.Takeout = orFalse(take)
		cp.Delivery = orFalse(del)
		cp.HasReserveTable = LinkFlag(row["reserve_a_table"])
		cp.HasOnlineOrder = LinkFlag(row["order_online"])

		for _, f := range []bool{cp.DineIn, cp.Takeout, cp.Delivery, cp.HasReserveTable, cp.HasOnlineOrder} {
			if f {
				cp.ConvenienceScore++
			}
		}

		out = append(out, cp)
	}
	return out, nil
}

// Reviews derives the clean review table. No rows are dropped; every
// source column is optional, so each output field is derived only when
// its column exists in the input.
func (n *Normalizer) Reviews(raw []domain.RawRow) []domain.CleanReview {
	hasRef := hasColumn(raw, "place_data_id")
	hasTitle := hasColumn(raw, "place_title")
	hasRating := hasColumn(raw, "review_rating")
	hasText := hasColumn(raw, "review_text")
	hasUser := hasColumn(raw, "review_user")
	hasDate := hasColumn(raw, "review_date")

	now := n.now()

	out := make([]domain.CleanReview, 0, len(raw))
	for _, row := range raw {
		var cr domain.CleanReview
		if hasRef {
			if s := asString(row["place_data_id"]); s != "" {
				cr.PlaceDataID = &s
			}
		}
		if hasTitle {
			if s := asString(row["place_title"]); s != "" {
				cr.PlaceTitle = &s
			}
		}
		if hasRating {
			if f, ok := asFloat(row["review_rating"]); ok {
				cr.ReviewRating = &f
			}
		}
		if hasText {
			if s := asString(row["review_text"]); s != "" {
				cr.ReviewText = &s
			}
		}
		if hasUser {
			if u, ok := ParseDict(row["review_user"]); ok {
				if name := asString(u["name"]); name != "" {
					cr.ReviewerName = &name
				}
			}
		}
		if hasDate {
			if s, ok := row["review_date"].(string); ok {
				if ts, ok := ParseRelativeDate(s, now); ok {
					cr.ReviewDatetime = &ts
				}
			}
		}
		out = append(out, cr)
	}
	return out
}

// hasColumn reports whether any row carries the key. Raw tables are
// schema-tolerant, so column presence is a property of the table, not of
// a header.
func hasColumn(rows []domain.RawRow, key string) bool {
	for _, r := range rows {
		if _, ok := r[key]; ok {
			return true
		}
	}
	return false
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func orFalse(p *bool) bool { return p != nil && *p }
