package app_test

import (
	"context"
	"testing"

	"resto_scout/internal/app"
	"resto_scout/internal/domain"
)

type fakeSearch struct {
	byCenter map[string][]domain.RawRow
	reviews  map[string][]domain.RawRow
}

func (f *fakeSearch) SearchPlaces(ctx context.Context, query, center string, maxPages int) ([]domain.RawRow, error) {
	return f.byCenter[center], nil
}

func (f *fakeSearch) PlaceReviews(ctx context.Context, dataID string, limit int) ([]domain.RawRow, error) {
	rs := f.reviews[dataID]
	if limit > 0 && len(rs) > limit {
		rs = rs[:limit]
	}
	return rs, nil
}

func TestIngestRun_MergesAndDeduplicates(t *testing.T) {
	search := &fakeSearch{
		byCenter: map[string][]domain.RawRow{
			"@c1": {
				{"data_id": "d1", "title": "Tony's", "rating": 4.6, "reviews": 312.0, "price": "$$", "type": "Italian"},
				{"data_id": "d2", "title": "Siam House", "type": "Thai"},
			},
			"@c2": {
				{"data_id": "d1", "title": "Tony's (dup)"}, // overlaps c1
				{"data_id": "d3", "title": "Blue Door Cafe", "type": "Cafe"},
			},
		},
		reviews: map[string][]domain.RawRow{
			"d1": {
				{"user": map[string]any{"name": "Ana"}, "rating": 5.0, "snippet": "Great pasta.", "date": "2 weeks ago", "likes": 3.0},
				{"user": map[string]any{"name": "Bob"}, "rating": 4.0, "text": "Solid.", "date": "a month ago"},
			},
		},
	}
	store := &fakeStore{}
	svc := app.NewIngestionService(search, store)

	err := svc.Run(context.Background(), app.IngestOptions{
		Query:              "restaurants",
		Centers:            []string{"@c1", "@c2"},
		MaxPages:           2,
		MaxPlaces:          10,
		MaxReviewsPerPlace: 10,
		Workers:            2,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.gotRawPlaces) != 3 {
		t.Fatalf("want 3 deduplicated places, got %d", len(store.gotRawPlaces))
	}
	// first occurrence wins
	if store.gotRawPlaces[0]["title"] != "Tony's" {
		t.Fatalf("dedup kept the wrong row: %+v", store.gotRawPlaces[0])
	}

	if len(store.gotRawReviews) != 2 {
		t.Fatalf("want 2 flattened review rows, got %d", len(store.gotRawReviews))
	}
	for _, row := range store.gotRawReviews {
		if row["place_data_id"] != "d1" || row["place_title"] != "Tony's" {
			t.Fatalf("missing denormalized place fields: %+v", row)
		}
	}
	// snippet preferred, text as fallback
	texts := map[any]bool{}
	for _, row := range store.gotRawReviews {
		texts[row["review_text"]] = true
	}
	if !texts["Great pasta."] || !texts["Solid."] {
		t.Fatalf("review_text flattening wrong: %v", texts)
	}
}

func TestIngestRun_CapsReviewPlaces(t *testing.T) {
	search := &fakeSearch{
		byCenter: map[string][]domain.RawRow{
			"@c1": {
				{"data_id": "d1", "title": "A"},
				{"data_id": "d2", "title": "B"},
			},
		},
		reviews: map[string][]domain.RawRow{
			"d1": {{"rating": 5.0}},
			"d2": {{"rating": 1.0}},
		},
	}
	store := &fakeStore{}
	svc := app.NewIngestionService(search, store)

	err := svc.Run(context.Background(), app.IngestOptions{
		Query:     "restaurants",
		Centers:   []string{"@c1"},
		MaxPages:  1,
		MaxPlaces: 1, // only the first place's reviews
		Workers:   1,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.gotRawReviews) != 1 || store.gotRawReviews[0]["place_data_id"] != "d1" {
		t.Fatalf("review cap not honored: %+v", store.gotRawReviews)
	}
}
