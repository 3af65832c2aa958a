package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"resto_scout/internal/domain"
)

// IngestionService runs the fetch stage: listing results for every
// configured center, merged and deduplicated, then per-place reviews.
// Everything is gathered in memory and written once per table, keeping
// the full-replace single-writer discipline.
type IngestionService struct {
	search domain.SearchClient
	store  domain.TableStore
}

func NewIngestionService(s domain.SearchClient, store domain.TableStore) *IngestionService {
	return &IngestionService{search: s, store: store}
}

type IngestOptions struct {
	Query              string
	Centers            []string
	MaxPages           int
	MaxPlaces          int // cap on places whose reviews are fetched
	MaxReviewsPerPlace int
	Workers            int
}

func (s *IngestionService) Run(ctx context.Context, opts IngestOptions) error {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	// 1) Listing results, one search per center.
	var merged []domain.RawRow
	for _, center := range opts.Centers {
		rows, err := s.search.SearchPlaces(ctx, opts.Query, center, opts.MaxPages)
		if err != nil {
			return fmt.Errorf("search center %s: %w", center, err)
		}
		log.Info().Str("center", center).Int("rows", len(rows)).Msg("places fetched")
		merged = append(merged, rows...)
	}
	places := dedupePlaces(merged)

	if err := s.store.ReplaceRawPlaces(ctx, places); err != nil {
		return fmt.Errorf("write raw places: %w", err)
	}
	log.Info().Int("rows", len(places)).Msg("raw_restaurants replaced")

	// 2) Reviews for the first MaxPlaces places, bounded fan-out. A failed
	// place costs its reviews, not the run.
	subset := places
	if opts.MaxPlaces > 0 && len(subset) > opts.MaxPlaces {
		subset = subset[:opts.MaxPlaces]
	}

	sem := semaphore.NewWeighted(int64(opts.Workers))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		reviews []domain.RawRow
	)
	for _, place := range subset {
		dataID, _ := place["data_id"].(string)
		if dataID == "" {
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		wg.Add(1)
		go func(place domain.RawRow, dataID string) {
			defer wg.Done()
			defer sem.Release(1)

			fetched, err := s.search.PlaceReviews(ctx, dataID, opts.MaxReviewsPerPlace)
			if err != nil {
				log.Warn().Str("data_id", dataID).Err(err).Msg("review fetch failed")
				return
			}
			rows := flattenReviews(place, dataID, fetched)
			mu.Lock()
			reviews = append(reviews, rows...)
			mu.Unlock()
		}(place, dataID)
	}
	wg.Wait()

	if err := s.store.ReplaceRawReviews(ctx, reviews); err != nil {
		return fmt.Errorf("write raw reviews: %w", err)
	}
	log.Info().Int("rows", len(reviews)).Msg("raw_reviews replaced")
	return nil
}

// dedupePlaces keeps the first occurrence per data_id; rows without one
// are kept as-is (they cannot collide).
func dedupePlaces(rows []domain.RawRow) []domain.RawRow {
	seen := make(map[string]struct{}, len(rows))
	out := make([]domain.RawRow, 0, len(rows))
	for _, row := range rows {
		id, _ := row["data_id"].(string)
		if id != "" {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		out = append(out, row)
	}
	return out
}

// flattenReviews builds one raw review row per fetched review, carrying
// denormalized business-level fields alongside the reviewer-level ones.
func flattenReviews(place domain.RawRow, dataID string, fetched []domain.RawRow) []domain.RawRow {
	out := make([]domain.RawRow, 0, len(fetched))
	for _, r := range fetched {
		text := r["snippet"]
		if text == nil {
			text = r["text"]
		}
		out = append(out, domain.RawRow{
			// business-level
			"place_data_id":       dataID,
			"place_title":         place["title"],
			"place_rating":        place["rating"],
			"place_reviews_count": place["reviews"],
			"place_price":         place["price"],
			"place_type":          place["type"],

			// reviewer-level
			"review_user":   r["user"],
			"review_rating": r["rating"],
			"review_text":   text,
			"review_date":   r["date"],
			"review_likes":  r["likes"],
		})
	}
	return out
}
