package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"resto_scout/internal/domain"
	"resto_scout/internal/normalize"
)

// CleaningService runs the normalization stage: read both raw tables,
// derive the clean tables, replace-write them. A missing raw table is
// fatal — downstream must not mistake "never ingested" for "zero rows".
type CleaningService struct {
	store domain.TableStore
	norm  *normalize.Normalizer
	cache domain.Cache
}

func NewCleaningService(store domain.TableStore, norm *normalize.Normalizer, cache domain.Cache) *CleaningService {
	return &CleaningService{store: store, norm: norm, cache: cache}
}

type CleanStats struct {
	RawPlaces    int
	CleanPlaces  int
	RawReviews   int
	CleanReviews int
}

// Dropped is the number of place rows excluded for unresolvable coordinates.
func (s CleanStats) Dropped() int { return s.RawPlaces - s.CleanPlaces }

func (s *CleaningService) Run(ctx context.Context) (CleanStats, error) {
	rawPlaces, err := s.store.LoadRawPlaces(ctx)
	if err != nil {
		return CleanStats{}, fmt.Errorf("load raw_restaurants: %w", err)
	}
	rawReviews, err := s.store.LoadRawReviews(ctx)
	if err != nil {
		return CleanStats{}, fmt.Errorf("load raw_reviews: %w", err)
	}

	places, err := s.norm.Places(rawPlaces)
	if err != nil {
		return CleanStats{}, err
	}
	reviews := s.norm.Reviews(rawReviews)

	if err := s.store.ReplaceCleanPlaces(ctx, places); err != nil {
		return CleanStats{}, fmt.Errorf("write clean_restaurants: %w", err)
	}
	if err := s.store.ReplaceCleanReviews(ctx, reviews); err != nil {
		return CleanStats{}, fmt.Errorf("write clean_reviews: %w", err)
	}

	// Every row may have changed, including rows that no longer exist, so
	// evict whole key namespaces rather than enumerating ids and query
	// variants.
	if s.cache != nil {
		for _, prefix := range []string{placeKeyPrefix, placesKeyPrefix, reviewsKeyPrefix} {
			if err := s.cache.DelPrefix(ctx, prefix); err != nil {
				log.Warn().Err(err).Str("prefix", prefix).Msg("cache eviction failed")
			}
		}
	}

	stats := CleanStats{
		RawPlaces:    len(rawPlaces),
		CleanPlaces:  len(places),
		RawReviews:   len(rawReviews),
		CleanReviews: len(reviews),
	}
	log.Info().
		Int("raw_places", stats.RawPlaces).
		Int("clean_places", stats.CleanPlaces).
		Int("dropped", stats.Dropped()).
		Int("clean_reviews", stats.CleanReviews).
		Msg("clean tables replaced")
	return stats, nil
}
