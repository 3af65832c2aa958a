package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resto_scout/internal/domain"
)

const defaultListLimit = 50

// Cache key namespaces. Clean runs evict by prefix, so every key built
// here must live under one of these.
const (
	placeKeyPrefix   = "place:"
	placesKeyPrefix  = "places:"
	reviewsKeyPrefix = "reviews:"
)

func placeKey(id string) string { return placeKeyPrefix + id }

func reviewsKey(id string, limit int) string {
	return fmt.Sprintf("%s%s:%d", reviewsKeyPrefix, id, limit)
}

func placesListKey(q domain.PlacesQuery) string {
	cuisine, score := "", ""
	if q.Cuisine != nil {
		cuisine = *q.Cuisine
	}
	if q.MinScore != nil {
		score = fmt.Sprintf("%d", *q.MinScore)
	}
	return fmt.Sprintf("%s%s:%s:%d", placesKeyPrefix, cuisine, score, q.Limit)
}

type QueryService struct {
	store    domain.TableStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(store domain.TableStore, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: store, cache: cache, cacheTTL: ttl}
}

func (s *QueryService) GetPlace(ctx context.Context, id string) (domain.CleanPlace, error) {
	key := placeKey(id)
	var p domain.CleanPlace
	if ok, _ := s.cache.Get(ctx, key, &p); ok {
		return p, nil
	}
	p, err := s.store.GetPlace(ctx, id)
	if err != nil {
		return domain.CleanPlace{}, err
	}
	_ = s.cache.Set(ctx, key, p, int(s.cacheTTL.Seconds()))
	return p, nil
}

func (s *QueryService) ListPlaces(ctx context.Context, q domain.PlacesQuery) ([]domain.CleanPlace, error) {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	key := placesListKey(q)
	var out []domain.CleanPlace
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	out, err := s.store.ListPlaces(ctx, q)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *QueryService) ListReviews(ctx context.Context, id string, limit int) ([]domain.CleanReview, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	key := reviewsKey(id, limit)
	var out []domain.CleanReview
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.store.ListReviews(ctx, id, limit)
	if err != nil {
		return nil, err
	}

	// copy before caching so callers mutating the result don't poison the
	// cached value
	cp := make([]domain.CleanReview, len(rs))
	copy(cp, rs)

	// optional size guard
	if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	}
	return cp, nil
}
