package app_test

import (
	"context"
	"strings"

	"resto_scout/internal/domain"
)

// ---- fakes shared by the app tests ----

type fakeStore struct {
	rawPlaces     []domain.RawRow
	rawReviews    []domain.RawRow
	rawPlacesErr  error
	rawReviewsErr error

	gotRawPlaces    []domain.RawRow
	gotRawReviews   []domain.RawRow
	gotCleanPlaces  []domain.CleanPlace
	gotCleanReviews []domain.CleanReview

	place   domain.CleanPlace
	places  []domain.CleanPlace
	reviews []domain.CleanReview
}

func (f *fakeStore) ReplaceRawPlaces(ctx context.Context, rows []domain.RawRow) error {
	f.gotRawPlaces = rows
	return nil
}
func (f *fakeStore) ReplaceRawReviews(ctx context.Context, rows []domain.RawRow) error {
	f.gotRawReviews = rows
	return nil
}
func (f *fakeStore) LoadRawPlaces(ctx context.Context) ([]domain.RawRow, error) {
	return f.rawPlaces, f.rawPlacesErr
}
func (f *fakeStore) LoadRawReviews(ctx context.Context) ([]domain.RawRow, error) {
	return f.rawReviews, f.rawReviewsErr
}
func (f *fakeStore) ReplaceCleanPlaces(ctx context.Context, rows []domain.CleanPlace) error {
	f.gotCleanPlaces = rows
	return nil
}
func (f *fakeStore) ReplaceCleanReviews(ctx context.Context, rows []domain.CleanReview) error {
	f.gotCleanReviews = rows
	return nil
}
func (f *fakeStore) GetPlace(ctx context.Context, id string) (domain.CleanPlace, error) {
	return f.place, nil
}
func (f *fakeStore) ListPlaces(ctx context.Context, q domain.PlacesQuery) ([]domain.CleanPlace, error) {
	return f.places, nil
}
func (f *fakeStore) ListReviews(ctx context.Context, placeID string, limit int) ([]domain.CleanReview, error) {
	return f.reviews, nil
}

type fakeCache struct {
	store      map[string]any
	dels       []string
	prefixDels []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.CleanPlace:
		*d = v.(domain.CleanPlace)
	case *[]domain.CleanPlace:
		*d = v.([]domain.CleanPlace)
	case *[]domain.CleanReview:
		*d = v.([]domain.CleanReview)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	c.prefixDels = append(c.prefixDels, prefix)
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
