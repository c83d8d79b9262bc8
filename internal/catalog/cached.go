package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-printshop/internal/obs"
)

// CachedSource is a read-through cache in front of another Source. Cache
// failures are logged and the request falls through to the backing source.
type CachedSource struct {
	next   Source
	cache  *Cache
	logger zerolog.Logger
}

// NewCachedSource wraps next with cache.
func NewCachedSource(next Source, cache *Cache, logger zerolog.Logger) (*CachedSource, error) {
	if next == nil {
		return nil, errors.New("catalog: backing source is required")
	}
	return &CachedSource{next: next, cache: cache, logger: logger}, nil
}

// Product implements Source.
func (s *CachedSource) Product(ctx context.Context, id uuid.UUID) (Product, error) {
	key := productCacheKey(id)
	start := time.Now()

	var cached Product
	ok, err := s.cache.GetJSON(ctx, key, &cached)
	switch {
	case err != nil:
		obs.ObserveCatalogLookup("cache", "error", obs.DurationMillis(time.Since(start)))
		s.logger.Warn().Err(err).Str("product_id", id.String()).Msg("product cache read failed")
	case ok:
		obs.ObserveCatalogLookup("cache", "hit", obs.DurationMillis(time.Since(start)))
		return cached, nil
	default:
		obs.ObserveCatalogLookup("cache", "miss", obs.DurationMillis(time.Since(start)))
	}

	p, err := s.next.Product(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if err := s.cache.SetJSON(ctx, key, p); err != nil {
		s.logger.Warn().Err(err).Str("product_id", id.String()).Msg("product cache write failed")
	}
	return p, nil
}

// Invalidate evicts a product so the next lookup reads through.
func (s *CachedSource) Invalidate(ctx context.Context, id uuid.UUID) error {
	return s.cache.Delete(ctx, productCacheKey(id))
}
