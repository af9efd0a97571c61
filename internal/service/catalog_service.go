package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/cache"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const listingFlightKey = "products"

type ProductLister interface {
	ListInStockProducts(ctx context.Context) ([]domain.Product, error)
}

// CatalogService serves the in-stock listing from the product cache.
type CatalogService struct {
	store   ProductLister
	cache   cache.ProductCache
	sfg     singleflight.Group // Prevents cache stampede
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCatalogService(store ProductLister, c cache.ProductCache, m *metrics.Metrics, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		store:   store,
		cache:   c,
		metrics: m,
		logger:  logger,
	}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.cache.Get(ctx)
	if err == nil {
		s.metrics.ObserveCacheLookup(metrics.CacheResultHit)
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("product cache get failed", zap.Error(err))
	}
	s.metrics.ObserveCacheLookup(metrics.CacheResultMiss)

	v, err, _ := s.sfg.Do(listingFlightKey, func() (interface{}, error) {
		generation, errGen := s.cache.Generation(ctx)
		if errGen != nil {
			s.logger.Warn("product cache generation read failed", zap.Error(errGen))
		}

		products, err := s.store.ListInStockProducts(ctx)
		if err != nil {
			s.metrics.ObserveCacheLookup(metrics.CacheResultLoadError)
			return nil, fmt.Errorf("%w: list products: %w", ErrStorageFault, err)
		}
		if errGen != nil {
			return products, nil
		}

		errSet := s.cache.Set(ctx, generation, products)
		switch {
		case errors.Is(errSet, cache.ErrStaleGeneration):
			s.logger.Debug("listing invalidated during load, not cached")
		case errSet != nil:
			s.logger.Warn("product cache set failed", zap.Error(errSet))
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

// Invalidate drops the cached listing so the next read reloads it. Callers arriving
// afterwards do not join a load that started before the invalidation.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	err := s.cache.Invalidate(ctx)
	s.sfg.Forget(listingFlightKey)
	return err
}
