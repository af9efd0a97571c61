package cache

import (
	"context"
	"errors"
	"time"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
)

// FreshnessWindow is how long a populated product listing is served before it is reloaded.
const FreshnessWindow = 5 * time.Minute

// ProductCache holds the in-stock product listing.
//
// Loaders read Generation before querying the store and pass it to Set, so a listing
// loaded before an Invalidate is never stored after it.
type ProductCache interface {
	Get(ctx context.Context) ([]domain.Product, error)
	Generation(ctx context.Context) (uint64, error)
	Set(ctx context.Context, generation uint64, products []domain.Product) error
	Invalidate(ctx context.Context) error
}

var (
	ErrCacheMiss       = errors.New("cache miss")
	ErrStaleGeneration = errors.New("cache invalidated while listing was loading")
)
