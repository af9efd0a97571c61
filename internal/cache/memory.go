package cache

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/clock"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
)

type snapshot struct {
	products    []domain.Product
	populatedAt time.Time
	generation  uint64
}

// MemoryCache keeps one immutable snapshot per process. Readers never block; writers
// replace the snapshot wholesale.
type MemoryCache struct {
	current    atomic.Pointer[snapshot]
	generation atomic.Uint64
	clock      clock.Clock
	ttl        time.Duration
}

func NewMemoryCache(c clock.Clock) *MemoryCache {
	return &MemoryCache{clock: c, ttl: FreshnessWindow}
}

// Get returns a copy of the cached listing.
func (m *MemoryCache) Get(_ context.Context) ([]domain.Product, error) {
	s := m.current.Load()
	if s == nil || s.generation != m.generation.Load() || m.clock.Now().Sub(s.populatedAt) >= m.ttl {
		return nil, ErrCacheMiss
	}
	return slices.Clone(s.products), nil
}

func (m *MemoryCache) Generation(_ context.Context) (uint64, error) {
	return m.generation.Load(), nil
}

func (m *MemoryCache) Set(_ context.Context, generation uint64, products []domain.Product) error {
	if generation != m.generation.Load() {
		return ErrStaleGeneration
	}
	// An Invalidate racing past the check above bumps the generation, so Get still
	// treats this snapshot as a miss.
	m.current.Store(&snapshot{
		products:    slices.Clone(products),
		populatedAt: m.clock.Now(),
		generation:  generation,
	})
	return nil
}

func (m *MemoryCache) Invalidate(_ context.Context) error {
	m.generation.Add(1)
	m.current.Store(nil)
	return nil
}
