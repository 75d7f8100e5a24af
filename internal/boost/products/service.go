// Package products serves the seller's boostable listings with a
// read-through cache in front of the backend. The backend owns
// eligibility (not boosted, not sold); this service only avoids
// re-fetching the list on every selection screen render.
package products

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jcmexdev/listing-boost/internal/backend"
	"github.com/jcmexdev/listing-boost/internal/pkg/cache"
)

// Lister is the backend operation this service fronts.
type Lister interface {
	ListBoostableProducts(ctx context.Context) ([]backend.Product, error)
}

// Service caches boostable listings. Cache failures are never fatal: a
// broken Redis degrades to hitting the backend directly.
type Service struct {
	lister Lister
	cache  cache.Cache
	ttl    time.Duration
}

func NewService(lister Lister, c cache.Cache, ttl time.Duration) *Service {
	return &Service{lister: lister, cache: c, ttl: ttl}
}

func (s *Service) cacheKey() string {
	return s.cache.GenerateKey("boostable", "all")
}

// ListBoostable returns the eligible listings, from cache when fresh.
func (s *Service) ListBoostable(ctx context.Context) ([]backend.Product, error) {
	if cached, err := s.cache.Get(ctx, s.cacheKey()); err != nil {
		slog.WarnContext(ctx, "product cache read failed", "error", err)
	} else if cached != "" {
		var products []backend.Product
		if err := json.Unmarshal([]byte(cached), &products); err == nil {
			return products, nil
		}
		// Corrupt cache entry: drop it and refetch.
		_ = s.cache.Del(ctx, s.cacheKey())
	}

	products, err := s.lister.ListBoostableProducts(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(products); err == nil {
		if err := s.cache.Set(ctx, s.cacheKey(), string(encoded), s.ttl); err != nil {
			slog.WarnContext(ctx, "product cache write failed", "error", err)
		}
	}
	return products, nil
}

// Invalidate drops the cached listing. Called after a paid reconciliation,
// since freshly boosted products are no longer eligible.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Del(ctx, s.cacheKey()); err != nil {
		slog.WarnContext(ctx, "product cache invalidation failed", "error", err)
	}
}
