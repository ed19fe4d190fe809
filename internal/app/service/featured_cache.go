package service

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const featuredCacheKey = "featured"

// ProductCache is a JSON key/value cache. pkg/redis.Cache satisfies it.
type ProductCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// FeaturedCache fronts the featured product query. Concurrent misses share a
// single database load. A nil *FeaturedCache loads straight through.
//
// Every Invalidate bumps the generation; a load that overlaps an invalidation
// is returned to its callers but never left in the cache.
type FeaturedCache struct {
	cache      ProductCache
	ttl        time.Duration
	group      singleflight.Group
	generation atomic.Uint64
}

func NewFeaturedCache(cache ProductCache, ttl time.Duration) *FeaturedCache {
	return &FeaturedCache{cache: cache, ttl: ttl}
}

func (f *FeaturedCache) Load(ctx context.Context, load func(context.Context) ([]model.Product, error)) ([]model.Product, error) {
	if f == nil {
		return load(ctx)
	}

	if f.cache != nil {
		var cached []model.Product
		hit, err := f.cache.GetJSON(ctx, featuredCacheKey, &cached)
		if err != nil {
			logger.Warn("Featured cache read failed, falling back to database", map[string]interface{}{
				"error": err.Error(),
			})
		} else if hit {
			return cached, nil
		}
	}

	gen := f.generation.Load()
	v, err, shared := f.group.Do(featuredCacheKey+":"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		// outlives any single caller
		loadCtx := context.WithoutCancel(ctx)
		products, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if f.cache != nil {
			f.store(loadCtx, gen, products)
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		logger.Debug("Featured products load shared between callers")
	}
	return v.([]model.Product), nil
}

func (f *FeaturedCache) store(ctx context.Context, gen uint64, products []model.Product) {
	if f.generation.Load() != gen {
		logger.Debug("Featured products changed during load, not caching")
		return
	}
	if err := f.cache.SetJSON(ctx, featuredCacheKey, products, f.ttl); err != nil {
		logger.Warn("Failed to store featured products in cache", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	// an Invalidate between the check and the write may have deleted before we stored
	if f.generation.Load() != gen {
		f.delete(ctx)
	}
}

// Invalidate drops the cached list. Failures are logged only.
func (f *FeaturedCache) Invalidate(ctx context.Context) {
	if f == nil {
		return
	}
	f.generation.Add(1)
	if f.cache == nil {
		return
	}
	f.delete(ctx)
}

func (f *FeaturedCache) delete(ctx context.Context) {
	if err := f.cache.Delete(ctx, featuredCacheKey); err != nil {
		logger.Warn("Failed to invalidate featured products cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
