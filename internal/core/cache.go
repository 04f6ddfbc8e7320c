// Package core holds the dashboard's list, mutation, and caching logic behind port interfaces.
package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

// CacheRepository defines the interface for caching operations.
// The core defines it and the data layer provides the Redis implementation.
type CacheRepository interface {
	// Set stores a value with the given TTL. A TTL of 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns nil when the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete returns true if the key was deleted.
	Delete(ctx context.Context, key string) (bool, error)

	Exists(ctx context.Context, key string) (bool, error)

	// SetTTL updates the TTL of an existing key and reports whether it existed.
	SetTTL(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// SetIfNotExists atomically sets a key only if it is absent.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Health checks the cache connection.
	Health(ctx context.Context) error
}

// DefaultPageCacheTTL bounds how stale a cached list page may be.
const DefaultPageCacheTTL = 30 * time.Second

const defaultPageCachePrefix = "darah:page"

// PageCacheOptions configures a PageCache.
type PageCacheOptions struct {
	Cache  CacheRepository
	TTL    time.Duration
	Prefix string
	Logger *slog.Logger
}

// PageCache stores normalized list pages keyed by resource and query.
//
// Each resource has a generation token; page keys embed it, so invalidating a resource is a
// single write that orphans every cached page for it (orphans expire by TTL).
type PageCache struct {
	cache  CacheRepository
	ttl    time.Duration
	prefix string
	logger *slog.Logger
	group  singleflight.Group
}

// NewPageCache creates a PageCache. A nil Cache yields a cache that always misses.
func NewPageCache(opts PageCacheOptions) *PageCache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultPageCacheTTL
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPageCachePrefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PageCache{
		cache:  opts.Cache,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.With("component", "page_cache"),
	}
}

// Invalidate implements CacheInvalidator by rotating the resource generation.
func (p *PageCache) Invalidate(ctx context.Context, resource string) error {
	if p == nil || p.cache == nil {
		return nil
	}
	return p.cache.Set(ctx, p.generationKey(resource), []byte(uuid.NewString()), 0)
}

// Health reports the health of the backing cache.
func (p *PageCache) Health(ctx context.Context) error {
	if p == nil || p.cache == nil {
		return errors.New("page cache is not configured")
	}
	return p.cache.Health(ctx)
}

func (p *PageCache) generationKey(resource string) string {
	return p.prefix + ":" + resource + ":gen"
}

func (p *PageCache) pageKey(resource, gen string, q model.QueryState) string {
	sum := sha256.Sum256([]byte(q.CacheKey()))
	return p.prefix + ":" + resource + ":" + gen + ":" + hex.EncodeToString(sum[:])
}

// generation returns the current generation token, creating one if the resource has none.
func (p *PageCache) generation(ctx context.Context, resource string) (string, error) {
	key := p.generationKey(resource)
	val, err := p.cache.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if len(val) > 0 {
		return string(val), nil
	}
	fresh := uuid.NewString()
	ok, err := p.cache.SetIfNotExists(ctx, key, []byte(fresh), 0)
	if err != nil {
		return "", err
	}
	if ok {
		return fresh, nil
	}
	// Lost the race to another writer; use theirs.
	val, err = p.cache.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func (p *PageCache) lookup(ctx context.Context, key string, dst any) bool {
	raw, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.WarnContext(ctx, "page cache read failed", "key", key, "error", err)
		return false
	}
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		p.logger.WarnContext(ctx, "page cache entry unreadable", "key", key, "error", err)
		return false
	}
	return true
}

func (p *PageCache) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		p.logger.WarnContext(ctx, "page cache encode failed", "key", key, "error", err)
		return
	}
	if err := p.cache.Set(ctx, key, raw, p.ttl); err != nil {
		p.logger.WarnContext(ctx, "page cache write failed", "key", key, "error", err)
	}
}

// CachedFetcher decorates next with the page cache. Cache failures degrade to a direct
// upstream fetch; concurrent misses for the same key share one upstream call.
func CachedFetcher[T any](p *PageCache, resource string, next PageFetcher[T]) PageFetcher[T] {
	if p == nil || p.cache == nil {
		return next
	}
	return PageFetcherFunc[T](func(ctx context.Context, q model.QueryState) (model.Page[T], error) {
		gen, err := p.generation(ctx, resource)
		if err != nil {
			p.logger.WarnContext(ctx, "page cache generation unavailable", "resource", resource, "error", err)
			return next.FetchPage(ctx, q)
		}
		key := p.pageKey(resource, gen, q)

		var cached model.Page[T]
		if p.lookup(ctx, key, &cached) {
			return cached, nil
		}

		v, err, _ := p.group.Do(key, func() (any, error) {
			page, ferr := next.FetchPage(ctx, q)
			if ferr != nil {
				return nil, ferr
			}
			p.store(ctx, key, page)
			return page, nil
		})
		if err != nil {
			return model.Page[T]{}, err
		}
		page, ok := v.(model.Page[T])
		if !ok {
			return next.FetchPage(ctx, q)
		}
		return page, nil
	})
}

// RefreshPage fetches q from next and overwrites the cached entry regardless of its age.
func RefreshPage[T any](ctx context.Context, p *PageCache, resource string, next PageFetcher[T], q model.QueryState) (model.Page[T], error) {
	page, err := next.FetchPage(ctx, q)
	if err != nil {
		return model.Page[T]{}, err
	}
	if p == nil || p.cache == nil {
		return page, nil
	}
	gen, err := p.generation(ctx, resource)
	if err != nil {
		return page, err
	}
	p.store(ctx, p.pageKey(resource, gen, q), page)
	return page, nil
}
