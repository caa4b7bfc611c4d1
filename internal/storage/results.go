package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/eslookup-mcp/internal/cache"
	"github.com/dshills/eslookup-mcp/pkg/types"
)

// ResultCache adapts a Storage to cache.Cache
type ResultCache struct {
	store Storage
	ttl   time.Duration
	now   func() time.Time
}

var _ cache.Cache = (*ResultCache)(nil)

// NewResultCache stores lookup results in store for ttl
func NewResultCache(store Storage, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &ResultCache{store: store, ttl: ttl, now: time.Now}
}

// OpenResultCache opens (or creates) the database at path
func OpenResultCache(path string, ttl time.Duration) (*ResultCache, error) {
	store, err := NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}
	return NewResultCache(store, ttl), nil
}

// Get implements cache.Cache
func (c *ResultCache) Get(ctx context.Context, key string) (*types.LookupResult, bool, error) {
	entry, err := c.store.GetResult(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	result, err := cache.Decode(entry.Data)
	if err != nil {
		_ = c.store.DeleteResult(ctx, key)
		return nil, false, err
	}
	return result, true, nil
}

// Set implements cache.Cache
func (c *ResultCache) Set(ctx context.Context, key string, result types.LookupResult) error {
	data, err := cache.Encode(result)
	if err != nil {
		return err
	}

	now := c.now()
	return c.store.PutResult(ctx, &CachedResult{
		Key:         key,
		EntityValue: result.Entity.Value,
		Data:        data,
		IsMiss:      result.IsMiss(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(c.ttl),
	})
}

// Prune removes expired entries
func (c *ResultCache) Prune(ctx context.Context) (int64, error) {
	return c.store.DeleteExpired(ctx, c.now())
}

// Stats returns storage statistics
func (c *ResultCache) Stats(ctx context.Context) (*CacheStats, error) {
	return c.store.GetStats(ctx)
}

// Close implements cache.Cache
func (c *ResultCache) Close() error {
	return c.store.Close()
}
