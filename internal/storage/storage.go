package storage

import (
	"context"
	"time"
)

// Storage persists encoded lookup results between process runs
type Storage interface {
	// GetResult returns the live entry for key, or ErrNotFound
	GetResult(ctx context.Context, key string) (*CachedResult, error)
	// PutResult inserts or replaces an entry
	PutResult(ctx context.Context, result *CachedResult) error
	// DeleteResult removes one entry
	DeleteResult(ctx context.Context, key string) error
	// DeleteExpired removes entries that expired before now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// GetStats summarises the cache contents
	GetStats(ctx context.Context) (*CacheStats, error)

	Close() error
}

// CachedResult is one stored lookup result
type CachedResult struct {
	Key         string
	EntityValue string
	Data        []byte // Encoded types.LookupResult
	IsMiss      bool
	HitCount    int64
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// CacheStats describes the stored results
type CacheStats struct {
	Entries       int64  `json:"entries"`
	Misses        int64  `json:"misses"`
	Expired       int64  `json:"expired"`
	TotalHits     int64  `json:"total_hits"`
	SchemaVersion string `json:"schema_version"`
	BuildMode     string `json:"build_mode"`
}
