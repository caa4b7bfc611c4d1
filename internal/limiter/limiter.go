package limiter

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/dshills/eslookup-mcp/pkg/types"
)

const (
	// DefaultQueueDepth is the number of jobs allowed to wait for a slot
	DefaultQueueDepth = 100

	// DefaultMaxConcurrent is used when Config.MaxConcurrent is not positive
	DefaultMaxConcurrent = 10
)

// Config configures a Limiter
type Config struct {
	MaxConcurrent int           // Jobs running at once
	MinTime       time.Duration // Minimum spacing between job starts
	QueueDepth    int           // Jobs allowed to wait; further submissions are dropped
}

// Stats is a snapshot of limiter accounting
type Stats struct {
	Running   int64
	Queued    int64
	Dropped   int64
	Completed int64
}

// Limiter bounds concurrency, paces job starts and rejects submissions
// once its wait queue is full.
type Limiter struct {
	cfg  Config
	sem  *semaphore.Weighted
	pace *rate.Limiter

	queued    atomic.Int64
	running   atomic.Int64
	dropped   atomic.Int64
	completed atomic.Int64
}

// New creates a Limiter, applying defaults for unset fields
func New(cfg Config) *Limiter {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultQueueDepth
	}

	limit := rate.Inf
	if cfg.MinTime > 0 {
		limit = rate.Every(cfg.MinTime)
	}

	return &Limiter{
		cfg:  cfg,
		sem:  semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		pace: rate.NewLimiter(limit, 1),
	}
}

// Config returns the effective configuration
func (l *Limiter) Config() Config {
	return l.cfg
}

// Submit runs fn once a concurrency slot is free and the minimum spacing
// since the previous start has elapsed. If QueueDepth jobs are already
// waiting, Submit returns types.ErrCapacityExceeded without blocking.
func (l *Limiter) Submit(ctx context.Context, fn func(ctx context.Context) error) error {
	if l.queued.Add(1) > int64(l.cfg.QueueDepth) {
		l.queued.Add(-1)
		l.dropped.Add(1)
		return types.ErrCapacityExceeded
	}

	if err := l.sem.Acquire(ctx, 1); err != nil {
		l.queued.Add(-1)
		return err
	}
	defer l.sem.Release(1)

	if err := l.pace.Wait(ctx); err != nil {
		l.queued.Add(-1)
		return err
	}

	l.queued.Add(-1)
	l.running.Add(1)
	defer func() {
		l.running.Add(-1)
		l.completed.Add(1)
	}()

	return fn(ctx)
}

// Stats returns current counters
func (l *Limiter) Stats() Stats {
	return Stats{
		Running:   l.running.Load(),
		Queued:    l.queued.Load(),
		Dropped:   l.dropped.Load(),
		Completed: l.completed.Load(),
	}
}
