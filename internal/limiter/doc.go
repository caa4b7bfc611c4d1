// Package limiter provides the process-wide dispatch budget for backend
// searches.
//
// A Limiter enforces three rules:
//   - at most MaxConcurrent jobs run at the same time
//   - job starts are spaced at least MinTime apart
//   - at most QueueDepth jobs wait for a slot; further submissions fail
//     immediately with types.ErrCapacityExceeded (overflow drop)
//
// # Basic Usage
//
//	l := limiter.New(limiter.Config{
//	    MaxConcurrent: 10,
//	    MinTime:       time.Millisecond,
//	    QueueDepth:    limiter.DefaultQueueDepth,
//	})
//
//	err := l.Submit(ctx, func(ctx context.Context) error {
//	    return lookupGroup(ctx, group)
//	})
//	if errors.Is(err, types.ErrCapacityExceeded) {
//	    // report "search limit reached" for the group
//	}
//
// One Limiter is built from configuration at startup and shared by every
// lookup for the life of the process. Changing its configuration requires a
// restart.
//
// # Thread Safety
//
// Submit and Stats are safe for concurrent use. All accounting happens inside
// the limiter.
package limiter
