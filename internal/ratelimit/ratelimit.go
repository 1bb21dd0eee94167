// Package ratelimit applies fixed-window admission control to the API.
// Counting happens in Redis so the limit holds across processes; when Redis
// is unreachable the limiter degrades to a per-process window rather than
// failing requests.
package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"clipforge/internal/logging"
)

// Defaults matching the job-creation limit.
const (
	DefaultMax    = 30
	DefaultWindow = time.Minute
)

// Result reports one admission decision.
type Result struct {
	OK        bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) Result
}

type bucket struct {
	count   int
	resetAt time.Time
}

// Local is an in-process fixed-window limiter.
type Local struct {
	mu      sync.Mutex
	buckets map[string]bucket
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewLocal constructs a per-process limiter allowing max requests per window.
func NewLocal(max int, window time.Duration) *Local {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Local{
		buckets: make(map[string]bucket),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

// Allow counts one request against key's current window.
func (l *Local) Allow(_ context.Context, key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || !b.resetAt.After(now) {
		b = bucket{count: 1, resetAt: now.Add(l.window)}
		l.buckets[key] = b
		return Result{OK: true, Remaining: l.max - 1, Limit: l.max, ResetAt: b.resetAt}
	}
	if b.count >= l.max {
		return Result{OK: false, Remaining: 0, Limit: l.max, ResetAt: b.resetAt}
	}
	b.count++
	l.buckets[key] = b
	return Result{OK: true, Remaining: l.max - b.count, Limit: l.max, ResetAt: b.resetAt}
}

// Distributed counts in Redis with a Local fallback.
type Distributed struct {
	client   redis.UniversalClient
	prefix   string
	max      int
	window   time.Duration
	fallback *Local
	logger   *slog.Logger
	now      func() time.Time
	warnOnce sync.Once
}

// NewDistributed constructs a Redis-backed limiter. The prefix namespaces
// limiter keys away from queue keys on a shared Redis.
func NewDistributed(client redis.UniversalClient, prefix string, max int, window time.Duration, logger *slog.Logger) *Distributed {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if prefix == "" {
		prefix = "clipforge"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Distributed{
		client:   client,
		prefix:   prefix,
		max:      max,
		window:   window,
		fallback: NewLocal(max, window),
		logger:   logger,
		now:      time.Now,
	}
}

// Allow increments key's counter for the current window. The window stamp is
// baked into the Redis key, so expiry only needs to outlive the window
// itself.
func (d *Distributed) Allow(ctx context.Context, key string) Result {
	stamp, resetAt := d.windowBounds()
	redisKey := d.prefix + ":ratelimit:" + key + ":" + strconv.FormatInt(stamp, 10)

	pipe := d.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.PExpire(ctx, redisKey, d.window)
	if _, err := pipe.Exec(ctx); err != nil {
		d.warnOnce.Do(func() {
			d.logger.Warn("redis unavailable, rate limiting per process", logging.Error(err))
		})
		return d.fallback.Allow(ctx, key)
	}

	count := int(incr.Val())
	if count > d.max {
		return Result{OK: false, Remaining: 0, Limit: d.max, ResetAt: resetAt}
	}
	return Result{OK: true, Remaining: d.max - count, Limit: d.max, ResetAt: resetAt}
}

// windowBounds identifies the current fixed window: a monotonically
// increasing stamp and the instant the window rolls over.
func (d *Distributed) windowBounds() (int64, time.Time) {
	stamp := d.now().UnixMilli() / d.window.Milliseconds()
	return stamp, time.UnixMilli((stamp + 1) * d.window.Milliseconds())
}
