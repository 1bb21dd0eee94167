package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestLocalCountsDownWithinWindow(t *testing.T) {
	l := NewLocal(3, time.Minute)
	ctx := context.Background()

	for i, wantRemaining := range []int{2, 1, 0} {
		result := l.Allow(ctx, "client-a")
		if !result.OK {
			t.Fatalf("request %d unexpectedly denied", i+1)
		}
		if result.Remaining != wantRemaining {
			t.Errorf("request %d remaining = %d, want %d", i+1, result.Remaining, wantRemaining)
		}
		if result.Limit != 3 {
			t.Errorf("request %d limit = %d, want 3", i+1, result.Limit)
		}
		if result.ResetAt.IsZero() {
			t.Errorf("request %d missing reset time", i+1)
		}
	}

	if result := l.Allow(ctx, "client-a"); result.OK {
		t.Error("request past limit was allowed")
	}
}

func TestLocalIsolatesKeys(t *testing.T) {
	l := NewLocal(1, time.Minute)
	ctx := context.Background()

	if !l.Allow(ctx, "client-a").OK {
		t.Fatal("first request for client-a denied")
	}
	if l.Allow(ctx, "client-a").OK {
		t.Error("second request for client-a allowed")
	}
	if !l.Allow(ctx, "client-b").OK {
		t.Error("client-b should have its own window")
	}
}

func TestLocalResetsAfterWindow(t *testing.T) {
	l := NewLocal(1, time.Minute)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	ctx := context.Background()

	if !l.Allow(ctx, "client-a").OK {
		t.Fatal("first request denied")
	}
	if l.Allow(ctx, "client-a").OK {
		t.Fatal("limit not enforced")
	}

	current = current.Add(time.Minute + time.Second)
	result := l.Allow(ctx, "client-a")
	if !result.OK {
		t.Error("request after window reset denied")
	}
	if result.Remaining != 0 {
		t.Errorf("remaining after reset = %d, want 0", result.Remaining)
	}
}

func TestDistributedFallsBackWithoutRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:            "127.0.0.1:1",
		DialTimeout:     50 * time.Millisecond,
		MaxRetries:      -1,
		ReadTimeout:     50 * time.Millisecond,
		WriteTimeout:    50 * time.Millisecond,
		PoolTimeout:     50 * time.Millisecond,
		MinRetryBackoff: -1,
		MaxRetryBackoff: -1,
	})
	defer client.Close()

	d := NewDistributed(client, "test", 2, time.Minute, nil)
	ctx := context.Background()

	if !d.Allow(ctx, "client-a").OK {
		t.Error("first fallback request denied")
	}
	if !d.Allow(ctx, "client-a").OK {
		t.Error("second fallback request denied")
	}
	if d.Allow(ctx, "client-a").OK {
		t.Error("fallback limit not enforced")
	}
}

func TestDistributedWindowRollover(t *testing.T) {
	d := NewDistributed(nil, "test", 5, time.Minute, nil)
	current := time.UnixMilli(90_000)
	d.now = func() time.Time { return current }

	stamp, resetAt := d.windowBounds()
	if want := time.UnixMilli(120_000); !resetAt.Equal(want) {
		t.Fatalf("resetAt = %v, want %v", resetAt, want)
	}

	current = current.Add(20 * time.Second)
	if sameStamp, sameReset := d.windowBounds(); sameStamp != stamp || !sameReset.Equal(resetAt) {
		t.Errorf("window changed mid-interval: stamp %d->%d reset %v->%v", stamp, sameStamp, resetAt, sameReset)
	}

	current = resetAt
	nextStamp, nextReset := d.windowBounds()
	if nextStamp != stamp+1 {
		t.Errorf("stamp after rollover = %d, want %d", nextStamp, stamp+1)
	}
	if !nextReset.Equal(resetAt.Add(time.Minute)) {
		t.Errorf("reset after rollover = %v, want %v", nextReset, resetAt.Add(time.Minute))
	}
}
