package worker

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"clipforge/internal/logging"
)

const (
	// DefaultGuardInterval is how often the guard samples process RSS.
	DefaultGuardInterval = 5 * time.Second

	// resumeFraction of the ceiling at which a paused guard reopens intake.
	resumeFraction = 0.85
)

// MemoryGuard pauses task intake while the process's resident set exceeds a
// ceiling and resumes it once usage falls back under 85% of that ceiling.
type MemoryGuard struct {
	limitBytes  uint64
	resumeBytes uint64
	interval    time.Duration
	readRSS     func() (uint64, error)
	logger      *slog.Logger

	mu     sync.Mutex
	paused bool
	gate   chan struct{}
}

// NewMemoryGuard builds a guard for the given ceiling in megabytes. A zero or
// negative limit returns nil: no guard, intake never pauses.
func NewMemoryGuard(limitMB int, logger *slog.Logger) *MemoryGuard {
	if limitMB <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	limit := uint64(limitMB) * 1024 * 1024
	gate := make(chan struct{})
	close(gate)
	return &MemoryGuard{
		limitBytes:  limit,
		resumeBytes: uint64(float64(limit) * resumeFraction),
		interval:    DefaultGuardInterval,
		readRSS:     processRSS,
		logger:      logger,
		gate:        gate,
	}
}

// Run samples RSS on a fixed interval until ctx is cancelled.
func (g *MemoryGuard) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sample()
		}
	}
}

// Wait blocks while the guard is paused. Returns ctx.Err() on cancellation.
func (g *MemoryGuard) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		gate := g.gate
		g.mu.Unlock()
		select {
		case <-gate:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Paused reports whether intake is currently blocked.
func (g *MemoryGuard) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

func (g *MemoryGuard) sample() {
	rss, err := g.readRSS()
	if err != nil {
		g.logger.Warn("failed to read process memory", logging.Error(err))
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case !g.paused && rss >= g.limitBytes:
		g.paused = true
		g.gate = make(chan struct{})
		g.logger.Warn("memory ceiling reached, pausing task intake",
			logging.Int64("rss_mb", int64(rss/(1024*1024))),
			logging.Int64("limit_mb", int64(g.limitBytes/(1024*1024))),
		)
	case g.paused && rss <= g.resumeBytes:
		g.paused = false
		close(g.gate)
		g.logger.Info("memory recovered, resuming task intake",
			logging.Int64("rss_mb", int64(rss/(1024*1024))),
		)
	}
}

// processRSS returns the current resident set size in bytes. Reads
// /proc/self/statm where available and falls back to getrusage, whose
// max-RSS figure only ever grows but still catches a ceiling breach.
func processRSS() (uint64, error) {
	if data, err := os.ReadFile("/proc/self/statm"); err == nil {
		fields := strings.Fields(string(data))
		if len(fields) >= 2 {
			if pages, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
				return pages * uint64(os.Getpagesize()), nil
			}
		}
	}
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return 0, err
	}
	return uint64(usage.Maxrss) * 1024, nil
}
