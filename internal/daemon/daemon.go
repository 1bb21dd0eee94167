package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"clipforge/internal/api"
	"clipforge/internal/config"
	"clipforge/internal/deps"
	"clipforge/internal/logging"
	"clipforge/internal/queue"
	"clipforge/internal/ratelimit"
	"clipforge/internal/store"
)

// Daemon coordinates the API server, worker supervisor, and inbox watcher,
// and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	queue   *queue.Queue
	service *api.Service
	limiter ratelimit.Limiter

	lockPath string
	lock     *flock.Flock

	server     *apiServer
	supervisor *Supervisor
	inbox      *InboxWatcher

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DBPath       string
	LockFilePath string
	Workers      int
	Dependencies []deps.Status
}

// Deps names the daemon's collaborators explicitly.
type Deps struct {
	Config     *config.Config
	Store      *store.Store
	Queue      *queue.Queue
	Service    *api.Service
	Limiter    ratelimit.Limiter
	Supervisor *Supervisor
	Inbox      *InboxWatcher
	Logger     *slog.Logger
}

// New constructs a daemon with initialized dependencies.
func New(d Deps) (*Daemon, error) {
	if d.Config == nil || d.Store == nil || d.Queue == nil || d.Service == nil {
		return nil, errors.New("daemon requires config, store, queue, and service")
	}
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(d.Config.Paths.LogDir, "clipforged.lock")
	return &Daemon{
		cfg:        d.Config,
		logger:     logger,
		store:      d.Store,
		queue:      d.Queue,
		service:    d.Service,
		limiter:    d.Limiter,
		supervisor: d.Supervisor,
		inbox:      d.Inbox,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the API server, the worker
// supervisor, and the inbox watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("prepare lock dir: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipforge daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	server, err := newAPIServer(d.cfg, d.service, d, d.limiter, d.logger)
	if err != nil {
		d.releaseLock()
		cancel()
		return err
	}
	d.server = server
	if err := d.server.start(runCtx); err != nil {
		d.releaseLock()
		cancel()
		return err
	}

	if d.supervisor != nil {
		go d.supervisor.Run(runCtx)
	}
	if d.inbox != nil {
		go func() {
			if err := d.inbox.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Error("inbox watcher stopped", logging.Error(err))
			}
		}()
	}

	d.running.Store(true)
	d.logger.Info("clipforge daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock. In-flight
// worker children get the shutdown signal through context cancellation.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.server != nil {
		d.server.stop()
	}
	if d.supervisor != nil {
		d.supervisor.Wait()
	}
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("clipforge daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information for API and CLI consumers.
func (d *Daemon) Status() Status {
	workers := 0
	if d.supervisor != nil {
		workers = d.supervisor.Processes()
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
		Workers:      workers,
		Dependencies: deps.Check(d.cfg),
	}
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}
