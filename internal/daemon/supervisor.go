package daemon

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/logging"
)

// DefaultRestartDelay spaces worker restarts when no delay is configured.
const DefaultRestartDelay = 5 * time.Second

// Supervisor keeps a fixed pool of worker child processes alive. A worker
// that exits is restarted after a delay; cancellation stops the pool and
// waits for the children to go down.
type Supervisor struct {
	binary       string
	args         []string
	processes    int
	restartDelay time.Duration
	logger       *slog.Logger

	wg sync.WaitGroup
}

// NewSupervisor builds a supervisor that re-invokes this binary in worker
// mode. configPath is forwarded so children load the same configuration.
func NewSupervisor(cfg config.Worker, configPath string, logger *slog.Logger) (*Supervisor, error) {
	binary, err := os.Executable()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	processes := cfg.Processes
	if processes <= 0 {
		processes = 1
	}
	delay := time.Duration(cfg.RestartDelaySec) * time.Second
	if delay <= 0 {
		delay = DefaultRestartDelay
	}
	args := []string{"worker"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return &Supervisor{
		binary:       binary,
		args:         args,
		processes:    processes,
		restartDelay: delay,
		logger:       logger,
	}, nil
}

// Processes returns the configured pool size.
func (s *Supervisor) Processes() int {
	return s.processes
}

// Run starts the pool and blocks until ctx is cancelled and every child has
// exited.
func (s *Supervisor) Run(ctx context.Context) {
	s.logger.Info("starting worker pool",
		logging.Int("processes", s.processes),
		logging.String("binary", s.binary),
	)
	for i := 0; i < s.processes; i++ {
		s.wg.Add(1)
		go func(slot int) {
			defer s.wg.Done()
			s.supervise(ctx, slot)
		}(i)
	}
	s.wg.Wait()
}

// Wait blocks until all children have exited. Run must have been started.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) supervise(ctx context.Context, slot int) {
	logger := s.logger.With(logging.Int("worker", slot))
	for {
		if ctx.Err() != nil {
			return
		}
		started := time.Now()
		err := s.runChild(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("worker exited, restarting",
			logging.Duration("uptime", time.Since(started)),
			logging.Error(err),
		)
		select {
		case <-time.After(s.restartDelay):
		case <-ctx.Done():
			return
		}
	}
}

func (s *Supervisor) runChild(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.binary, s.args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	// Give the child a window to finish in-flight tasks before the hard kill.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = 30 * time.Second
	return cmd.Run()
}
