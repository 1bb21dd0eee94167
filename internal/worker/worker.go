// Package worker consumes queued tasks and drives the job pipeline. A worker
// process runs a fixed number of consumer goroutines and a memory guard that
// pauses intake when the process grows past its RSS ceiling.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/pipeline"
	"clipforge/internal/queue"
	"clipforge/internal/store"
)

// DefaultDequeueWait bounds each blocking queue poll so consumers notice
// shutdown and guard pauses promptly.
const DefaultDequeueWait = 5 * time.Second

// TaskSource is the queue surface the worker consumes. Satisfied by
// *queue.Queue.
type TaskSource interface {
	Dequeue(ctx context.Context, wait time.Duration) (queue.Task, string, error)
	Ack(ctx context.Context, payload string) error
	RecoverPending(ctx context.Context) (int, error)
}

// JobRunner is the pipeline surface the worker dispatches to. Satisfied by
// *pipeline.Pipeline.
type JobRunner interface {
	Process(ctx context.Context, jobID string) error
	RerenderClip(ctx context.Context, jobID, clipID string, start, end float64, opts store.JobOptions) error
}

// Deps names the worker's collaborators explicitly.
type Deps struct {
	Source      TaskSource
	Runner      JobRunner
	Store       *store.Store
	Guard       *MemoryGuard
	Logger      *slog.Logger
	Concurrency int
	DequeueWait time.Duration
}

// Worker owns the consumer goroutines of one worker process.
type Worker struct {
	source      TaskSource
	runner      JobRunner
	store       *store.Store
	guard       *MemoryGuard
	logger      *slog.Logger
	concurrency int
	dequeueWait time.Duration
}

// New validates deps and constructs a worker.
func New(deps Deps) (*Worker, error) {
	if deps.Source == nil {
		return nil, errors.New("worker: task source required")
	}
	if deps.Runner == nil {
		return nil, errors.New("worker: job runner required")
	}
	if deps.Store == nil {
		return nil, errors.New("worker: store required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	wait := deps.DequeueWait
	if wait <= 0 {
		wait = DefaultDequeueWait
	}
	return &Worker{
		source:      deps.Source,
		runner:      deps.Runner,
		store:       deps.Store,
		guard:       deps.Guard,
		logger:      logger,
		concurrency: concurrency,
		dequeueWait: wait,
	}, nil
}

// Run consumes tasks until ctx is cancelled. In-flight tasks finish before
// Run returns; a cancelled poll is not an error.
func (w *Worker) Run(ctx context.Context) error {
	if recovered, err := w.source.RecoverPending(ctx); err != nil {
		w.logger.Warn("failed to recover pending tasks", logging.Error(err))
	} else if recovered > 0 {
		w.logger.Info("requeued tasks from a previous run", logging.Int("tasks", recovered))
	}

	if w.guard != nil {
		go w.guard.Run(ctx)
	}

	w.logger.Info("worker started", logging.Int("concurrency", w.concurrency))
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx)
		}()
	}
	wg.Wait()
	w.logger.Info("worker stopped")
	return nil
}

func (w *Worker) consume(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if w.guard != nil {
			if err := w.guard.Wait(ctx); err != nil {
				return
			}
		}

		task, payload, err := w.source.Dequeue(ctx, w.dequeueWait)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) || ctx.Err() != nil {
				continue
			}
			w.logger.Error("dequeue failed", logging.Error(err))
			// Back off so a broken queue connection does not spin the loop.
			select {
			case <-time.After(w.dequeueWait):
			case <-ctx.Done():
				return
			}
			continue
		}

		if err := w.dispatch(ctx, task); err != nil {
			w.logger.Error("task failed",
				logging.String("task", task.Name),
				logging.String(logging.FieldJobID, task.JobID),
				logging.Error(err),
			)
		}
		if err := w.source.Ack(ctx, payload); err != nil {
			w.logger.Warn("failed to ack task",
				logging.String("task", task.Name),
				logging.Error(err),
			)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, task queue.Task) error {
	switch task.Name {
	case queue.TaskProcessJob:
		return w.runner.Process(ctx, task.JobID)
	case queue.TaskRerenderClip:
		return w.rerender(ctx, task)
	default:
		return fmt.Errorf("unknown task %q", task.Name)
	}
}

func (w *Worker) rerender(ctx context.Context, task queue.Task) error {
	if task.Clip == nil {
		return fmt.Errorf("rerender task without clip payload")
	}
	job, err := w.store.GetJob(ctx, task.JobID)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}
	opts := job.Options
	if task.Clip.BurnSubtitles {
		opts.Subtitles = store.SubtitlesBurned
	}
	opts.SmartCrop = task.Clip.SmartCrop
	return w.runner.RerenderClip(ctx, task.JobID, task.Clip.ClipID, task.Clip.Start, task.Clip.End, opts)
}

var _ JobRunner = (*pipeline.Pipeline)(nil)
var _ TaskSource = (*queue.Queue)(nil)
