// Package queue is the Redis-backed task queue connecting the API to worker
// processes. Tasks are JSON payloads on a list; dequeue moves them to a
// per-consumer processing list so a crashed worker's tasks can be recovered.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Task names understood by workers.
const (
	TaskProcessJob   = "processJob"
	TaskRerenderClip = "rerenderClip"
)

// ErrEmpty is returned by Dequeue when no task arrived within the wait
// window.
var ErrEmpty = errors.New("queue empty")

// ClipRerender carries the parameters of a single-clip re-render.
type ClipRerender struct {
	ClipID        string  `json:"clip_id"`
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	BurnSubtitles bool    `json:"burn_subtitles"`
	SmartCrop     bool    `json:"smart_crop"`
}

// Task is one unit of queued work.
type Task struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	JobID      string        `json:"job_id"`
	Clip       *ClipRerender `json:"clip,omitempty"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// Queue wraps a Redis list pair (pending and processing) under a key prefix.
type Queue struct {
	client     redis.UniversalClient
	key        string
	pending    string
	processing string
}

// New constructs a queue on client under prefix.
func New(client redis.UniversalClient, prefix string) *Queue {
	if prefix == "" {
		prefix = "clipforge"
	}
	return &Queue{
		client:     client,
		key:        prefix,
		pending:    prefix + ":queue",
		processing: prefix + ":processing",
	}
}

// Connect parses a redis:// URL and returns a live client.
func Connect(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// EnqueueJob queues full pipeline processing for a job.
func (q *Queue) EnqueueJob(ctx context.Context, jobID string) error {
	return q.push(ctx, Task{
		ID:         uuid.NewString(),
		Name:       TaskProcessJob,
		JobID:      jobID,
		EnqueuedAt: time.Now().UTC(),
	})
}

// EnqueueClipRerender queues a re-render of one clip with adjusted bounds.
func (q *Queue) EnqueueClipRerender(ctx context.Context, jobID string, clip ClipRerender) error {
	return q.push(ctx, Task{
		ID:         uuid.NewString(),
		Name:       TaskRerenderClip,
		JobID:      jobID,
		Clip:       &clip,
		EnqueuedAt: time.Now().UTC(),
	})
}

func (q *Queue) push(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := q.client.LPush(ctx, q.pending, payload).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Name, err)
	}
	return nil
}

// Dequeue blocks up to wait for the next task, moving it onto the processing
// list until Ack is called. ErrEmpty signals a quiet period, not a failure.
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (Task, string, error) {
	payload, err := q.client.BLMove(ctx, q.pending, q.processing, "RIGHT", "LEFT", wait).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Task{}, "", ErrEmpty
		}
		return Task{}, "", fmt.Errorf("dequeue: %w", err)
	}

	var task Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		// Drop the poison entry so it cannot wedge the queue.
		_ = q.client.LRem(ctx, q.processing, 1, payload).Err()
		return Task{}, "", fmt.Errorf("decode task: %w", err)
	}
	return task, payload, nil
}

// Ack removes a completed task from the processing list. The payload must be
// the exact string returned by Dequeue.
func (q *Queue) Ack(ctx context.Context, payload string) error {
	if err := q.client.LRem(ctx, q.processing, 1, payload).Err(); err != nil {
		return fmt.Errorf("ack task: %w", err)
	}
	return nil
}

// RecoverPending moves any tasks stranded on the processing list back to the
// pending list. Called once at worker startup, before consuming.
func (q *Queue) RecoverPending(ctx context.Context) (int, error) {
	moved := 0
	for {
		_, err := q.client.LMove(ctx, q.processing, q.pending, "RIGHT", "LEFT").Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return moved, nil
			}
			return moved, fmt.Errorf("recover pending: %w", err)
		}
		moved++
	}
}

// Len returns the number of tasks waiting to be picked up.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	length, err := q.client.LLen(ctx, q.pending).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	return length, nil
}
