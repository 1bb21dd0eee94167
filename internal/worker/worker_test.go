package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/queue"
	"clipforge/internal/store"
)

type stubSource struct {
	mu      sync.Mutex
	tasks   []queue.Task
	acked   int
	onEmpty func()
}

func (s *stubSource) Dequeue(ctx context.Context, wait time.Duration) (queue.Task, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) == 0 {
		if s.onEmpty != nil {
			s.onEmpty()
		}
		return queue.Task{}, "", queue.ErrEmpty
	}
	task := s.tasks[0]
	s.tasks = s.tasks[1:]
	return task, task.ID, nil
}

func (s *stubSource) Ack(ctx context.Context, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked++
	return nil
}

func (s *stubSource) RecoverPending(ctx context.Context) (int, error) { return 0, nil }

type recordedRerender struct {
	jobID, clipID string
	start, end    float64
	opts          store.JobOptions
}

type stubRunner struct {
	mu        sync.Mutex
	processed []string
	rerenders []recordedRerender
	err       error
}

func (s *stubRunner) Process(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append(s.processed, jobID)
	return s.err
}

func (s *stubRunner) RerenderClip(ctx context.Context, jobID, clipID string, start, end float64, opts store.JobOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rerenders = append(s.rerenders, recordedRerender{jobID, clipID, start, end, opts})
	return s.err
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "clipforge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func runUntilDrained(t *testing.T, source *stubSource, runner *stubRunner, st *store.Store) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source.onEmpty = cancel

	w, err := New(Deps{
		Source:      source,
		Runner:      runner,
		Store:       st,
		Logger:      logging.NewNop(),
		Concurrency: 1,
		DequeueWait: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestWorkerDispatchesProcessJob(t *testing.T) {
	source := &stubSource{tasks: []queue.Task{
		{ID: "t1", Name: queue.TaskProcessJob, JobID: "job-1"},
		{ID: "t2", Name: queue.TaskProcessJob, JobID: "job-2"},
	}}
	runner := &stubRunner{}
	runUntilDrained(t, source, runner, openTestStore(t))

	if len(runner.processed) != 2 || runner.processed[0] != "job-1" || runner.processed[1] != "job-2" {
		t.Fatalf("processed = %v", runner.processed)
	}
	if source.acked != 2 {
		t.Fatalf("acked = %d, want 2", source.acked)
	}
}

func TestWorkerRerenderAppliesTaskOverrides(t *testing.T) {
	st := openTestStore(t)
	opts := store.DefaultJobOptions()
	opts.Subtitles = store.SubtitlesSRT
	job, err := st.CreateJob(context.Background(), store.NewJobInput{
		SourceType: store.SourceUpload,
		UploadID:   "in.mp4",
		Options:    opts,
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	source := &stubSource{tasks: []queue.Task{{
		ID:    "t1",
		Name:  queue.TaskRerenderClip,
		JobID: job.ID,
		Clip: &queue.ClipRerender{
			ClipID:        "clip-1",
			Start:         4,
			End:           30,
			BurnSubtitles: true,
			SmartCrop:     false,
		},
	}}}
	runner := &stubRunner{}
	runUntilDrained(t, source, runner, st)

	if len(runner.rerenders) != 1 {
		t.Fatalf("rerenders = %d, want 1", len(runner.rerenders))
	}
	got := runner.rerenders[0]
	if got.jobID != job.ID || got.clipID != "clip-1" || got.start != 4 || got.end != 30 {
		t.Fatalf("unexpected rerender %+v", got)
	}
	if got.opts.Subtitles != store.SubtitlesBurned {
		t.Fatalf("subtitles = %s, want burned override", got.opts.Subtitles)
	}
	if got.opts.SmartCrop {
		t.Fatal("smart crop should come from the task")
	}
}

func TestWorkerAcksFailedTasks(t *testing.T) {
	source := &stubSource{tasks: []queue.Task{
		{ID: "t1", Name: queue.TaskProcessJob, JobID: "job-1"},
		{ID: "t2", Name: "sweepFloors"},
	}}
	runner := &stubRunner{err: errors.New("boom")}
	runUntilDrained(t, source, runner, openTestStore(t))

	if source.acked != 2 {
		t.Fatalf("acked = %d, want 2 (failures must not wedge the queue)", source.acked)
	}
}

func TestMemoryGuardPauseResume(t *testing.T) {
	guard := NewMemoryGuard(100, logging.NewNop())
	rss := uint64(50 * 1024 * 1024)
	guard.readRSS = func() (uint64, error) { return rss, nil }

	guard.sample()
	if guard.Paused() {
		t.Fatal("guard should start open")
	}
	if err := guard.Wait(context.Background()); err != nil {
		t.Fatalf("wait while open: %v", err)
	}

	rss = 120 * 1024 * 1024
	guard.sample()
	if !guard.Paused() {
		t.Fatal("guard should pause at the ceiling")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := guard.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("wait while paused = %v, want deadline exceeded", err)
	}

	// 90 MB is under the ceiling but above the 85% resume mark.
	rss = 90 * 1024 * 1024
	guard.sample()
	if !guard.Paused() {
		t.Fatal("guard should stay paused above the resume mark")
	}

	rss = 80 * 1024 * 1024
	guard.sample()
	if guard.Paused() {
		t.Fatal("guard should resume at 85% of the ceiling")
	}
	if err := guard.Wait(context.Background()); err != nil {
		t.Fatalf("wait after resume: %v", err)
	}
}

func TestMemoryGuardDisabled(t *testing.T) {
	if guard := NewMemoryGuard(0, logging.NewNop()); guard != nil {
		t.Fatal("zero limit should disable the guard")
	}
}
