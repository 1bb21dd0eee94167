package api

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clipforge/internal/logging"
	"clipforge/internal/queue"
	"clipforge/internal/services"
	"clipforge/internal/store"
)

type stubQueue struct {
	jobs      []string
	rerenders []queue.ClipRerender
	err       error
	length    int64
	lengthErr error
}

func (s *stubQueue) EnqueueJob(ctx context.Context, jobID string) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, jobID)
	return nil
}

func (s *stubQueue) EnqueueClipRerender(ctx context.Context, jobID string, clip queue.ClipRerender) error {
	if s.err != nil {
		return s.err
	}
	s.rerenders = append(s.rerenders, clip)
	return nil
}

func (s *stubQueue) Len(ctx context.Context) (int64, error) {
	return s.length, s.lengthErr
}

func newService(t *testing.T) (*Service, *store.Store, *stubQueue, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "clipforge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	uploads := filepath.Join(dir, "uploads")
	if err := os.MkdirAll(uploads, 0o755); err != nil {
		t.Fatalf("mkdir uploads: %v", err)
	}
	tq := &stubQueue{}
	return NewService(st, tq, uploads, logging.NewNop()), st, tq, uploads
}

func TestSubmitJobFromUpload(t *testing.T) {
	svc, st, tq, uploads := newService(t)
	if err := os.WriteFile(filepath.Join(uploads, "talk.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write upload: %v", err)
	}

	job, err := svc.SubmitJob(context.Background(), SubmitJobRequest{
		UploadID: "talk.mp4",
		Options:  &JobOptions{Language: "es", ClipCount: 2, DurationPreset: "short", Subtitles: "burned"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.SourceType != "upload" || job.Status != "pending" || job.Stage != "queued" {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.Options.Language != "es" || job.Options.ClipCount != 2 {
		t.Fatalf("options not carried: %+v", job.Options)
	}
	if len(tq.jobs) != 1 || tq.jobs[0] != job.ID {
		t.Fatalf("enqueued = %v", tq.jobs)
	}

	persisted, err := st.GetJob(context.Background(), job.ID)
	if err != nil || persisted == nil {
		t.Fatalf("job not persisted: %v", err)
	}
}

func TestSubmitJobValidation(t *testing.T) {
	svc, _, tq, _ := newService(t)

	cases := []struct {
		name string
		req  SubmitJobRequest
	}{
		{"empty", SubmitJobRequest{}},
		{"not youtube", SubmitJobRequest{URL: "https://vimeo.com/12345"}},
		{"missing upload", SubmitJobRequest{UploadID: "ghost.mp4"}},
		{"path traversal", SubmitJobRequest{UploadID: "../etc/passwd"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SubmitJob(context.Background(), tc.req); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
	if len(tq.jobs) != 0 {
		t.Fatalf("nothing should be enqueued, got %v", tq.jobs)
	}
}

func TestSubmitJobYouTubeURL(t *testing.T) {
	svc, _, tq, _ := newService(t)

	job, err := svc.SubmitJob(context.Background(), SubmitJobRequest{URL: "https://youtu.be/abc123"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.SourceType != "youtube" || job.SourceURL != "https://youtu.be/abc123" {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.Options.ClipCount != 3 || job.Options.DurationPreset != "normal" {
		t.Fatalf("defaults not applied: %+v", job.Options)
	}
	if len(tq.jobs) != 1 {
		t.Fatalf("enqueued = %v", tq.jobs)
	}
}

func TestRequestRerender(t *testing.T) {
	svc, st, tq, uploads := newService(t)
	if err := os.WriteFile(filepath.Join(uploads, "talk.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	job, err := st.CreateJob(context.Background(), store.NewJobInput{SourceType: store.SourceUpload, UploadID: "talk.mp4"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	clip, err := st.CreateClip(context.Background(), job.ID, 0, 20, 0.8, "audio peak")
	if err != nil {
		t.Fatalf("create clip: %v", err)
	}

	req := RerenderRequest{Start: 2, End: 26, BurnSubtitles: true, SmartCrop: true}
	if err := svc.RequestRerender(context.Background(), job.ID, clip.ID, req); err != nil {
		t.Fatalf("rerender: %v", err)
	}
	if len(tq.rerenders) != 1 {
		t.Fatalf("rerenders = %d", len(tq.rerenders))
	}
	got := tq.rerenders[0]
	if got.ClipID != clip.ID || got.Start != 2 || got.End != 26 || !got.BurnSubtitles {
		t.Fatalf("unexpected rerender payload %+v", got)
	}

	if err := svc.RequestRerender(context.Background(), job.ID, clip.ID, RerenderRequest{Start: 9, End: 9}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("bad range err = %v", err)
	}
	if err := svc.RequestRerender(context.Background(), job.ID, "missing", req); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing clip err = %v", err)
	}
}

func TestRequestRerenderNeedsUpload(t *testing.T) {
	svc, st, _, _ := newService(t)
	job, err := st.CreateJob(context.Background(), store.NewJobInput{SourceType: store.SourceYouTube, SourceURL: "https://youtu.be/abc"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	clip, err := st.CreateClip(context.Background(), job.ID, 0, 20, 0.8, "audio peak")
	if err != nil {
		t.Fatalf("create clip: %v", err)
	}

	err = svc.RequestRerender(context.Background(), job.ID, clip.ID, RerenderRequest{Start: 0, End: 10})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestDescribeAndStats(t *testing.T) {
	svc, st, tq, _ := newService(t)
	tq.length = 4

	missing, err := svc.Describe(context.Background(), "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing job = %v, %v", missing, err)
	}

	job, err := st.CreateJob(context.Background(), store.NewJobInput{SourceType: store.SourceYouTube, SourceURL: "https://youtu.be/abc"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if _, err := st.CreateClip(context.Background(), job.ID, 0, 20, 0.8, "audio peak"); err != nil {
		t.Fatalf("create clip: %v", err)
	}

	resp, err := svc.Describe(context.Background(), job.ID)
	if err != nil || resp == nil {
		t.Fatalf("describe: %v", err)
	}
	if resp.Job.ID != job.ID || len(resp.Clips) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Counts["pending"] != 1 || stats.QueueLength != 4 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	tq.lengthErr = errors.New("redis down")
	stats, err = svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats with queue error: %v", err)
	}
	if stats.QueueLength != -1 {
		t.Fatalf("queue length = %d, want -1 sentinel", stats.QueueLength)
	}
}
