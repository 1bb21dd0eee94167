package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"clipforge/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "clipforge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateJobAppliesOptionDefaults(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, store.NewJobInput{
		SourceType: store.SourceUpload,
		UploadID:   "upload-1",
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if job.Status != store.JobPending || job.Stage != store.StageQueued {
		t.Fatalf("unexpected initial state: %s/%s", job.Status, job.Stage)
	}
	if job.Progress != 0 {
		t.Fatalf("unexpected progress: %d", job.Progress)
	}
	opts := job.Options
	if opts.Language != "en" || opts.ClipCount != 3 || opts.DurationPreset != store.PresetNormal {
		t.Fatalf("unexpected defaulted options: %+v", opts)
	}
	if opts.Subtitles != store.SubtitlesBurned || !opts.SmartCrop {
		t.Fatalf("unexpected defaulted options: %+v", opts)
	}
}

func TestJobOptionsNormalizeClampsAndParses(t *testing.T) {
	opts := store.JobOptions{
		Language:       "es-MX",
		ClipCount:      99,
		DurationPreset: "extended",
		Subtitles:      "captions",
	}
	opts.Normalize()
	if opts.Language != "es" {
		t.Fatalf("expected base language es, got %q", opts.Language)
	}
	if opts.ClipCount != 10 {
		t.Fatalf("expected clip count clamped to 10, got %d", opts.ClipCount)
	}
	if opts.DurationPreset != store.PresetNormal {
		t.Fatalf("expected preset fallback, got %q", opts.DurationPreset)
	}
	if opts.Subtitles != store.SubtitlesBurned {
		t.Fatalf("expected subtitles fallback, got %q", opts.Subtitles)
	}

	auto := store.JobOptions{Language: "auto"}
	auto.Normalize()
	if auto.Language != "en" {
		t.Fatalf("expected auto language to default, got %q", auto.Language)
	}
}

func TestUpdateJobRoundTripsMetadata(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, store.NewJobInput{
		SourceType: store.SourceYouTube,
		SourceURL:  "https://youtu.be/abc123",
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	job.Status = store.JobProcessing
	job.Stage = store.StageDownload
	job.Progress = 5
	job.Metadata = &store.JobMetadata{Title: "Demo", Provider: "YouTube", URL: job.SourceURL}
	if err := s.UpdateJob(ctx, job); err != nil {
		t.Fatalf("update job: %v", err)
	}

	got, err := s.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != store.JobProcessing || got.Stage != store.StageDownload || got.Progress != 5 {
		t.Fatalf("unexpected state: %s/%s/%d", got.Status, got.Stage, got.Progress)
	}
	if got.Metadata == nil || got.Metadata.Title != "Demo" || got.Metadata.Provider != "YouTube" {
		t.Fatalf("unexpected metadata: %+v", got.Metadata)
	}
}

func TestGetJobAbsentReturnsNil(t *testing.T) {
	s := newStore(t)
	job, err := s.GetJob(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %+v", job)
	}
}

func TestClipLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, store.NewJobInput{SourceType: store.SourceUpload, UploadID: "u"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	clip, err := s.CreateClip(ctx, job.ID, 3, 21, 0.8, "audio peak")
	if err != nil {
		t.Fatalf("create clip: %v", err)
	}
	if clip.Status != store.ClipPending {
		t.Fatalf("unexpected status: %s", clip.Status)
	}

	clip.Status = store.ClipReady
	clip.VideoPath = "/tmp/clip.mp4"
	if err := s.UpdateClip(ctx, clip); err != nil {
		t.Fatalf("update clip: %v", err)
	}

	if _, err := s.CreateClip(ctx, job.ID, 30, 48, 0.9, "keyword: idea"); err != nil {
		t.Fatalf("create second clip: %v", err)
	}

	clips, err := s.ListClips(ctx, job.ID)
	if err != nil {
		t.Fatalf("list clips: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(clips))
	}
	if clips[0].Score < clips[1].Score {
		t.Fatal("expected score-descending order")
	}
}

func TestDeleteJobCascadesClips(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, store.NewJobInput{SourceType: store.SourceUpload, UploadID: "u"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	clip, err := s.CreateClip(ctx, job.ID, 0, 12, 0.5, "fallback")
	if err != nil {
		t.Fatalf("create clip: %v", err)
	}

	removed, err := s.DeleteJob(ctx, job.ID)
	if err != nil || !removed {
		t.Fatalf("delete job: removed=%v err=%v", removed, err)
	}
	got, err := s.GetClip(ctx, clip.ID)
	if err != nil {
		t.Fatalf("get clip: %v", err)
	}
	if got != nil {
		t.Fatal("expected clip removed by cascade")
	}
}

func TestJobStats(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.CreateJob(ctx, store.NewJobInput{SourceType: store.SourceUpload, UploadID: "u"}); err != nil {
			t.Fatalf("create job: %v", err)
		}
	}
	stats, err := s.JobStats(ctx)
	if err != nil {
		t.Fatalf("job stats: %v", err)
	}
	if stats[store.JobPending] != 3 {
		t.Fatalf("expected 3 pending, got %+v", stats)
	}
}
