package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipforge/internal/api"
	"clipforge/internal/logging"
	"clipforge/internal/store"
)

func TestInboxWatcherIngestsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "clipforge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	inbox := filepath.Join(dir, "inbox")
	uploads := filepath.Join(dir, "uploads")
	tq := &stubQueue{}
	svc := api.NewService(st, tq, uploads, logging.NewNop())

	watcher := NewInboxWatcher(inbox, uploads, svc, logging.NewNop())
	if watcher == nil {
		t.Fatal("watcher should be enabled")
	}
	watcher.settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	// Give the watcher time to install before dropping the file.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(inbox, "talk.mp4"), []byte("media bytes"), 0o644); err != nil {
		t.Fatalf("write inbox file: %v", err)
	}
	// Non-media files are ignored.
	if err := os.WriteFile(filepath.Join(inbox, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatalf("write ignored file: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		jobs, err := st.ListJobs(context.Background())
		if err != nil {
			t.Fatalf("list jobs: %v", err)
		}
		if len(jobs) == 1 {
			job := jobs[0]
			if job.SourceType != store.SourceUpload || job.UploadID != "talk.mp4" {
				t.Fatalf("unexpected job %+v", job)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for ingestion")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if _, err := os.Stat(filepath.Join(uploads, "talk.mp4")); err != nil {
		t.Fatalf("upload not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(inbox, "talk.mp4")); !os.IsNotExist(err) {
		t.Fatalf("inbox file should be removed, stat err = %v", err)
	}
	if len(tq.jobs) != 1 {
		t.Fatalf("enqueued = %v", tq.jobs)
	}
}

func TestInboxWatcherDisabledWithoutDir(t *testing.T) {
	if watcher := NewInboxWatcher("   ", "/tmp/uploads", nil, nil); watcher != nil {
		t.Fatal("blank inbox dir should disable the watcher")
	}
}

func TestUploadTargetAvoidsCollisions(t *testing.T) {
	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads")
	if err := os.MkdirAll(uploads, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(uploads, "talk.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	watcher := NewInboxWatcher(filepath.Join(dir, "inbox"), uploads, nil, nil)
	got := watcher.uploadTarget("talk.mp4")
	want := filepath.Join(uploads, "talk-1.mp4")
	if got != want {
		t.Fatalf("target = %q, want %q", got, want)
	}
}
