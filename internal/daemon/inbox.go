package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"clipforge/internal/api"
	"clipforge/internal/logging"
	"clipforge/internal/storage"
)

// inboxExtensions are the file types the watcher ingests.
var inboxExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".mov":  {},
	".webm": {},
	".avi":  {},
}

// defaultSettle is how long a file must stop growing before ingestion.
const defaultSettle = 2 * time.Second

// InboxWatcher ingests media files dropped into the inbox directory: once a
// file stops growing it is copied into uploads with checksum verification,
// removed from the inbox, and submitted as a job.
type InboxWatcher struct {
	inboxDir   string
	uploadsDir string
	service    *api.Service
	logger     *slog.Logger
	settle     time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewInboxWatcher builds a watcher. Returns nil when no inbox directory is
// configured; callers treat a nil watcher as disabled.
func NewInboxWatcher(inboxDir, uploadsDir string, service *api.Service, logger *slog.Logger) *InboxWatcher {
	if strings.TrimSpace(inboxDir) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &InboxWatcher{
		inboxDir:   inboxDir,
		uploadsDir: uploadsDir,
		service:    service,
		logger:     logger,
		settle:     defaultSettle,
		pending:    make(map[string]struct{}),
	}
}

// Run watches the inbox until ctx is cancelled. Files already present at
// startup are ingested too.
func (w *InboxWatcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.inboxDir, 0o755); err != nil {
		return fmt.Errorf("prepare inbox dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.inboxDir); err != nil {
		return fmt.Errorf("watch inbox dir: %w", err)
	}
	w.logger.Info("watching inbox", logging.String("dir", w.inboxDir))

	w.sweepExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watch error", logging.Error(err))
		}
	}
}

func (w *InboxWatcher) sweepExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.inboxDir)
	if err != nil {
		w.logger.Warn("failed to scan inbox", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.schedule(ctx, filepath.Join(w.inboxDir, entry.Name()))
	}
}

// schedule starts ingestion for a path unless one is already in flight.
func (w *InboxWatcher) schedule(ctx context.Context, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := inboxExtensions[ext]; !ok {
		return
	}
	w.mu.Lock()
	if _, busy := w.pending[path]; busy {
		w.mu.Unlock()
		return
	}
	w.pending[path] = struct{}{}
	w.mu.Unlock()

	go func() {
		defer func() {
			w.mu.Lock()
			delete(w.pending, path)
			w.mu.Unlock()
		}()
		if err := w.ingest(ctx, path); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("inbox ingestion failed",
				logging.String("file", filepath.Base(path)),
				logging.Error(err),
			)
		}
	}()
}

func (w *InboxWatcher) ingest(ctx context.Context, path string) error {
	if err := w.waitForStableSize(ctx, path); err != nil {
		return err
	}

	name := filepath.Base(path)
	if err := os.MkdirAll(w.uploadsDir, 0o755); err != nil {
		return fmt.Errorf("prepare uploads dir: %w", err)
	}
	dst := w.uploadTarget(name)
	if err := storage.CopyFileVerified(path, dst); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		w.logger.Warn("failed to remove ingested file",
			logging.String("file", name),
			logging.Error(err),
		)
	}

	job, err := w.service.SubmitJob(ctx, api.SubmitJobRequest{UploadID: filepath.Base(dst)})
	if err != nil {
		return err
	}
	w.logger.Info("inbox file queued",
		logging.String("file", name),
		logging.String(logging.FieldJobID, job.ID),
	)
	return nil
}

// uploadTarget picks a collision-free name in the uploads directory.
func (w *InboxWatcher) uploadTarget(name string) string {
	dst := filepath.Join(w.uploadsDir, name)
	if _, err := os.Stat(dst); errors.Is(err, os.ErrNotExist) {
		return dst
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(w.uploadsDir, fmt.Sprintf("%s-%d%s", base, i, ext))
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}

// waitForStableSize returns once the file size holds through one settle
// interval, so half-copied files never get ingested.
func (w *InboxWatcher) waitForStableSize(ctx context.Context, path string) error {
	var lastSize int64 = -1
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == lastSize && info.Size() > 0 {
			return nil
		}
		lastSize = info.Size()
		select {
		case <-time.After(w.settle):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
