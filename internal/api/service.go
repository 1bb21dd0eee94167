package api

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"clipforge/internal/clipper"
	"clipforge/internal/logging"
	"clipforge/internal/queue"
	"clipforge/internal/services"
	"clipforge/internal/store"
)

// JobStore abstracts the persistence surface the service needs. Satisfied by
// *store.Store.
type JobStore interface {
	CreateJob(ctx context.Context, input store.NewJobInput) (*store.Job, error)
	GetJob(ctx context.Context, id string) (*store.Job, error)
	ListJobs(ctx context.Context, statuses ...store.JobStatus) ([]*store.Job, error)
	GetClip(ctx context.Context, id string) (*store.Clip, error)
	ListClips(ctx context.Context, jobID string) ([]*store.Clip, error)
	JobStats(ctx context.Context) (map[store.JobStatus]int, error)
}

// TaskQueue abstracts the enqueue surface. Satisfied by *queue.Queue.
type TaskQueue interface {
	EnqueueJob(ctx context.Context, jobID string) error
	EnqueueClipRerender(ctx context.Context, jobID string, clip queue.ClipRerender) error
	Len(ctx context.Context) (int64, error)
}

// Service exposes job submission and query operations returning API DTOs.
// It is shared by the HTTP handlers, the inbox watcher, and the CLI.
type Service struct {
	store      JobStore
	queue      TaskQueue
	uploadsDir string
	logger     *slog.Logger
}

// NewService constructs a Service.
func NewService(st JobStore, tq TaskQueue, uploadsDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{store: st, queue: tq, uploadsDir: uploadsDir, logger: logger}
}

// SubmitJob validates a submission, persists the job, and enqueues it for
// processing.
func (s *Service) SubmitJob(ctx context.Context, req SubmitJobRequest) (Job, error) {
	input, err := s.validateSubmission(req)
	if err != nil {
		return Job{}, err
	}

	job, err := s.store.CreateJob(ctx, input)
	if err != nil {
		return Job{}, err
	}
	if err := s.queue.EnqueueJob(ctx, job.ID); err != nil {
		return Job{}, err
	}
	s.logger.Info("job queued",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("source", string(job.SourceType)),
	)
	return FromJob(job), nil
}

func (s *Service) validateSubmission(req SubmitJobRequest) (store.NewJobInput, error) {
	if req.UploadID != "" {
		if filepath.Base(req.UploadID) != req.UploadID {
			return store.NewJobInput{}, services.Wrap(services.ErrValidation, "", "", "uploadId must be a bare file name", nil)
		}
		if _, err := os.Stat(filepath.Join(s.uploadsDir, req.UploadID)); err != nil {
			return store.NewJobInput{}, services.Wrap(services.ErrNotFound, "", "", "uploaded file not found", nil)
		}
		return store.NewJobInput{
			SourceType: store.SourceUpload,
			SourceURL:  req.URL,
			UploadID:   req.UploadID,
			Options:    ToOptions(req.Options),
		}, nil
	}
	if req.URL == "" {
		return store.NewJobInput{}, services.Wrap(services.ErrValidation, "", "", "either url or uploadId is required", nil)
	}
	if !clipper.IsYouTubeURL(req.URL) {
		return store.NewJobInput{}, services.Wrap(services.ErrValidation, "", "", "only YouTube URLs are supported", nil)
	}
	return store.NewJobInput{
		SourceType: store.SourceYouTube,
		SourceURL:  req.URL,
		Options:    ToOptions(req.Options),
	}, nil
}

// Describe fetches a job with its clips. Returns nil when absent.
func (s *Service) Describe(ctx context.Context, jobID string) (*JobResponse, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil || job == nil {
		return nil, err
	}
	clips, err := s.store.ListClips(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &JobResponse{Job: FromJob(job), Clips: FromClips(clips)}, nil
}

// List returns jobs filtered by status.
func (s *Service) List(ctx context.Context, statuses ...store.JobStatus) ([]Job, error) {
	jobs, err := s.store.ListJobs(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}

// RequestRerender validates job and clip, then enqueues a re-render task.
func (s *Service) RequestRerender(ctx context.Context, jobID, clipID string, req RerenderRequest) error {
	if req.Start < 0 || req.End <= req.Start {
		return services.Wrap(services.ErrValidation, "", "", "clip range must satisfy 0 <= start < end", nil)
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return services.Wrap(services.ErrNotFound, "", "", "job not found", nil)
	}
	if job.UploadID == "" {
		return services.Wrap(services.ErrValidation, "", "", "re-render requires an uploaded source file", nil)
	}
	clip, err := s.store.GetClip(ctx, clipID)
	if err != nil {
		return err
	}
	if clip == nil || clip.JobID != jobID {
		return services.Wrap(services.ErrNotFound, "", "", "clip not found", nil)
	}
	if err := s.queue.EnqueueClipRerender(ctx, jobID, queue.ClipRerender{
		ClipID:        clipID,
		Start:         req.Start,
		End:           req.End,
		BurnSubtitles: req.BurnSubtitles,
		SmartCrop:     req.SmartCrop,
	}); err != nil {
		return err
	}
	s.logger.Info("clip re-render queued",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldClipID, clipID),
	)
	return nil
}

// Stats returns job counts by status plus the live queue depth.
func (s *Service) Stats(ctx context.Context) (StatsResponse, error) {
	stats, err := s.store.JobStats(ctx)
	if err != nil {
		return StatsResponse{}, err
	}
	counts := make(map[string]int, len(stats))
	for status, count := range stats {
		counts[string(status)] = count
	}
	depth, err := s.queue.Len(ctx)
	if err != nil {
		// Queue depth is advisory; stats stay useful without it.
		s.logger.Warn("failed to read queue length", logging.Error(err))
		depth = -1
	}
	return StatsResponse{Counts: counts, QueueLength: depth}, nil
}
