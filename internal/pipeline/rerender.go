package pipeline

import (
	"context"
	"errors"
	"path/filepath"

	"clipforge/internal/logging"
	"clipforge/internal/store"
)

// ErrNoUploadForRerender rejects re-renders of jobs without a durable local
// input. Streaming sources have nothing on disk to re-slice.
var ErrNoUploadForRerender = errors.New("re-render requires an uploaded source file")

// RerenderClip updates a clip's bounds and renders it again from the job's
// original upload. Missing jobs or clips are a no-op so stale queue tasks
// drain harmlessly.
func (p *Pipeline) RerenderClip(ctx context.Context, jobID, clipID string, start, end float64, opts store.JobOptions) error {
	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}
	clip, err := p.store.GetClip(ctx, clipID)
	if err != nil {
		return err
	}
	if clip == nil || clip.JobID != jobID {
		return nil
	}
	if job.UploadID == "" {
		return ErrNoUploadForRerender
	}

	clip.Start = start
	clip.End = end
	if err := p.store.UpdateClip(ctx, clip); err != nil {
		return err
	}

	p.logger.Info("re-rendering clip",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldClipID, clipID),
	)

	opts.Normalize()
	jobCopy := *job
	jobCopy.Options = opts
	inputPath := filepath.Join(p.opts.UploadsDir, job.UploadID)
	return p.renderClip(ctx, &jobCopy, clip, inputPath, false)
}
