package pipeline

import (
	"context"
	"fmt"

	"clipforge/internal/logging"
	"clipforge/internal/services"
	"clipforge/internal/source"
	"clipforge/internal/store"
	"clipforge/internal/subtitles"
	"clipforge/internal/transcribe"
)

// GenerateRequest describes a manually bounded clip: the caller picks the
// time range, no highlight detection runs.
type GenerateRequest struct {
	URL      string
	UploadID string
	Start    float64
	End      float64
	Options  store.JobOptions
}

// GenerateClip creates a one-off job around a caller-chosen time range and
// renders a single clip from it. Uploads render from the local file; a
// YouTube URL without an upload goes through the streaming clip path when
// streaming is enabled, and fails with a user-actionable message when it is
// not.
func (p *Pipeline) GenerateClip(ctx context.Context, req GenerateRequest) (*store.Clip, error) {
	if req.Start < 0 || req.End <= req.Start {
		return nil, services.Wrap(services.ErrValidation, "", "", "clip range must satisfy 0 <= start < end", nil)
	}

	opts := req.Options
	opts.ClipCount = 1
	sourceType := store.SourceYouTube
	if req.UploadID != "" {
		sourceType = store.SourceUpload
	}
	job, err := p.store.CreateJob(ctx, store.NewJobInput{
		SourceType: sourceType,
		SourceURL:  req.URL,
		UploadID:   req.UploadID,
		Options:    opts,
	})
	if err != nil {
		return nil, err
	}
	ctx = services.WithJobID(ctx, job.ID)

	clip, err := p.generate(ctx, job, req)
	if err != nil {
		p.logger.Error("clip generation failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
		if stateErr := p.store.SetJobStage(ctx, job.ID, store.JobError, store.StageError, 0, services.UserMessage(err)); stateErr != nil {
			p.logger.Error("failed to record job error state",
				logging.String(logging.FieldJobID, job.ID),
				logging.Error(stateErr),
			)
		}
		return nil, err
	}
	return clip, nil
}

func (p *Pipeline) generate(ctx context.Context, job *store.Job, req GenerateRequest) (*store.Clip, error) {
	if err := p.store.SetJobStage(ctx, job.ID, store.JobProcessing, store.StageDownload, progressDownload, ""); err != nil {
		return nil, err
	}

	video, err := p.resolver.Resolve(ctx, source.Request{URL: job.SourceURL, UploadID: job.UploadID})
	if err != nil {
		return nil, err
	}
	job.Metadata = &store.JobMetadata{Title: video.Title, Provider: video.Provider, URL: video.URL}
	if err := p.store.UpdateJob(ctx, job); err != nil {
		return nil, err
	}

	streaming := false
	if video.FilePath == "" {
		if video.Type == source.TypeYouTube && video.URL != "" {
			if !p.opts.StreamingEnabled {
				return nil, services.Wrap(services.ErrUnavailable, "", "", MsgYouTubeDisabled, nil)
			}
			streaming = true
		} else {
			return nil, services.Wrap(services.ErrUnavailable, "", "", MsgNoInput, nil)
		}
	}

	if job.Options.Subtitles != store.SubtitlesOff {
		if err := p.store.SetJobStage(ctx, job.ID, store.JobProcessing, store.StageTranscribe, progressTranscribe, ""); err != nil {
			return nil, err
		}
		var transcript subtitles.Transcript
		if streaming {
			if p.streamTranscriber == nil {
				return nil, fmt.Errorf("streaming transcriber not configured")
			}
			// Transcribe only the requested window; the stream transcriber
			// shifts cue times back to the absolute range.
			transcript, err = p.streamTranscriber.TranscribeStream(ctx, transcribe.StreamRequest{
				URL:      video.URL,
				Language: job.Options.Language,
				JobID:    job.ID,
				Start:    req.Start,
				End:      req.End,
			})
		} else {
			transcript, err = p.transcriber.Transcribe(ctx, video.FilePath, job.Options.Language, job.ID)
		}
		if err != nil {
			return nil, err
		}
		if err := p.layout.WriteTranscript(job.ID, transcript); err != nil {
			return nil, err
		}
	}

	clip, err := p.store.CreateClip(ctx, job.ID, req.Start, req.End, 1, "manual")
	if err != nil {
		return nil, err
	}

	if err := p.store.SetJobStage(ctx, job.ID, store.JobProcessing, store.StageRender, progressRender, ""); err != nil {
		return nil, err
	}
	if streaming {
		err = p.renderStreamingClip(ctx, job, clip, video.URL)
	} else {
		err = p.renderClip(ctx, job, clip, video.FilePath, false)
	}
	if err != nil {
		return nil, err
	}

	if err := p.store.SetJobStage(ctx, job.ID, store.JobReady, store.StageReady, progressReady, ""); err != nil {
		return nil, err
	}
	p.logger.Info("clip generated",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldClipID, clip.ID),
	)
	return clip, nil
}
