package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"clipforge/internal/clipper"
	"clipforge/internal/highlights"
	"clipforge/internal/logging"
	"clipforge/internal/render"
	"clipforge/internal/services"
	"clipforge/internal/source"
	"clipforge/internal/store"
	"clipforge/internal/subtitles"
	"clipforge/internal/transcribe"
)

// Canonical progress checkpoints for the job state machine.
const (
	progressDownload   = 5
	progressTranscribe = 20
	progressHighlights = 40
	progressRender     = 70
	progressReady      = 100
)

// Process runs a job end to end. A missing job is a no-op. Any failure is
// converted exactly once into the job's terminal error state; the returned
// error mirrors it for the worker's log.
func (p *Pipeline) Process(ctx context.Context, jobID string) error {
	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}
	ctx = services.WithJobID(ctx, jobID)

	if err := p.run(ctx, job); err != nil {
		p.logger.Error("job failed",
			logging.String(logging.FieldJobID, jobID),
			logging.Error(err),
		)
		if stateErr := p.store.SetJobStage(ctx, jobID, store.JobError, store.StageError, 0, services.UserMessage(err)); stateErr != nil {
			p.logger.Error("failed to record job error state",
				logging.String(logging.FieldJobID, jobID),
				logging.Error(stateErr),
			)
		}
		return err
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, job *store.Job) error {
	if err := p.store.SetJobStage(ctx, job.ID, store.JobProcessing, store.StageDownload, progressDownload, ""); err != nil {
		return err
	}

	video, err := p.resolver.Resolve(ctx, source.Request{URL: job.SourceURL, UploadID: job.UploadID})
	if err != nil {
		return err
	}

	job.Metadata = &store.JobMetadata{Title: video.Title, Provider: video.Provider, URL: video.URL}
	if err := p.store.UpdateJob(ctx, job); err != nil {
		return err
	}

	streaming := false
	if video.FilePath == "" {
		if video.Type == source.TypeYouTube && video.URL != "" {
			if !p.opts.StreamingEnabled {
				p.logger.Warn("youtube downloads disabled, asking for an upload",
					logging.String(logging.FieldJobID, job.ID))
				return p.store.SetJobStage(ctx, job.ID, store.JobError, store.StageError, 0, MsgYouTubeDisabled)
			}
			streaming = true
		} else {
			return p.store.SetJobStage(ctx, job.ID, store.JobError, store.StageError, 0, MsgNoInput)
		}
	}

	p.logger.Info("starting transcription",
		logging.String(logging.FieldJobID, job.ID),
		logging.Bool("streaming", streaming),
	)
	if err := p.store.SetJobStage(ctx, job.ID, store.JobProcessing, store.StageTranscribe, progressTranscribe, ""); err != nil {
		return err
	}
	transcript, err := p.transcribeSource(ctx, job, video, streaming)
	if err != nil {
		return err
	}
	if err := p.layout.WriteTranscript(job.ID, transcript); err != nil {
		return err
	}

	p.logger.Info("detecting highlights", logging.String(logging.FieldJobID, job.ID))
	if err := p.store.SetJobStage(ctx, job.ID, store.JobProcessing, store.StageHighlights, progressHighlights, ""); err != nil {
		return err
	}
	segments, err := p.detectSegments(ctx, job, video, transcript, streaming)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		segments = []highlights.Segment{fallbackSegment(transcript, job.Options.DurationPreset)}
		p.logger.Info("no highlights detected, using fallback clip",
			logging.String(logging.FieldJobID, job.ID),
			logging.Float64("end", segments[0].End),
		)
	}

	clips := make([]*store.Clip, 0, len(segments))
	for _, segment := range segments {
		clip, err := p.store.CreateClip(ctx, job.ID, segment.Start, segment.End, segment.Score, segment.Reason)
		if err != nil {
			return err
		}
		clips = append(clips, clip)
	}

	p.logger.Info("rendering clips",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("clips", len(clips)),
	)
	if err := p.store.SetJobStage(ctx, job.ID, store.JobProcessing, store.StageRender, progressRender, ""); err != nil {
		return err
	}
	for index, clip := range clips {
		if streaming {
			err = p.renderStreamingClip(ctx, job, clip, video.URL)
		} else {
			err = p.renderClip(ctx, job, clip, video.FilePath, false)
		}
		if err != nil {
			return err
		}
		if err := p.store.SetJobProgress(ctx, job.ID, renderProgress(index+1, len(clips))); err != nil {
			return err
		}
	}

	if err := p.store.SetJobStage(ctx, job.ID, store.JobReady, store.StageReady, progressReady, ""); err != nil {
		return err
	}
	p.logger.Info("job ready", logging.String(logging.FieldJobID, job.ID))
	return nil
}

func (p *Pipeline) transcribeSource(ctx context.Context, job *store.Job, video source.Video, streaming bool) (subtitles.Transcript, error) {
	if streaming {
		if p.streamTranscriber == nil {
			return subtitles.Transcript{}, fmt.Errorf("streaming transcriber not configured")
		}
		return p.streamTranscriber.TranscribeStream(ctx, transcribe.StreamRequest{
			URL:      video.URL,
			Language: job.Options.Language,
			JobID:    job.ID,
		})
	}
	return p.transcriber.Transcribe(ctx, video.FilePath, job.Options.Language, job.ID)
}

func (p *Pipeline) detectSegments(ctx context.Context, job *store.Job, video source.Video, transcript subtitles.Transcript, streaming bool) ([]highlights.Segment, error) {
	if streaming {
		return highlights.DetectFromTranscript(&transcript, job.Options.ClipCount, job.Options.DurationPreset), nil
	}
	return p.detector.Detect(ctx, video.FilePath, transcript, job.Options.ClipCount, job.Options.DurationPreset)
}

// fallbackSegment synthesizes the single clip used when detection comes back
// empty: start at zero, length clamped to the preset bounds, floor at the
// preset minimum for empty transcripts.
func fallbackSegment(transcript subtitles.Transcript, preset store.DurationPreset) highlights.Segment {
	bounds := highlights.RangeForPreset(preset)
	length := transcript.Duration()
	if length == 0 {
		length = bounds.Min
	}
	length = math.Min(math.Max(length, bounds.Min), bounds.Max)
	return highlights.Segment{Start: 0, End: length, Score: 0.5, Reason: "fallback"}
}

func renderProgress(rendered, total int) int {
	progress := progressRender + int(math.Round(29*float64(rendered)/float64(total)))
	if progress > 99 {
		progress = 99
	}
	return progress
}

// renderClip produces one clip's video plus caption sidecars. When rebased
// is set the input file already begins at the clip's start time, so the
// render cuts from zero while subtitles still slice the absolute range.
func (p *Pipeline) renderClip(ctx context.Context, job *store.Job, clip *store.Clip, inputPath string, rebased bool) error {
	clip.Status = store.ClipRendering
	if err := p.store.UpdateClip(ctx, clip); err != nil {
		return err
	}

	subtitlePath := ""
	if job.Options.Subtitles != store.SubtitlesOff {
		transcript, err := p.layout.ReadTranscript(job.ID)
		if err != nil {
			return p.failClip(ctx, clip, err)
		}
		sliced := transcript.Slice(clip.Start, clip.End)
		if err := p.layout.WriteCaptions(job.ID, clip.ID, subtitles.FormatSRT(sliced)); err != nil {
			return p.failClip(ctx, clip, err)
		}
		subtitlePath = p.layout.ClipSRTPath(job.ID, clip.ID)
	}

	start, end := clip.Start, clip.End
	if rebased {
		start, end = 0, clip.End-clip.Start
	}
	videoPath := p.layout.ClipVideoPath(job.ID, clip.ID)
	err := p.renderer.Render(ctx, render.Request{
		InputPath:     inputPath,
		OutputPath:    videoPath,
		Start:         start,
		End:           end,
		BurnSubtitles: job.Options.Subtitles == store.SubtitlesBurned,
		SubtitlesPath: subtitlePath,
		Loudnorm:      p.opts.Loudnorm,
	})
	if err != nil {
		return p.failClip(ctx, clip, err)
	}

	clip.Status = store.ClipReady
	clip.VideoPath = videoPath
	if job.Options.Subtitles != store.SubtitlesOff {
		clip.SRTPath = p.layout.ClipSRTPath(job.ID, clip.ID)
		clip.VTTPath = p.layout.ClipVTTPath(job.ID, clip.ID)
	} else {
		clip.SRTPath = ""
		clip.VTTPath = ""
	}
	return p.store.UpdateClip(ctx, clip)
}

// renderStreamingClip first pulls the clip's time range into a temporary
// local file via the clipper, renders from that, and always removes the
// temporary file.
func (p *Pipeline) renderStreamingClip(ctx context.Context, job *store.Job, clip *store.Clip, streamURL string) error {
	if p.clipper == nil {
		return fmt.Errorf("stream clipper not configured")
	}
	jobDir, err := p.layout.EnsureJobDir(job.ID)
	if err != nil {
		return err
	}
	tempPath := filepath.Join(jobDir, "stream-"+clip.ID+".mp4")
	defer os.Remove(tempPath)

	if err := p.clipper.Clip(ctx, clipper.Request{
		URL:        streamURL,
		Start:      clip.Start,
		End:        clip.End,
		OutputPath: tempPath,
		MaxHeight:  p.opts.MaxHeight,
		Timeout:    p.opts.ClipTimeout,
		PreferCopy: true,
	}); err != nil {
		return p.failClip(ctx, clip, err)
	}

	return p.renderClip(ctx, job, clip, tempPath, true)
}

func (p *Pipeline) failClip(ctx context.Context, clip *store.Clip, cause error) error {
	clip.Status = store.ClipError
	if err := p.store.UpdateClip(ctx, clip); err != nil {
		p.logger.Error("failed to record clip error state",
			logging.String(logging.FieldClipID, clip.ID),
			logging.Error(err),
		)
	}
	return cause
}
