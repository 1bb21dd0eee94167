package api

import (
	"time"

	"clipforge/internal/store"
)

// FromJob converts a persisted job into its API representation.
func FromJob(job *store.Job) Job {
	if job == nil {
		return Job{}
	}
	out := Job{
		ID:         job.ID,
		SourceType: string(job.SourceType),
		SourceURL:  job.SourceURL,
		UploadID:   job.UploadID,
		Status:     string(job.Status),
		Stage:      string(job.Stage),
		Progress:   job.Progress,
		Options:    fromOptions(job.Options),
		Error:      job.Error,
		CreatedAt:  formatTime(job.CreatedAt),
		UpdatedAt:  formatTime(job.UpdatedAt),
	}
	if job.Metadata != nil {
		out.Metadata = &JobDetails{
			Title:    job.Metadata.Title,
			Provider: job.Metadata.Provider,
			URL:      job.Metadata.URL,
		}
	}
	return out
}

// FromJobs converts a job slice, preserving order.
func FromJobs(jobs []*store.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromClip converts a persisted clip into its API representation.
func FromClip(clip *store.Clip) Clip {
	if clip == nil {
		return Clip{}
	}
	return Clip{
		ID:        clip.ID,
		JobID:     clip.JobID,
		Start:     clip.Start,
		End:       clip.End,
		Score:     clip.Score,
		Reason:    clip.Reason,
		Status:    string(clip.Status),
		VideoPath: clip.VideoPath,
		SRTPath:   clip.SRTPath,
		VTTPath:   clip.VTTPath,
		CreatedAt: formatTime(clip.CreatedAt),
		UpdatedAt: formatTime(clip.UpdatedAt),
	}
}

// FromClips converts a clip slice, preserving order.
func FromClips(clips []*store.Clip) []Clip {
	out := make([]Clip, 0, len(clips))
	for _, clip := range clips {
		out = append(out, FromClip(clip))
	}
	return out
}

func fromOptions(opts store.JobOptions) JobOptions {
	return JobOptions{
		Language:       opts.Language,
		ClipCount:      opts.ClipCount,
		DurationPreset: string(opts.DurationPreset),
		Subtitles:      string(opts.Subtitles),
		SmartCrop:      opts.SmartCrop,
	}
}

// ToOptions maps wire options onto store options, leaving defaults to
// Normalize.
func ToOptions(opts *JobOptions) store.JobOptions {
	if opts == nil {
		return store.DefaultJobOptions()
	}
	out := store.JobOptions{
		Language:       opts.Language,
		ClipCount:      opts.ClipCount,
		DurationPreset: store.DurationPreset(opts.DurationPreset),
		Subtitles:      store.SubtitleMode(opts.Subtitles),
		SmartCrop:      opts.SmartCrop,
	}
	out.Normalize()
	return out
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(dateTimeFormat)
}
