package store

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// JobStatus represents the lifecycle of a job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobReady      JobStatus = "ready"
	JobError      JobStatus = "error"
)

// Stage is a named step of the job state machine.
type Stage string

const (
	StageQueued     Stage = "queued"
	StageDownload   Stage = "download"
	StageTranscribe Stage = "transcribe"
	StageHighlights Stage = "highlights"
	StageRender     Stage = "render"
	StageReady      Stage = "ready"
	StageError      Stage = "error"
)

// ClipStatus represents the lifecycle of a rendered clip.
type ClipStatus string

const (
	ClipPending   ClipStatus = "pending"
	ClipRendering ClipStatus = "rendering"
	ClipReady     ClipStatus = "ready"
	ClipError     ClipStatus = "error"
)

// SourceType distinguishes uploaded files from YouTube references.
type SourceType string

const (
	SourceUpload  SourceType = "upload"
	SourceYouTube SourceType = "youtube"
)

// DurationPreset names min/max clip-length bounds.
type DurationPreset string

const (
	PresetShort  DurationPreset = "short"
	PresetNormal DurationPreset = "normal"
	PresetLong   DurationPreset = "long"
)

// SubtitleMode selects sidecar vs burned-in captions.
type SubtitleMode string

const (
	SubtitlesOff    SubtitleMode = "off"
	SubtitlesSRT    SubtitleMode = "srt"
	SubtitlesBurned SubtitleMode = "burned"
)

// JobOptions carries per-job processing options. Zero values are repaired by
// Normalize; every defaulting rule is explicit here rather than spread at
// call sites.
type JobOptions struct {
	Language       string         `json:"language"`
	ClipCount      int            `json:"clipCount"`
	DurationPreset DurationPreset `json:"durationPreset"`
	Subtitles      SubtitleMode   `json:"subtitles"`
	SmartCrop      bool           `json:"smartCrop"`
}

const maxClipCount = 10

// DefaultJobOptions returns the options applied when a submission carries none.
func DefaultJobOptions() JobOptions {
	return JobOptions{
		Language:       "en",
		ClipCount:      3,
		DurationPreset: PresetNormal,
		Subtitles:      SubtitlesBurned,
		SmartCrop:      true,
	}
}

// Normalize repairs out-of-range or missing option fields in place.
func (o *JobOptions) Normalize() {
	o.Language = normalizeLanguage(o.Language)
	if o.ClipCount <= 0 {
		o.ClipCount = DefaultJobOptions().ClipCount
	}
	if o.ClipCount > maxClipCount {
		o.ClipCount = maxClipCount
	}
	switch o.DurationPreset {
	case PresetShort, PresetNormal, PresetLong:
	default:
		o.DurationPreset = PresetNormal
	}
	switch o.Subtitles {
	case SubtitlesOff, SubtitlesSRT, SubtitlesBurned:
	default:
		o.Subtitles = DefaultJobOptions().Subtitles
	}
}

func normalizeLanguage(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "auto") {
		return DefaultJobOptions().Language
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return DefaultJobOptions().Language
	}
	base, _ := tag.Base()
	return base.String()
}

// JobMetadata holds resolved source metadata persisted alongside a job.
type JobMetadata struct {
	Title    string `json:"title,omitempty"`
	Provider string `json:"provider,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Job is a clip-generation job persisted in SQLite.
type Job struct {
	ID         string
	SourceType SourceType
	SourceURL  string
	UploadID   string
	Status     JobStatus
	Stage      Stage
	Progress   int
	Options    JobOptions
	Error      string
	Metadata   *JobMetadata
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clip is one rendered highlight belonging to a job.
type Clip struct {
	ID        string
	JobID     string
	Start     float64
	End       float64
	Score     float64
	Reason    string
	Status    ClipStatus
	VideoPath string
	SRTPath   string
	VTTPath   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether the job has finished, successfully or not.
func (j Job) Terminal() bool {
	return j.Status == JobReady || j.Status == JobError
}

// ParseJobStatus converts a string into a known JobStatus.
func ParseJobStatus(value string) (JobStatus, bool) {
	switch JobStatus(strings.ToLower(strings.TrimSpace(value))) {
	case JobPending:
		return JobPending, true
	case JobProcessing:
		return JobProcessing, true
	case JobReady:
		return JobReady, true
	case JobError:
		return JobError, true
	default:
		return "", false
	}
}

// ParseDurationPreset converts a string into a known DurationPreset.
func ParseDurationPreset(value string) (DurationPreset, bool) {
	switch DurationPreset(strings.ToLower(strings.TrimSpace(value))) {
	case PresetShort:
		return PresetShort, true
	case PresetNormal:
		return PresetNormal, true
	case PresetLong:
		return PresetLong, true
	default:
		return "", false
	}
}
