// Package pipeline orchestrates a job from submission to rendered clips:
// resolve the source, transcribe, detect highlights, render each clip, and
// keep the persisted job's stage and progress current throughout.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clipforge/internal/clipper"
	"clipforge/internal/config"
	"clipforge/internal/highlights"
	"clipforge/internal/logging"
	"clipforge/internal/render"
	"clipforge/internal/source"
	"clipforge/internal/storage"
	"clipforge/internal/store"
	"clipforge/internal/subtitles"
	"clipforge/internal/transcribe"
)

// User-facing terminal messages. These reach the job's error field verbatim.
const (
	MsgYouTubeDisabled = "YouTube downloads are disabled. Upload a file you own or have rights to use."
	MsgNoInput         = "No input file available for processing."
)

// SourceResolver resolves a job's input.
type SourceResolver interface {
	Resolve(ctx context.Context, req source.Request) (source.Video, error)
}

// Renderer renders one vertical clip.
type Renderer interface {
	Render(ctx context.Context, req render.Request) error
}

// StreamClipper cuts a time range out of a remote stream into a local file.
type StreamClipper interface {
	Clip(ctx context.Context, req clipper.Request) error
}

// Detector picks highlight segments for a local media file.
type Detector interface {
	Detect(ctx context.Context, inputPath string, transcript subtitles.Transcript, clipCount int, preset store.DurationPreset) ([]highlights.Segment, error)
}

// Options carries the policy knobs the pipeline needs from configuration.
type Options struct {
	StreamingEnabled bool
	MaxHeight        int
	ClipTimeout      time.Duration
	Loudnorm         bool
	UploadsDir       string
}

// OptionsFromConfig maps daemon configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		StreamingEnabled: cfg.YouTube.StreamingEnabled,
		MaxHeight:        cfg.YouTube.MaxHeight,
		ClipTimeout:      time.Duration(cfg.YouTube.ClipTimeoutSec) * time.Second,
		Loudnorm:         cfg.Render.Loudnorm,
		UploadsDir:       cfg.Paths.UploadsDir,
	}
}

// Deps names every collaborator explicitly; the pipeline holds no hidden
// globals.
type Deps struct {
	Store             *store.Store
	Layout            *storage.Layout
	Resolver          SourceResolver
	Transcriber       transcribe.Transcriber
	StreamTranscriber transcribe.StreamTranscriber
	Detector          Detector
	Renderer          Renderer
	Clipper           StreamClipper
	Logger            *slog.Logger
	Options           Options
}

// Pipeline runs jobs. One Pipeline serves many jobs; per-job state lives in
// the repository, never on the struct.
type Pipeline struct {
	store             *store.Store
	layout            *storage.Layout
	resolver          SourceResolver
	transcriber       transcribe.Transcriber
	streamTranscriber transcribe.StreamTranscriber
	detector          Detector
	renderer          Renderer
	clipper           StreamClipper
	logger            *slog.Logger
	opts              Options
}

// New validates deps and constructs a pipeline.
func New(deps Deps) (*Pipeline, error) {
	if deps.Store == nil {
		return nil, errors.New("pipeline: store required")
	}
	if deps.Layout == nil {
		return nil, errors.New("pipeline: storage layout required")
	}
	if deps.Resolver == nil {
		return nil, errors.New("pipeline: source resolver required")
	}
	if deps.Transcriber == nil {
		return nil, errors.New("pipeline: transcriber required")
	}
	if deps.Detector == nil {
		return nil, errors.New("pipeline: detector required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("pipeline: renderer required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		store:             deps.Store,
		layout:            deps.Layout,
		resolver:          deps.Resolver,
		transcriber:       deps.Transcriber,
		streamTranscriber: deps.StreamTranscriber,
		detector:          deps.Detector,
		renderer:          deps.Renderer,
		clipper:           deps.Clipper,
		logger:            logger,
		opts:              deps.Options,
	}, nil
}
