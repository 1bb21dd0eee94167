package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"clipforge/internal/command"
	"clipforge/internal/logging"
)

// DefaultFFmpegBinary is used when no override is configured.
const DefaultFFmpegBinary = "ffmpeg"

// subtitleStyle is the ASS force_style applied to burned-in captions:
// centered near the bottom with an opaque outline box so text stays legible
// over any footage.
const subtitleStyle = "Fontsize=48,PrimaryColour=&HFFFFFF&,OutlineColour=&H000000&,BorderStyle=3,Outline=2,Shadow=1,Alignment=2,MarginV=120"

// Request describes a single vertical clip render.
type Request struct {
	InputPath     string
	OutputPath    string
	Start         float64
	End           float64
	BurnSubtitles bool
	SubtitlesPath string
	Loudnorm      bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFFmpeg overrides the ffmpeg binary name.
func WithFFmpeg(binary string) Option {
	return func(r *Renderer) {
		if strings.TrimSpace(binary) != "" {
			r.ffmpeg = binary
		}
	}
}

// WithFFprobe overrides the ffprobe binary name.
func WithFFprobe(binary string) Option {
	return func(r *Renderer) {
		if strings.TrimSpace(binary) != "" {
			r.ffprobe = binary
		}
	}
}

// Renderer produces 1080x1920 vertical clips with ffmpeg.
type Renderer struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

// NewRenderer constructs a renderer using default binary names.
func NewRenderer(logger *slog.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Renderer{ffmpeg: DefaultFFmpegBinary, ffprobe: DefaultFFprobeBinary, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render cuts [Start, End) out of the input, center-crops it to 9:16, scales
// to 1080x1920 at 30fps, optionally burns subtitles, and encodes H.264 +
// AAC. The output container is determined by OutputPath's extension.
func (r *Renderer) Render(ctx context.Context, req Request) error {
	if req.InputPath == "" {
		return errors.New("render: input path required")
	}
	if req.OutputPath == "" {
		return errors.New("render: output path required")
	}
	duration := req.End - req.Start
	if duration <= 0 {
		return fmt.Errorf("render: invalid range [%v, %v]", req.Start, req.End)
	}
	if duration < 0.1 {
		duration = 0.1
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("render: create output directory: %w", err)
	}

	width, height, err := Dimensions(ctx, r.ffprobe, req.InputPath)
	if err != nil {
		return err
	}

	args := buildRenderArgs(req, duration, width, height)
	r.logger.Debug("rendering clip",
		logging.String("input", req.InputPath),
		logging.String("output", req.OutputPath),
		logging.Float64("start", req.Start),
		logging.Float64("duration", duration),
		logging.Bool("subtitles", req.BurnSubtitles && req.SubtitlesPath != ""),
	)

	tail := command.NewTail(command.DefaultTailLines)
	cmd := exec.CommandContext(ctx, r.ffmpeg, args...)
	if err := command.Run(ctx, cmd, tail); err != nil {
		// ffmpeg may leave a truncated file behind on failure.
		_ = os.Remove(req.OutputPath)
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func buildRenderArgs(req Request, duration float64, width, height int) []string {
	cropWidth, cropX := centeredCrop(width, height)
	filters := []string{
		fmt.Sprintf("crop=%d:%d:%d:%d", cropWidth, height, cropX, 0),
		"scale=1080:1920",
		"fps=30",
		"setsar=1",
	}
	if req.BurnSubtitles && req.SubtitlesPath != "" {
		filters = append(filters, subtitleFilter(req.SubtitlesPath))
	}

	audioFilter := "volume=1.0"
	if req.Loudnorm {
		audioFilter = "loudnorm=I=-14:TP=-1.5:LRA=11"
	}

	return []string{
		"-y",
		"-ss", formatSeconds(req.Start),
		"-i", req.InputPath,
		"-t", formatSeconds(duration),
		"-vf", strings.Join(filters, ","),
		"-af", audioFilter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-profile:v", "high",
		"-pix_fmt", "yuv420p",
		"-b:v", "4000k",
		"-c:a", "aac",
		"-b:a", "160k",
		req.OutputPath,
	}
}

// centeredCrop returns the widest 9:16 window that fits the source, centered
// horizontally. Sources narrower than 9:16 are kept at full width.
func centeredCrop(width, height int) (cropWidth, cropX int) {
	cropWidth = height * 9 / 16
	if cropWidth > width {
		cropWidth = width
	}
	cropX = (width - cropWidth) / 2
	if cropX < 0 {
		cropX = 0
	}
	return cropWidth, cropX
}

func subtitleFilter(path string) string {
	return "subtitles='" + escapeFilterPath(path) + "':force_style='" + subtitleStyle + "'"
}

// escapeFilterPath quotes characters the ffmpeg filter parser treats as
// separators.
func escapeFilterPath(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, ":", `\:`)
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
