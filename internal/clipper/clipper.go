package clipper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/command"
	"clipforge/internal/logging"
)

// Defaults applied when a request leaves the knobs unset.
const (
	DefaultMaxHeight = 720
	DefaultTimeout   = 5 * time.Minute
)

// ErrNotYouTube rejects stream URLs outside youtube.com / youtu.be.
var ErrNotYouTube = errors.New("only youtube.com or youtu.be links are allowed")

// Request describes one streamed clip extraction.
type Request struct {
	URL        string
	Start      float64
	End        float64
	OutputPath string
	MaxHeight  int
	Timeout    time.Duration
	PreferCopy bool
}

// Clipper cuts a time range straight out of a YouTube stream by piping
// yt-dlp's stdout into ffmpeg, so the full video never touches disk.
type Clipper struct {
	ytdlp  string
	ffmpeg string
	logger *slog.Logger
}

// New constructs a clipper using the default binary names.
func New(logger *slog.Logger) *Clipper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Clipper{ytdlp: "yt-dlp", ffmpeg: "ffmpeg", logger: logger}
}

// Clip extracts [Start, End) from the stream into OutputPath. With PreferCopy
// set it first attempts a stream copy and falls back to re-encoding when the
// container does not cut cleanly. Partial output files are removed on
// failure.
func (c *Clipper) Clip(ctx context.Context, req Request) error {
	if !IsYouTubeURL(req.URL) {
		return ErrNotYouTube
	}
	if math.IsNaN(req.Start) || math.IsNaN(req.End) || req.End <= req.Start {
		return errors.New("invalid start or end times")
	}
	if req.OutputPath == "" {
		return errors.New("clip output path required")
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create clip directory: %w", err)
	}

	if req.MaxHeight <= 0 {
		req.MaxHeight = DefaultMaxHeight
	}
	if req.Timeout <= 0 {
		req.Timeout = DefaultTimeout
	}
	duration := max(0.1, req.End-req.Start)

	if req.PreferCopy {
		if err := c.run(ctx, req, duration, true); err == nil {
			return nil
		}
		c.logger.Debug("stream copy failed, re-encoding", logging.String("url", req.URL))
	}
	return c.run(ctx, req, duration, false)
}

func (c *Clipper) run(ctx context.Context, req Request, duration float64, copyCodec bool) error {
	_ = os.Remove(req.OutputPath)

	runCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	tail := command.NewTail(command.DefaultTailLines)
	producer := exec.CommandContext(runCtx, c.ytdlp, ytdlpArgs(req.URL, req.MaxHeight)...)
	consumer := exec.CommandContext(runCtx, c.ffmpeg, ffmpegArgs(req.Start, duration, req.OutputPath, copyCodec)...)

	if err := command.RunPipe(runCtx, producer, consumer, tail); err != nil {
		_ = os.Remove(req.OutputPath)
		return fmt.Errorf("stream clip: %w", err)
	}
	return nil
}

func ytdlpArgs(streamURL string, maxHeight int) []string {
	format := fmt.Sprintf("best[ext=mp4][height<=%d]/best[height<=%d]/best", maxHeight, maxHeight)
	return []string{
		"-f", format,
		"--no-playlist",
		"--no-part",
		"--newline",
		"--concurrent-fragments", "1",
		"-o", "-",
		streamURL,
	}
}

func ffmpegArgs(start, duration float64, outputPath string, copyCodec bool) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-i", "pipe:0",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
	}
	if copyCodec {
		args = append(args, "-c", "copy")
	} else {
		args = append(args,
			"-c:v", "libx264",
			"-preset", "veryfast",
			"-crf", "23",
			"-c:a", "aac",
			"-b:a", "128k",
		)
	}
	return append(args, "-movflags", "+faststart", "-f", "mp4", outputPath)
}

// IsYouTubeURL reports whether input points at youtube.com or youtu.be.
func IsYouTubeURL(input string) bool {
	parsed, err := url.Parse(input)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	return host == "youtube.com" || host == "youtu.be"
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
