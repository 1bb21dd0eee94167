package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"clipforge/internal/command"
	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/subtitles"
)

// Whisper runs the whisper CLI against a local media file and parses the SRT
// it produces.
type Whisper struct {
	cfg     config.Whisper
	jobsDir string
	logger  *slog.Logger
}

// NewWhisper constructs a CLI-backed transcriber writing its SRT output under
// per-job directories below jobsDir.
func NewWhisper(cfg config.Whisper, jobsDir string, logger *slog.Logger) *Whisper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Whisper{cfg: cfg, jobsDir: jobsDir, logger: logger}
}

// Transcribe invokes whisper with SRT output and returns the parsed
// transcript. The intermediate SRT stays in the job directory; it doubles as
// a debugging artifact.
func (w *Whisper) Transcribe(ctx context.Context, inputPath, language, jobID string) (subtitles.Transcript, error) {
	jobDir := filepath.Join(w.jobsDir, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return subtitles.Transcript{}, fmt.Errorf("create job directory: %w", err)
	}

	if err := w.runWhisper(ctx, inputPath, language, jobDir); err != nil {
		return subtitles.Transcript{}, err
	}

	srtPath := filepath.Join(jobDir, filepath.Base(inputPath)+".srt")
	data, err := os.ReadFile(srtPath)
	if err != nil {
		return subtitles.Transcript{}, fmt.Errorf("read whisper output: %w", err)
	}
	return subtitles.ParseSRT(string(data), language), nil
}

func (w *Whisper) runWhisper(ctx context.Context, inputPath, language, outputDir string) error {
	if w.cfg.Device == "" || w.cfg.Device == "cpu" {
		w.logger.Warn("whisper running on cpu, expect slower transcription")
	}

	args := []string{
		inputPath,
		"--model", w.cfg.Model,
		"--language", language,
		"--output_format", "srt",
		"--output_dir", outputDir,
	}
	if w.cfg.Device != "" {
		args = append(args, "--device", w.cfg.Device)
	}

	tail := command.NewTail(command.DefaultTailLines)
	cmd := exec.CommandContext(ctx, w.cfg.Command, args...)
	if err := command.Run(ctx, cmd, tail); err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	return nil
}

var _ Transcriber = (*Whisper)(nil)
