package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"clipforge/internal/clipper"
	"clipforge/internal/command"
	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/subtitles"
)

// DefaultStreamTimeout bounds the audio download for one streamed
// transcription.
const DefaultStreamTimeout = 10 * time.Minute

// StreamingWhisper transcribes a YouTube stream without a local source file:
// yt-dlp's bestaudio output is piped through ffmpeg into a 16kHz mono WAV,
// whisper runs over that, and the intermediates are removed.
type StreamingWhisper struct {
	cfg     config.Whisper
	jobsDir string
	timeout time.Duration
	logger  *slog.Logger
}

// NewStreamingWhisper constructs a stream transcriber. A non-positive
// timeout falls back to DefaultStreamTimeout.
func NewStreamingWhisper(cfg config.Whisper, jobsDir string, timeout time.Duration, logger *slog.Logger) *StreamingWhisper {
	if timeout <= 0 {
		timeout = DefaultStreamTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamingWhisper{cfg: cfg, jobsDir: jobsDir, timeout: timeout, logger: logger}
}

// TranscribeStream downloads the audio window, transcribes it, and shifts
// the transcript back to absolute video time when a start offset was given.
func (s *StreamingWhisper) TranscribeStream(ctx context.Context, req StreamRequest) (subtitles.Transcript, error) {
	if !clipper.IsYouTubeURL(req.URL) {
		return subtitles.Transcript{}, clipper.ErrNotYouTube
	}

	jobDir := filepath.Join(s.jobsDir, req.JobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return subtitles.Transcript{}, fmt.Errorf("create job directory: %w", err)
	}

	stamp := strconv.FormatInt(time.Now().UnixMilli(), 36)
	wavPath := filepath.Join(jobDir, "stream-"+stamp+".wav")
	if err := s.downloadAudio(ctx, req, wavPath); err != nil {
		return subtitles.Transcript{}, err
	}
	defer os.Remove(wavPath)

	whisper := NewWhisper(s.cfg, s.jobsDir, s.logger)
	if err := whisper.runWhisper(ctx, wavPath, req.Language, jobDir); err != nil {
		return subtitles.Transcript{}, err
	}

	srtPath := filepath.Join(jobDir, filepath.Base(wavPath)+".srt")
	defer os.Remove(srtPath)
	data, err := os.ReadFile(srtPath)
	if err != nil {
		return subtitles.Transcript{}, fmt.Errorf("read whisper output: %w", err)
	}

	transcript := subtitles.ParseSRT(string(data), req.Language)
	if req.Start > 0 {
		transcript = transcript.Shift(req.Start)
	}
	return transcript, nil
}

func (s *StreamingWhisper) downloadAudio(ctx context.Context, req StreamRequest, wavPath string) error {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tail := command.NewTail(command.DefaultTailLines)
	producer := exec.CommandContext(runCtx, "yt-dlp", streamAudioArgs(req)...)
	consumer := exec.CommandContext(runCtx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "warning",
		"-i", "pipe:0",
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		wavPath,
	)

	if err := command.RunPipe(runCtx, producer, consumer, tail); err != nil {
		_ = os.Remove(wavPath)
		return fmt.Errorf("stream audio: %w", err)
	}
	return nil
}

func streamAudioArgs(req StreamRequest) []string {
	args := []string{
		"-f", "bestaudio",
		"--no-playlist",
		"--no-part",
		"--newline",
		"--concurrent-fragments", "1",
		"-o", "-",
		req.URL,
	}
	if req.End > req.Start {
		window := "*" + formatClock(req.Start) + "-" + formatClock(req.End)
		args = append([]string{"--download-sections", window}, args...)
	}
	return args
}

// formatClock renders whole seconds as HH:MM:SS for yt-dlp section windows.
func formatClock(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

var _ StreamTranscriber = (*StreamingWhisper)(nil)
