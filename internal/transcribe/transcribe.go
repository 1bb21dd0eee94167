// Package transcribe produces transcripts from media, either a whisper CLI
// run over local files and streamed audio or a fixed mock provider.
package transcribe

import (
	"context"
	"log/slog"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/subtitles"
)

// Transcriber converts local media files to transcripts.
type Transcriber interface {
	Transcribe(ctx context.Context, inputPath, language, jobID string) (subtitles.Transcript, error)
}

// StreamRequest describes a transcription pulled straight from a stream URL
// without a local source file. Start and End optionally bound the downloaded
// audio window; the resulting transcript is shifted back to absolute video
// time.
type StreamRequest struct {
	URL      string
	Language string
	JobID    string
	Start    float64
	End      float64
}

// StreamTranscriber transcribes directly from a stream URL.
type StreamTranscriber interface {
	TranscribeStream(ctx context.Context, req StreamRequest) (subtitles.Transcript, error)
}

// NewFromConfig returns the transcriber pair selected by cfg.Provider.
func NewFromConfig(cfg config.Whisper, jobsDir string, streamTimeout time.Duration, logger *slog.Logger) (Transcriber, StreamTranscriber) {
	if cfg.Provider == config.WhisperProviderMock {
		return Mock{}, Mock{}
	}
	return NewWhisper(cfg, jobsDir, logger), NewStreamingWhisper(cfg, jobsDir, streamTimeout, logger)
}
