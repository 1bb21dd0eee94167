package transcribe

import (
	"context"

	"clipforge/internal/subtitles"
)

// Mock is a fixed-output provider for development and tests; it never shells
// out.
type Mock struct{}

func demoTranscript(language string) subtitles.Transcript {
	return subtitles.Transcript{
		Language: language,
		Segments: []subtitles.Segment{
			{Start: 0, End: 6, Text: "ClipForge demo transcript."},
			{Start: 6, End: 14, Text: "Replace this with Whisper output."},
		},
	}
}

// Transcribe returns the demo transcript regardless of input.
func (Mock) Transcribe(_ context.Context, _, language, _ string) (subtitles.Transcript, error) {
	return demoTranscript(language), nil
}

// TranscribeStream returns the demo transcript regardless of input.
func (Mock) TranscribeStream(_ context.Context, req StreamRequest) (subtitles.Transcript, error) {
	return demoTranscript(req.Language), nil
}

var (
	_ Transcriber       = Mock{}
	_ StreamTranscriber = Mock{}
)
