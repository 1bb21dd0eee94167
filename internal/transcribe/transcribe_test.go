package transcribe

import (
	"context"
	"strings"
	"testing"

	"clipforge/internal/config"
)

func TestMockTranscriber(t *testing.T) {
	transcript, err := Mock{}.Transcribe(context.Background(), "/in/video.mp4", "es", "job-1")
	if err != nil {
		t.Fatalf("mock transcribe: %v", err)
	}
	if transcript.Language != "es" {
		t.Errorf("language = %q, want es", transcript.Language)
	}
	if len(transcript.Segments) != 2 {
		t.Fatalf("expected 2 demo segments, got %d", len(transcript.Segments))
	}
	if transcript.Segments[0].Text != "ClipForge demo transcript." {
		t.Errorf("unexpected first segment: %q", transcript.Segments[0].Text)
	}
	if transcript.Duration() != 14 {
		t.Errorf("demo duration = %v, want 14", transcript.Duration())
	}
}

func TestMockStreamTranscriber(t *testing.T) {
	transcript, err := Mock{}.TranscribeStream(context.Background(), StreamRequest{
		URL:      "https://youtu.be/abc",
		Language: "en",
		JobID:    "job-1",
	})
	if err != nil {
		t.Fatalf("mock stream transcribe: %v", err)
	}
	if transcript.Language != "en" || len(transcript.Segments) != 2 {
		t.Errorf("unexpected transcript: %+v", transcript)
	}
}

func TestNewFromConfigSelectsProvider(t *testing.T) {
	cfg := config.Whisper{Provider: config.WhisperProviderMock}
	local, stream := NewFromConfig(cfg, t.TempDir(), 0, nil)
	if _, ok := local.(Mock); !ok {
		t.Errorf("expected Mock transcriber, got %T", local)
	}
	if _, ok := stream.(Mock); !ok {
		t.Errorf("expected Mock stream transcriber, got %T", stream)
	}

	cfg.Provider = config.WhisperProviderWhisper
	local, stream = NewFromConfig(cfg, t.TempDir(), 0, nil)
	if _, ok := local.(*Whisper); !ok {
		t.Errorf("expected Whisper transcriber, got %T", local)
	}
	if _, ok := stream.(*StreamingWhisper); !ok {
		t.Errorf("expected StreamingWhisper, got %T", stream)
	}
}

func TestStreamAudioArgsSectionWindow(t *testing.T) {
	args := streamAudioArgs(StreamRequest{URL: "https://youtu.be/abc", Start: 65, End: 3700})
	joined := strings.Join(args, " ")
	if !strings.HasPrefix(joined, "--download-sections *00:01:05-01:01:40 ") {
		t.Errorf("section window missing or misplaced: %s", joined)
	}
	if !strings.Contains(joined, "-f bestaudio") {
		t.Errorf("missing bestaudio selector: %s", joined)
	}
}

func TestStreamAudioArgsNoWindow(t *testing.T) {
	args := streamAudioArgs(StreamRequest{URL: "https://youtu.be/abc"})
	if strings.Contains(strings.Join(args, " "), "--download-sections") {
		t.Errorf("unexpected section window: %v", args)
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{59.9, "00:00:59"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
		{-5, "00:00:00"},
	}
	for _, tc := range cases {
		if got := formatClock(tc.seconds); got != tc.want {
			t.Errorf("formatClock(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
