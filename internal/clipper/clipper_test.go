package clipper

import (
	"context"
	"strings"
	"testing"
)

func TestIsYouTubeURL(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"https://www.youtube.com/watch?v=abc123", true},
		{"https://youtube.com/watch?v=abc123", true},
		{"https://youtu.be/abc123", true},
		{"https://vimeo.com/12345", false},
		{"https://notyoutube.com/watch", false},
		{"not a url", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsYouTubeURL(tc.input); got != tc.want {
			t.Errorf("IsYouTubeURL(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestClipRejectsNonYouTube(t *testing.T) {
	c := New(nil)
	err := c.Clip(context.Background(), Request{
		URL:        "https://vimeo.com/12345",
		Start:      0,
		End:        10,
		OutputPath: t.TempDir() + "/out.mp4",
	})
	if err != ErrNotYouTube {
		t.Errorf("expected ErrNotYouTube, got %v", err)
	}
}

func TestClipRejectsInvalidRange(t *testing.T) {
	c := New(nil)
	err := c.Clip(context.Background(), Request{
		URL:        "https://youtu.be/abc123",
		Start:      10,
		End:        10,
		OutputPath: t.TempDir() + "/out.mp4",
	})
	if err == nil || !strings.Contains(err.Error(), "invalid start or end") {
		t.Errorf("expected range error, got %v", err)
	}
}

func TestYtdlpArgsFormatSelector(t *testing.T) {
	args := strings.Join(ytdlpArgs("https://youtu.be/abc", 720), " ")
	if !strings.Contains(args, "best[ext=mp4][height<=720]/best[height<=720]/best") {
		t.Errorf("unexpected format selector: %s", args)
	}
	if !strings.Contains(args, "-o - https://youtu.be/abc") {
		t.Errorf("expected stdout output target: %s", args)
	}
}

func TestFfmpegArgsCopyVersusEncode(t *testing.T) {
	copyArgs := strings.Join(ffmpegArgs(5, 20, "/tmp/out.mp4", true), " ")
	if !strings.Contains(copyArgs, "-c copy") {
		t.Errorf("copy mode missing stream copy: %s", copyArgs)
	}
	if !strings.Contains(copyArgs, "-ss 5.000 -t 20.000") {
		t.Errorf("copy mode missing trim: %s", copyArgs)
	}

	encodeArgs := strings.Join(ffmpegArgs(5, 20, "/tmp/out.mp4", false), " ")
	for _, want := range []string{"-c:v libx264", "-preset veryfast", "-crf 23", "-b:a 128k"} {
		if !strings.Contains(encodeArgs, want) {
			t.Errorf("encode mode missing %q: %s", want, encodeArgs)
		}
	}
	for _, joined := range []string{copyArgs, encodeArgs} {
		if !strings.Contains(joined, "-movflags +faststart -f mp4 /tmp/out.mp4") {
			t.Errorf("missing mp4 output tail: %s", joined)
		}
	}
}
