package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/subtitles"
)

func TestLayoutPaths(t *testing.T) {
	l := NewLayout("/data/jobs")
	if got := l.JobDir("job-1"); got != "/data/jobs/job-1" {
		t.Errorf("JobDir = %q", got)
	}
	if got := l.TranscriptPath("job-1"); got != "/data/jobs/job-1/transcript.json" {
		t.Errorf("TranscriptPath = %q", got)
	}
	if got := l.ClipVideoPath("job-1", "clip-a"); got != "/data/jobs/job-1/clip-clip-a.mp4" {
		t.Errorf("ClipVideoPath = %q", got)
	}
	if got := l.ClipSRTPath("job-1", "c1"); got != "/data/jobs/job-1/clip-c1.srt" {
		t.Errorf("ClipSRTPath = %q", got)
	}
	if got := l.ClipVTTPath("job-1", "c1"); got != "/data/jobs/job-1/clip-c1.vtt" {
		t.Errorf("ClipVTTPath = %q", got)
	}
}

func TestTranscriptRoundTrip(t *testing.T) {
	l := NewLayout(t.TempDir())
	transcript := subtitles.Transcript{
		Language: "es",
		Segments: []subtitles.Segment{{Start: 0, End: 4, Text: "hola"}},
	}
	if err := l.WriteTranscript("job-1", transcript); err != nil {
		t.Fatalf("write transcript: %v", err)
	}

	got, err := l.ReadTranscript("job-1")
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if got.Language != "es" || len(got.Segments) != 1 || got.Segments[0].Text != "hola" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestReadTranscriptMissing(t *testing.T) {
	l := NewLayout(t.TempDir())
	_, err := l.ReadTranscript("absent")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestWriteCaptionsProducesBothFormats(t *testing.T) {
	l := NewLayout(t.TempDir())
	srt := "1\n00:00:01,000 --> 00:00:03,000\nhola mundo\n"
	if err := l.WriteCaptions("job-1", "c1", srt); err != nil {
		t.Fatalf("write captions: %v", err)
	}

	vtt, err := os.ReadFile(l.ClipVTTPath("job-1", "c1"))
	if err != nil {
		t.Fatalf("read vtt: %v", err)
	}
	if !strings.HasPrefix(string(vtt), "WEBVTT\n\n") {
		t.Errorf("vtt missing header: %q", vtt)
	}
	if !strings.Contains(string(vtt), "00:00:01.000 --> 00:00:03.000") {
		t.Errorf("vtt timestamps not rewritten: %q", vtt)
	}
	if !Exists(l.ClipSRTPath("job-1", "c1")) {
		t.Error("srt file missing")
	}
}

func TestRemoveJobDir(t *testing.T) {
	l := NewLayout(t.TempDir())
	if _, err := l.EnsureJobDir("job-1"); err != nil {
		t.Fatalf("ensure job dir: %v", err)
	}
	if err := l.RemoveJobDir("job-1"); err != nil {
		t.Fatalf("remove job dir: %v", err)
	}
	if _, err := os.Stat(l.JobDir("job-1")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("job dir still present: %v", err)
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	payload := strings.Repeat("clipforge", 1024)
	if err := os.WriteFile(src, []byte(payload), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("verified copy: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(data) != payload {
		t.Error("copied payload differs")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(filepath.Join(dir, "missing")) {
		t.Error("missing file reported as existing")
	}
	if Exists(dir) {
		t.Error("directory reported as regular file")
	}
	path := filepath.Join(dir, "present")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if !Exists(path) {
		t.Error("existing file not reported")
	}
}
