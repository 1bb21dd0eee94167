package subtitles_test

import (
	"math"
	"strings"
	"testing"

	"clipforge/internal/subtitles"
)

func TestFormatSRT(t *testing.T) {
	transcript := subtitles.Transcript{
		Language: "es",
		Segments: []subtitles.Segment{
			{Start: 0, End: 5, Text: "hola clipforge"},
			{Start: 5, End: 12.5, Text: "momento clave"},
		},
	}
	got := subtitles.FormatSRT(transcript)
	want := "1\n00:00:00,000 --> 00:00:05,000\nhola clipforge\n\n2\n00:00:05,000 --> 00:00:12,500\nmomento clave\n"
	if got != want {
		t.Fatalf("unexpected srt:\n%q\nwant\n%q", got, want)
	}
}

func TestSRTToVTTOnlyRewritesTimestamps(t *testing.T) {
	transcript := subtitles.Transcript{
		Segments: []subtitles.Segment{{Start: 1.25, End: 3, Text: "wait, what?"}},
	}
	vtt := subtitles.SRTToVTT(subtitles.FormatSRT(transcript))
	if !strings.HasPrefix(vtt, "WEBVTT\n\n") {
		t.Fatalf("missing header: %q", vtt)
	}
	if !strings.Contains(vtt, "00:00:01.250 --> 00:00:03.000") {
		t.Fatalf("timestamp not rewritten: %q", vtt)
	}
	if !strings.Contains(vtt, "wait, what?") {
		t.Fatalf("cue text comma must survive: %q", vtt)
	}
}

func TestParseSRTRoundTrip(t *testing.T) {
	original := subtitles.Transcript{
		Language: "en",
		Segments: []subtitles.Segment{
			{Start: 0, End: 4.2, Text: "first line"},
			{Start: 4.2, End: 9, Text: "second line"},
		},
	}
	parsed := subtitles.ParseSRT(subtitles.FormatSRT(original), "en")
	if len(parsed.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(parsed.Segments))
	}
	for i, segment := range parsed.Segments {
		if math.Abs(segment.Start-original.Segments[i].Start) > 0.001 ||
			math.Abs(segment.End-original.Segments[i].End) > 0.001 {
			t.Fatalf("segment %d timing drifted: %+v", i, segment)
		}
		if segment.Text != original.Segments[i].Text {
			t.Fatalf("segment %d text: %q", i, segment.Text)
		}
	}
}

func TestParseSRTShortAndLongFractions(t *testing.T) {
	srt := "1\n00:00:01,5 --> 00:00:02.25\nshort fraction\n\n2\n00:00:03,123456 --> 00:00:04,000\nlong fraction\n"
	parsed := subtitles.ParseSRT(srt, "en")
	if len(parsed.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(parsed.Segments))
	}
	first := parsed.Segments[0]
	if math.Abs(first.Start-1.5) > 0.001 || math.Abs(first.End-2.25) > 0.001 {
		t.Fatalf("short fractions misread: start=%v end=%v", first.Start, first.End)
	}
	second := parsed.Segments[1]
	if math.Abs(second.Start-3.123) > 0.001 {
		t.Fatalf("long fraction should truncate to milliseconds: start=%v", second.Start)
	}
}

func TestParseSRTSkipsMalformedBlocks(t *testing.T) {
	srt := "1\nnot a timestamp\ntext\n\n2\n00:00:01,000 --> 00:00:02,000\nkept\n"
	parsed := subtitles.ParseSRT(srt, "en")
	if len(parsed.Segments) != 1 || parsed.Segments[0].Text != "kept" {
		t.Fatalf("unexpected parse result: %+v", parsed.Segments)
	}
}

func TestSliceRebasesTimestamps(t *testing.T) {
	transcript := subtitles.Transcript{
		Language: "en",
		Segments: []subtitles.Segment{
			{Start: 0, End: 5, Text: "before"},
			{Start: 8, End: 14, Text: "inside"},
			{Start: 14, End: 20, Text: "tail"},
			{Start: 25, End: 30, Text: "after"},
		},
	}
	sliced := transcript.Slice(8, 20)
	if len(sliced.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", sliced.Segments)
	}
	if sliced.Segments[0].Start != 0 || sliced.Segments[0].End != 6 {
		t.Fatalf("unexpected rebased first segment: %+v", sliced.Segments[0])
	}
	if sliced.Segments[1].Start != 6 || sliced.Segments[1].End != 12 {
		t.Fatalf("unexpected rebased second segment: %+v", sliced.Segments[1])
	}
}

func TestSliceClampsPartialOverlapToZero(t *testing.T) {
	transcript := subtitles.Transcript{
		Segments: []subtitles.Segment{{Start: 3, End: 9, Text: "straddle"}},
	}
	sliced := transcript.Slice(5, 12)
	if len(sliced.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(sliced.Segments))
	}
	if sliced.Segments[0].Start != 0 {
		t.Fatalf("expected clamped start 0, got %f", sliced.Segments[0].Start)
	}
}

func TestDurationAndShift(t *testing.T) {
	var empty subtitles.Transcript
	if empty.Duration() != 0 {
		t.Fatal("expected zero duration for empty transcript")
	}
	transcript := subtitles.Transcript{Segments: []subtitles.Segment{{Start: 0, End: 7, Text: "x"}}}
	if transcript.Duration() != 7 {
		t.Fatalf("unexpected duration: %f", transcript.Duration())
	}
	shifted := transcript.Shift(30)
	if shifted.Segments[0].Start != 30 || shifted.Segments[0].End != 37 {
		t.Fatalf("unexpected shift: %+v", shifted.Segments[0])
	}
}
