package subtitles

// Segment is one timed line of transcript text. Times are seconds from the
// start of the source.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the timestamped text produced by a transcription provider.
// Segments are ordered by start and non-overlapping by convention, but
// consumers tolerate overlap.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Duration returns the end time of the final segment, or 0 when empty.
func (t Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// Slice returns the portion of the transcript overlapping [start, end] with
// timestamps re-based so the slice starts at 0.
func (t Transcript) Slice(start, end float64) Transcript {
	var segments []Segment
	for _, segment := range t.Segments {
		if segment.End < start || segment.Start > end {
			continue
		}
		segments = append(segments, Segment{
			Start: max(0, segment.Start-start),
			End:   max(0, segment.End-start),
			Text:  segment.Text,
		})
	}
	return Transcript{Language: t.Language, Segments: segments}
}

// Shift returns a copy with every segment offset forward by offset seconds.
func (t Transcript) Shift(offset float64) Transcript {
	if offset == 0 {
		return t
	}
	segments := make([]Segment, len(t.Segments))
	for i, segment := range t.Segments {
		segments[i] = Segment{
			Start: segment.Start + offset,
			End:   segment.End + offset,
			Text:  segment.Text,
		}
	}
	return Transcript{Language: t.Language, Segments: segments}
}
