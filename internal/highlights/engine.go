package highlights

import (
	"math"

	"clipforge/internal/store"
	"clipforge/internal/subtitles"
)

// nmsOverlap is the max intersection-over-union ratio two kept highlights may
// share before the lower-scored one is discarded.
const nmsOverlap = 0.25

// energyRunThreshold marks a sample as part of a sustained loud run.
const energyRunThreshold = 0.35

// Input carries everything the engine needs to pick highlights. Transcript
// and Energy are both optional; at least one must be present to get any
// candidates.
type Input struct {
	Transcript *subtitles.Transcript
	Energy     []EnergySample
	ClipCount  int
	Preset     store.DurationPreset
}

// Detect runs the full hybrid pipeline: candidate generation from transcript
// windows and energy runs, scoring, silence trimming, duration filtering, and
// overlap suppression. Results come back ordered by score descending, at most
// max(1, ClipCount) of them.
func Detect(input Input) []Segment {
	bounds := RangeForPreset(input.Preset)

	var candidates []Segment
	if input.Transcript != nil {
		candidates = append(candidates, transcriptCandidates(input.Transcript, bounds)...)
	}
	if len(input.Energy) > 0 {
		candidates = append(candidates, energyCandidates(input.Energy, bounds)...)
	}
	if len(candidates) == 0 {
		return nil
	}

	ranked := Rank(candidates, input.Transcript, input.Energy)
	trimmed := make([]Segment, 0, len(ranked))
	for _, segment := range ranked {
		trimmed = append(trimmed, TrimSilence(segment, input.Energy))
	}

	filtered := trimmed[:0]
	for _, segment := range trimmed {
		if d := segment.Duration(); d >= bounds.Min && d <= bounds.Max {
			filtered = append(filtered, segment)
		}
	}

	reduced := NonMaxSuppression(filtered, nmsOverlap)
	return truncate(reduced, input.ClipCount)
}

// DetectFromTranscript is the streaming-mode path: no media file, so
// candidates come from fixed sliding windows over the transcript and scoring
// runs with no audio signal.
func DetectFromTranscript(transcript *subtitles.Transcript, clipCount int, preset store.DurationPreset) []Segment {
	if transcript == nil {
		return nil
	}
	bounds := RangeForPreset(preset)
	windows := slidingWindows(transcript, bounds)
	if len(windows) == 0 {
		return nil
	}
	ranked := Rank(windows, transcript, nil)
	reduced := NonMaxSuppression(ranked, nmsOverlap)
	return truncate(reduced, clipCount)
}

func truncate(segments []Segment, clipCount int) []Segment {
	limit := max(1, clipCount)
	if len(segments) > limit {
		return segments[:limit]
	}
	return segments
}

// transcriptCandidates grows a window from every cue boundary, emitting one
// candidate per cue that lands inside the duration bounds. Overlapping
// candidates are expected; suppression happens later.
func transcriptCandidates(transcript *subtitles.Transcript, bounds DurationRange) []Segment {
	segments := transcript.Segments
	var candidates []Segment
	for cursor := range segments {
		start := segments[cursor].Start
		end := start
		for idx := cursor; idx < len(segments) && end-start < bounds.Max; idx++ {
			end = segments[idx].End
			if end-start >= bounds.Min {
				candidates = append(candidates, Segment{Start: start, End: end})
			}
		}
	}
	return candidates
}

// energyCandidates finds sustained loud runs and turns them into candidates.
// Runs shorter than the minimum are dropped, runs inside the bounds are kept
// whole, and longer runs are chopped into max-length windows advanced by the
// minimum so the tail still gets coverage.
func energyCandidates(energy []EnergySample, bounds DurationRange) []Segment {
	type run struct{ start, end float64 }
	var runs []run
	activeStart := math.NaN()

	for _, sample := range energy {
		if sample.Value >= energyRunThreshold && math.IsNaN(activeStart) {
			activeStart = sample.T
		}
		if sample.Value < energyRunThreshold && !math.IsNaN(activeStart) {
			runs = append(runs, run{start: activeStart, end: sample.T})
			activeStart = math.NaN()
		}
	}
	if !math.IsNaN(activeStart) {
		runs = append(runs, run{start: activeStart, end: energy[len(energy)-1].T})
	}

	var candidates []Segment
	for _, r := range runs {
		length := r.end - r.start
		if length < bounds.Min {
			continue
		}
		if length <= bounds.Max {
			candidates = append(candidates, Segment{Start: r.start, End: r.end})
			continue
		}
		for cursor := r.start; cursor+bounds.Max <= r.end; cursor += bounds.Min {
			candidates = append(candidates, Segment{Start: cursor, End: cursor + bounds.Max})
		}
	}
	return candidates
}

// slidingWindows tiles the transcript duration with fixed-size windows
// stepped by half a window, floored at six seconds.
func slidingWindows(transcript *subtitles.Transcript, bounds DurationRange) []Segment {
	var total float64
	if n := len(transcript.Segments); n > 0 {
		total = transcript.Segments[n-1].End
	}
	windowSize := min(bounds.Max, max(bounds.Min, 18))
	step := max(6, math.Floor(windowSize/2))
	var windows []Segment
	for start := 0.0; start+windowSize <= total; start += step {
		windows = append(windows, Segment{Start: start, End: start + windowSize})
	}
	return windows
}
