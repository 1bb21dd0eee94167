package highlights

import "sort"

// Segment is a scored time interval considered clip-worthy. End is always
// greater than Start.
type Segment struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// OverlapRatio computes intersection length over union length for two
// segments; 0 when the union is empty.
func OverlapRatio(a, b Segment) float64 {
	overlap := min(a.End, b.End) - max(a.Start, b.Start)
	if overlap < 0 {
		overlap = 0
	}
	union := max(a.End, b.End) - min(a.Start, b.Start)
	if union == 0 {
		return 0
	}
	return overlap / union
}

// NonMaxSuppression greedily keeps segments whose overlap ratio against every
// already-kept segment stays below maxOverlap. Input must be sorted by score
// descending; the highest-scoring segment of any overlapping cluster always
// survives.
func NonMaxSuppression(segments []Segment, maxOverlap float64) []Segment {
	kept := make([]Segment, 0, len(segments))
	for _, segment := range segments {
		conflict := false
		for _, existing := range kept {
			if OverlapRatio(existing, segment) >= maxOverlap {
				conflict = true
				break
			}
		}
		if !conflict {
			kept = append(kept, segment)
		}
	}
	return kept
}

// MergeSegments combines segments whose start falls within one second of the
// previous segment's end, taking the max end and max score. The result is
// ordered by start.
func MergeSegments(segments []Segment) []Segment {
	if len(segments) == 0 {
		return nil
	}
	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []Segment{sorted[0]}
	for _, next := range sorted[1:] {
		last := &merged[len(merged)-1]
		if next.Start <= last.End+1 {
			last.End = max(last.End, next.End)
			last.Score = max(last.Score, next.Score)
			if last.Reason == "" {
				last.Reason = next.Reason
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}
