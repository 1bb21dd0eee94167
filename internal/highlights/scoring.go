package highlights

import (
	"regexp"
	"sort"
	"strings"

	"clipforge/internal/subtitles"
)

// EnergySample is a normalized loudness reading at time T seconds. Value is
// in [0, 1].
type EnergySample struct {
	T     float64 `json:"t"`
	Value float64 `json:"value"`
}

// Spanish-language creator vocabulary that tends to mark clip-worthy moments.
var keywords = map[string]struct{}{
	"clave":      {},
	"importante": {},
	"impacto":    {},
	"secreto":    {},
	"historia":   {},
	"idea":       {},
	"tip":        {},
	"ejemplo":    {},
	"truco":      {},
	"wow":        {},
	"increible":  {},
	"resultado":  {},
	"urgente":    {},
	"ahora":      {},
}

const (
	audioWeight = 0.55
	textWeight  = 0.45
)

var nonWordPattern = regexp.MustCompile(`[^a-z0-9\s!?]`)

// Rank scores each candidate against the transcript and energy profile and
// returns them ordered by score descending. Either transcript or energy may
// be absent; the missing signal contributes zero.
func Rank(candidates []Segment, transcript *subtitles.Transcript, energy []EnergySample) []Segment {
	ranked := make([]Segment, 0, len(candidates))
	for _, segment := range candidates {
		var audioScore float64
		if len(energy) > 0 {
			audioScore = averageEnergy(segment, energy)
		}
		var textScore float64
		if transcript != nil {
			textScore = transcriptScore(segment, transcript)
		}
		segment.Score = audioScore*audioWeight + textScore*textWeight
		segment.Reason = buildReason(audioScore, segment, transcript)
		ranked = append(ranked, segment)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

func buildReason(audioScore float64, segment Segment, transcript *subtitles.Transcript) string {
	var parts []string
	if audioScore > 0.55 {
		parts = append(parts, "audio peak")
	}
	if keyword := pickKeyword(segment, transcript); keyword != "" {
		parts = append(parts, "keyword: "+keyword)
	}
	if len(parts) == 0 {
		parts = append(parts, "balanced energy")
	}
	return strings.Join(parts, " + ")
}

// TrimSilence tightens a segment to its first and last energetic samples.
// When trimming would drop the segment under six seconds the original bounds
// are kept.
func TrimSilence(segment Segment, energy []EnergySample) Segment {
	if len(energy) == 0 {
		return segment
	}
	const threshold = 0.2

	window := energyWindow(segment, energy)
	start := segment.Start
	end := segment.End
	for _, sample := range window {
		if sample.Value >= threshold {
			start = sample.T
			break
		}
	}
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Value >= threshold {
			end = window[i].T
			break
		}
	}

	if end-start < 6 {
		return segment
	}
	segment.Start = start
	segment.End = end
	return segment
}

func averageEnergy(segment Segment, samples []EnergySample) float64 {
	window := energyWindow(segment, samples)
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, sample := range window {
		sum += sample.Value
	}
	return sum / float64(len(window))
}

func energyWindow(segment Segment, samples []EnergySample) []EnergySample {
	window := make([]EnergySample, 0, len(samples))
	for _, sample := range samples {
		if sample.T >= segment.Start && sample.T <= segment.End {
			window = append(window, sample)
		}
	}
	return window
}

func transcriptScore(segment Segment, transcript *subtitles.Transcript) float64 {
	text := windowText(segment, transcript)
	if text == "" {
		return 0
	}
	words := tokenize(text)
	density := float64(len(words)) / max(1, segment.End-segment.Start)
	hits := keywordHits(words)
	excitement := excitementScore(text)
	return clamp01(density/3)*0.5 + clamp01(float64(hits)/6)*0.3 + clamp01(float64(excitement)/3)*0.2
}

func pickKeyword(segment Segment, transcript *subtitles.Transcript) string {
	if transcript == nil {
		return ""
	}
	for _, word := range tokenize(windowText(segment, transcript)) {
		if _, ok := keywords[word]; ok {
			return word
		}
	}
	return ""
}

func windowText(segment Segment, transcript *subtitles.Transcript) string {
	var parts []string
	for _, s := range transcript.Segments {
		if s.End >= segment.Start && s.Start <= segment.End {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}

func tokenize(text string) []string {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(text), " ")
	return strings.Fields(cleaned)
}

func keywordHits(words []string) int {
	hits := 0
	for _, word := range words {
		if _, ok := keywords[word]; ok {
			hits++
		}
	}
	return hits
}

func excitementScore(text string) int {
	return strings.Count(text, "!") + strings.Count(text, "?")
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
