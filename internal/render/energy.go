package render

import (
	"context"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"clipforge/internal/highlights"
)

// Normalized loudness values assigned per one-second sample. silencedetect is
// binary, so the profile only distinguishes quiet from active audio.
const (
	silentSampleValue = 0.12
	activeSampleValue = 0.72
)

var (
	silenceStartPattern = regexp.MustCompile(`silence_start: ([0-9.]+)`)
	silenceEndPattern   = regexp.MustCompile(`silence_end: ([0-9.]+)`)
)

type silenceInterval struct {
	start float64
	end   float64
}

// AnalyzeEnergy builds a one-sample-per-second loudness profile for the media
// at path by running ffmpeg's silencedetect filter over it.
func (r *Renderer) AnalyzeEnergy(ctx context.Context, path string) ([]highlights.EnergySample, error) {
	duration, err := Duration(ctx, r.ffprobe, path)
	if err != nil {
		return nil, err
	}
	silences := r.detectSilence(ctx, path)
	return buildEnergyProfile(duration, silences), nil
}

func buildEnergyProfile(duration float64, silences []silenceInterval) []highlights.EnergySample {
	total := int(math.Ceil(duration))
	samples := make([]highlights.EnergySample, 0, total+1)
	for t := 0; t <= total; t++ {
		value := activeSampleValue
		for _, interval := range silences {
			if float64(t) >= interval.start && float64(t) <= interval.end {
				value = silentSampleValue
				break
			}
		}
		samples = append(samples, highlights.EnergySample{T: float64(t), Value: value})
	}
	return samples
}

// detectSilence parses silence_start/silence_end pairs out of ffmpeg's
// stderr. ffmpeg exits nonzero for null-muxer quirks on some inputs, so the
// exit status is ignored and whatever intervals were reported are used.
func (r *Renderer) detectSilence(ctx context.Context, path string) []silenceInterval {
	cmd := exec.CommandContext(ctx, r.ffmpeg, "-i", path, "-af", "silencedetect=n=-30dB:d=0.35", "-f", "null", "-")
	output, _ := cmd.CombinedOutput()
	return parseSilences(string(output))
}

func parseSilences(output string) []silenceInterval {
	var intervals []silenceInterval
	currentStart := math.NaN()
	for _, line := range strings.Split(output, "\n") {
		if m := silenceStartPattern.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				currentStart = v
			}
		}
		if m := silenceEndPattern.FindStringSubmatch(line); m != nil && !math.IsNaN(currentStart) {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				intervals = append(intervals, silenceInterval{start: currentStart, end: v})
				currentStart = math.NaN()
			}
		}
	}
	return intervals
}
