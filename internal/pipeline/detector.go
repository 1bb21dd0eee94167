package pipeline

import (
	"context"

	"clipforge/internal/highlights"
	"clipforge/internal/render"
	"clipforge/internal/store"
	"clipforge/internal/subtitles"
)

// HybridDetector combines the transcript with an audio energy profile
// extracted from the local file. Energy analysis failures are tolerated: the
// engine still has the transcript signal to work with.
type HybridDetector struct {
	Analyzer *render.Renderer
}

// Detect implements Detector using the full hybrid candidate set.
func (d *HybridDetector) Detect(ctx context.Context, inputPath string, transcript subtitles.Transcript, clipCount int, preset store.DurationPreset) ([]highlights.Segment, error) {
	var energy []highlights.EnergySample
	if d.Analyzer != nil {
		if samples, err := d.Analyzer.AnalyzeEnergy(ctx, inputPath); err == nil {
			energy = samples
		}
	}
	return highlights.Detect(highlights.Input{
		Transcript: &transcript,
		Energy:     energy,
		ClipCount:  clipCount,
		Preset:     preset,
	}), nil
}

var _ Detector = (*HybridDetector)(nil)
