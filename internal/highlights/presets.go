package highlights

import "clipforge/internal/store"

// DurationRange bounds clip length in seconds for a duration preset.
type DurationRange struct {
	Min float64
	Max float64
}

var presetRanges = map[store.DurationPreset]DurationRange{
	store.PresetShort:  {Min: 12, Max: 22},
	store.PresetNormal: {Min: 18, Max: 32},
	store.PresetLong:   {Min: 30, Max: 45},
}

// RangeForPreset returns the clip duration bounds for preset. Unknown presets
// fall back to the normal range.
func RangeForPreset(preset store.DurationPreset) DurationRange {
	if r, ok := presetRanges[preset]; ok {
		return r
	}
	return presetRanges[store.PresetNormal]
}
