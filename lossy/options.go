package lossy

import "math"

// QualityPreset names the coarse quality tiers a caller can pick from
// instead of supplying a raw [0,1] quality float, mirroring the named
// presets ("low", "medium", "high", "veryhigh", "transparent") the
// original implementation's CLI exposed.
type QualityPreset int

// Quality presets and their underlying [0,1] quality values.
const (
	PresetLow QualityPreset = iota
	PresetMedium
	PresetHigh
	PresetVeryHigh
	PresetTransparent
)

var presetQuality = map[QualityPreset]float64{
	PresetLow:         0.2,
	PresetMedium:      0.4,
	PresetHigh:        0.6,
	PresetVeryHigh:    0.8,
	PresetTransparent: 1.0,
}

// Quality returns the preset's underlying [0,1] quality value.
func (p QualityPreset) Quality() float64 {
	if q, ok := presetQuality[p]; ok {
		return q
	}
	return presetQuality[PresetMedium]
}

// Options configures a lossy encoding run in terms of a continuous
// quality value rather than the header's coarse 0..4 level; HeaderLevel
// quantizes it down to that level.
type Options struct {
	Quality float64 // 0..1
}

// DefaultOptions returns Options at the medium preset.
func DefaultOptions() Options {
	return Options{Quality: PresetMedium.Quality()}
}

// WithPreset returns a copy of o with Quality set from preset.
func (o Options) WithPreset(preset QualityPreset) Options {
	o.Quality = preset.Quality()
	return o
}

// HeaderLevel quantizes Quality down to the header's 0..4 lossy quality
// field (spec §3.1).
func (o Options) HeaderLevel() uint8 {
	q := o.Quality
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}
	return uint8(math.Round(q * 4))
}

// QualityForBitrate picks a quality value that approximates a target
// bitrate, by assuming the sparse-coded payload's size scales roughly
// linearly with how few bands the masking model zeroes — the same
// heuristic the original implementation used to satisfy a target kbps
// rather than a quality level directly. The mapping is necessarily
// approximate: actual achieved bitrate still depends on program material.
func QualityForBitrate(kbps float64, sampleRate, channels int) float64 {
	// A rough reference point: ~64 kbps/channel at 44.1 kHz lands near
	// transparent quality for this codec's band allocation; scale
	// linearly from there and clamp to [0, 1].
	referenceKbps := 64.0 * float64(channels) * float64(sampleRate) / 44100.0
	q := kbps / referenceKbps
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}
	return q
}
