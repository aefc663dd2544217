// Package analysis implements the C11 non-realtime analysis passes that
// ride alongside (but never gate) encode/decode: waveform summaries,
// spectral fingerprinting, and EBU R128 loudness measurement.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/floaudio/flo/meta"
)

// WaveformPeaks downsamples samples into pointCount buckets, each holding
// the bucket's peak absolute amplitude and RMS level, suitable for
// drawing a waveform view without decoding the full file (feeds
// meta.WaveformData).
func WaveformPeaks(samples []int32, pointCount int) *meta.WaveformData {
	if pointCount <= 0 || len(samples) == 0 {
		return &meta.WaveformData{SamplesPerPoint: 0}
	}
	samplesPerPoint := (len(samples) + pointCount - 1) / pointCount
	peaks := make([]float32, 0, pointCount)
	rms := make([]float32, 0, pointCount)

	for start := 0; start < len(samples); start += samplesPerPoint {
		end := start + samplesPerPoint
		if end > len(samples) {
			end = len(samples)
		}
		squares := make([]float64, end-start)
		var peak float64
		for i, s := range samples[start:end] {
			v := float64(s) / 32768
			squares[i] = v * v
			if a := abs(v); a > peak {
				peak = a
			}
		}
		peaks = append(peaks, float32(peak))
		rms = append(rms, float32(math.Sqrt(stat.Mean(squares, nil))))
	}

	return &meta.WaveformData{
		SamplesPerPoint: uint32(samplesPerPoint),
		Peaks:           peaks,
		Rms:             rms,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
