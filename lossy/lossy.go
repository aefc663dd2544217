// Package lossy implements the C7 lossy codec: MDCT analysis, masking-
// threshold-driven coefficient quantization and zeroing, and the
// overlap-add reconstruction that undoes 50%-overlapped block processing
// (spec §4.4, §4.5, §4.7).
package lossy

import (
	"math"

	"github.com/pkg/errors"

	"github.com/floaudio/flo/frame"
	"github.com/floaudio/flo/mdct"
	"github.com/floaudio/flo/psychoacoustic"
)

// binBands caches, per (n, sampleRate), the Bark band index owning each
// of the n frequency bins of an MDCT block, since BandForBin's linear
// scan would otherwise repeat across every coefficient of every frame.
var binBands = map[binBandsKey][]int{}

type binBandsKey struct {
	n          int
	sampleRate int
}

func bandsForBins(n, blockSamples, sampleRate int) []int {
	key := binBandsKey{n, sampleRate}
	if b, ok := binBands[key]; ok {
		return b
	}
	binHz := float64(sampleRate) / float64(blockSamples)
	bands := make([]int, n)
	for i := range bands {
		bands[i] = psychoacoustic.BandForBin(float64(i) * binHz)
	}
	binBands[key] = bands
	return bands
}

// Encoder holds the per-channel history a 50%-overlapped MDCT needs: the
// previous block's newest half, concatenated with the next call's new
// samples to form the 2N-sample analysis window, plus the per-channel
// masking-model history the psychoacoustic temporal decay depends on
// (spec §5).
type Encoder struct {
	sampleRate int
	quality    float64
	window     mdct.WindowShape
	prev       [][]float64            // per channel, length N
	models     []*psychoacoustic.Model // per channel
}

// NewEncoder returns an Encoder for numChannels channels at sampleRate,
// coding at the given quality in [0, 1] (spec §4.5). quality is the
// file's 0..4 lossy quality level normalized to that range.
func NewEncoder(numChannels, sampleRate int, quality uint8) *Encoder {
	if quality > 4 {
		quality = 4
	}
	models := make([]*psychoacoustic.Model, numChannels)
	for c := range models {
		models[c] = psychoacoustic.NewModel()
	}
	return &Encoder{
		sampleRate: sampleRate,
		quality:    float64(quality) / 4,
		window:     mdct.WindowVorbis,
		prev:       make([][]float64, numChannels),
		models:     models,
	}
}

// EncodeFrame transforms one hop of N new samples per channel (N ==
// blockSize.Coefficients()) into a TransformFrame. The first call after
// construction treats the missing previous block as silence, matching
// the container format's implicit pre-roll of zeros (spec §4.7). A
// short final hop is zero-padded to N rather than rejected.
func (e *Encoder) EncodeFrame(newSamples [][]float64, blockSize frame.BlockSizeTag) (*frame.TransformFrame, error) {
	n := blockSize.Coefficients()
	if len(newSamples) != len(e.prev) {
		return nil, errors.New("lossy: EncodeFrame channel count does not match encoder")
	}
	tf := &frame.TransformFrame{
		BlockSize:    blockSize,
		ScaleFactors: make([][frame.NumBarkBands]uint16, len(newSamples)),
		Coeffs:       make([][]int16, len(newSamples)),
	}

	tr := mdct.New(n)
	bands := bandsForBins(n, blockSize.Samples(), e.sampleRate)
	cutoff := psychoacoustic.SMRCutoffDB(e.quality)
	binHz := float64(e.sampleRate) / float64(blockSize.Samples())
	binFreq := func(k int) float64 { return float64(k) * binHz }

	for c, samples := range newSamples {
		if len(samples) > n {
			return nil, errors.Errorf("lossy: channel %d has %d samples, want at most %d", c, len(samples), n)
		}
		if len(samples) < n {
			padded := make([]float64, n)
			copy(padded, samples)
			samples = padded
		}

		prev := e.prev[c]
		if prev == nil {
			prev = make([]float64, n)
		}

		windowed := make([]float64, 2*n)
		copy(windowed, prev)
		copy(windowed[n:], samples)
		mdct.Apply(e.window, windowed)

		coeffs := tr.Forward(windowed, nil)
		scaleFactors, quantized := quantizeBins(e.models[c], coeffs, bands, cutoff, binFreq)

		tf.ScaleFactors[c] = scaleFactors
		tf.Coeffs[c] = quantized

		e.prev[c] = append([]float64(nil), samples...)
	}
	return tf, nil
}

// quantizeBins runs the masking model over coeffs, computes one scale
// factor per Bark band from that band's peak coefficient magnitude, and
// keeps or zeroes each individual bin by comparing its own
// signal-to-mask ratio against cutoffDB (spec §4.7 steps 3-5: the
// decision is per bin even though the scale factor is per band).
func quantizeBins(m *psychoacoustic.Model, coeffs []float64, bands []int, cutoffDB float64, binFreq func(int) float64) ([frame.NumBarkBands]uint16, []int16) {
	var bandMax [frame.NumBarkBands]float64
	for i, c := range coeffs {
		b := bands[i]
		if a := math.Abs(c); a > bandMax[b] {
			bandMax[b] = a
		}
	}

	thresholds := m.MaskingThreshold(coeffs, bands, binFreq)
	smr := psychoacoustic.SignalToMaskRatio(coeffs, thresholds)

	var scaleFactors [frame.NumBarkBands]uint16
	var scale [frame.NumBarkBands]float64
	for b := range scale {
		if bandMax[b] == 0 {
			continue
		}
		scale[b] = bandMax[b] / 32767
		scaleFactors[b] = frame.EncodeScaleFactor(scale[b])
	}

	quantized := make([]int16, len(coeffs))
	for i, c := range coeffs {
		if smr[i] < cutoffDB {
			continue
		}
		b := bands[i]
		if scale[b] == 0 {
			continue
		}
		v := math.Round(c / scale[b])
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		quantized[i] = int16(v)
	}
	return scaleFactors, quantized
}

// Decoder holds the per-channel overlap tail an inverse MDCT needs to
// reconstruct continuous audio from successive blocks (spec §4.7).
type Decoder struct {
	sampleRate int
	window     mdct.WindowShape
	tail       [][]float64 // per channel, length N; nil until the first block decodes
}

// NewDecoder returns a Decoder for numChannels channels at sampleRate.
func NewDecoder(numChannels, sampleRate int) *Decoder {
	return &Decoder{
		sampleRate: sampleRate,
		window:     mdct.WindowVorbis,
		tail:       make([][]float64, numChannels),
	}
}

// DecodeFrame inverts EncodeFrame, returning N reconstructed samples per
// channel. Decoding the first frame of a stream implicitly overlap-adds
// against a silent pre-roll, matching the encoder's initial state; the
// caller is responsible for dropping that first frame's output and for
// feeding a trailing all-zero flush frame to recover the last real hop
// (spec §4.7, §4.9).
func (d *Decoder) DecodeFrame(tf *frame.TransformFrame) ([][]float64, error) {
	n := tf.BlockSize.Coefficients()
	if len(tf.Coeffs) != len(d.tail) {
		return nil, errors.New("lossy: DecodeFrame channel count does not match decoder")
	}

	tr := mdct.New(n)
	bands := bandsForBins(n, tf.BlockSize.Samples(), d.sampleRate)
	out := make([][]float64, len(tf.Coeffs))
	for c, quantized := range tf.Coeffs {
		coeffs := dequantize(quantized, tf.ScaleFactors[c], bands)
		timeSamples := tr.Inverse(coeffs, nil)
		mdct.Apply(d.window, timeSamples)

		tail := d.tail[c]
		if tail == nil {
			tail = make([]float64, n)
		}

		samples := make([]float64, n)
		for i := 0; i < n; i++ {
			samples[i] = tail[i] + timeSamples[i]
		}
		out[c] = samples
		d.tail[c] = append([]float64(nil), timeSamples[n:]...)
	}
	return out, nil
}

func dequantize(quantized []int16, scaleFactors [frame.NumBarkBands]uint16, bands []int) []float64 {
	n := len(quantized)
	var scale [frame.NumBarkBands]float64
	for b, v := range scaleFactors {
		scale[b] = frame.DecodeScaleFactor(v)
	}

	coeffs := make([]float64, n)
	for i, q := range quantized {
		coeffs[i] = float64(q) * scale[bands[i]]
	}
	return coeffs
}
