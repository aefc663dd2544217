package analysis

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/floaudio/flo/psychoacoustic"
)

// SpectralFingerprint is the compact fingerprint variant (spec §9 open
// question, decided in favor of the compact form): a content hash plus
// per-Bark-band energy, cheap to compare for near-duplicate detection
// without carrying a full spectrogram.
type SpectralFingerprint struct {
	Hash         [32]byte
	BandEnergies [psychoacoustic.NumBands]float32
}

// ComputeFingerprint analyzes one channel of PCM at sampleRate: the hash
// covers the raw samples (so bit-identical audio always matches), and the
// band energies are the mean FFT magnitude-squared per Bark band across
// the whole signal, downsampled into fixed-size windows.
func ComputeFingerprint(samples []int32, sampleRate int) SpectralFingerprint {
	fp := SpectralFingerprint{Hash: hashSamples(samples)}

	const windowSize = 4096
	if len(samples) < windowSize {
		return fp
	}

	fft := fourier.NewFFT(windowSize)
	var bandSums [psychoacoustic.NumBands]float64
	var bandCounts [psychoacoustic.NumBands]int
	binHz := float64(sampleRate) / float64(windowSize)

	windowed := make([]float64, windowSize)
	for start := 0; start+windowSize <= len(samples); start += windowSize {
		for i := 0; i < windowSize; i++ {
			windowed[i] = float64(samples[start+i])
		}
		coeffs := fft.Coefficients(nil, windowed)
		for i, c := range coeffs {
			mag := real(c)*real(c) + imag(c)*imag(c)
			band := psychoacoustic.BandForBin(float64(i) * binHz)
			bandSums[band] += mag
			bandCounts[band]++
		}
	}

	for b := range fp.BandEnergies {
		if bandCounts[b] > 0 {
			fp.BandEnergies[b] = float32(bandSums[b] / float64(bandCounts[b]))
		}
	}
	return fp
}

func hashSamples(samples []int32) [32]byte {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(s))
	}
	return sha256.Sum256(buf)
}

// Similarity returns a 0..1 score for how close two fingerprints' band
// energies are (1 means identical energy distribution), using cosine
// similarity over the per-band energy vectors. It ignores the content
// hash, which is only useful for exact-match detection.
func Similarity(a, b SpectralFingerprint) float64 {
	var dot, normA, normB float64
	for i := range a.BandEnergies {
		av := float64(a.BandEnergies[i])
		bv := float64(b.BandEnergies[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DominantFrequencies returns the top n frequency bins by magnitude in a
// single FFT window taken from the start of samples, in Hz, descending
// by magnitude.
func DominantFrequencies(samples []int32, sampleRate, n int) []float64 {
	windowSize := 4096
	if len(samples) < windowSize {
		windowSize = len(samples)
	}
	if windowSize == 0 {
		return nil
	}
	fft := fourier.NewFFT(windowSize)
	windowed := make([]float64, windowSize)
	for i := range windowed {
		windowed[i] = float64(samples[i])
	}
	coeffs := fft.Coefficients(nil, windowed)

	type bin struct {
		hz  float64
		mag float64
	}
	bins := make([]bin, len(coeffs))
	binHz := float64(sampleRate) / float64(windowSize)
	for i, c := range coeffs {
		bins[i] = bin{hz: float64(i) * binHz, mag: real(c)*real(c) + imag(c)*imag(c)}
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].mag > bins[j].mag })

	if n > len(bins) {
		n = len(bins)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = bins[i].hz
	}
	return out
}
