// Package mdct implements the modified discrete cosine transform used by
// the lossy codec's C4 component, plus the analysis windows applied before
// the forward transform and during overlap-add reconstruction after the
// inverse transform.
package mdct

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowShape names the analysis/synthesis window applied to an MDCT
// block (spec §4.4, §4.7). Sine is the zero value; Vorbis and KBD trade a
// narrower main lobe for different stopband behavior. The lossy codec in
// this module always uses Vorbis.
type WindowShape uint8

// Window shapes.
const (
	WindowSine WindowShape = iota
	WindowVorbis
	WindowKBD
)

// Apply multiplies samples in place by the named window of the same
// length.
func Apply(shape WindowShape, samples []float64) {
	w := Coefficients(shape, len(samples))
	for i, v := range w {
		samples[i] *= v
	}
}

// coeffCache memoizes window coefficient slices by (shape, length), since
// every block of a given size reuses the same window.
var coeffCache = map[windowKey][]float64{}

type windowKey struct {
	shape WindowShape
	n     int
}

// Coefficients returns the n-sample window for shape, computing and
// caching it on first use.
func Coefficients(shape WindowShape, n int) []float64 {
	key := windowKey{shape, n}
	if w, ok := coeffCache[key]; ok {
		return w
	}
	var w []float64
	switch shape {
	case WindowVorbis:
		w = vorbisWindow(n)
	case WindowKBD:
		w = kbdWindow(n, 4.0)
	default:
		w = make([]float64, n)
		for i := range w {
			w[i] = math.Sin(math.Pi / float64(n) * (float64(i) + 0.5))
		}
	}
	coeffCache[key] = w
	return w
}

// vorbisWindow builds the window Vorbis I uses for long blocks:
// sin(pi/2 * sin^2(pi*(n+0.5)/N)), which satisfies the Princen-Bradley TDAC
// condition with a steeper rolloff than the plain sine window.
func vorbisWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		s := math.Sin(math.Pi / float64(n) * (float64(i) + 0.5))
		w[i] = math.Sin(math.Pi / 2 * s * s)
	}
	return w
}

// kbdWindow builds a Kaiser-Bessel derived window with shape parameter
// alpha, by cumulative-summing a half-length Kaiser window's squared
// magnitude and taking square roots (the standard KBD construction used
// by AAC and the original implementation's "start/stop" block transitions).
func kbdWindow(n int, alpha float64) []float64 {
	half := n / 2
	kaiser := make([]float64, half+1)
	for i := range kaiser {
		kaiser[i] = 1
	}
	window.Kaiser(kaiser, alpha*math.Pi)

	sum := make([]float64, half+1)
	var acc float64
	for i := 0; i <= half; i++ {
		acc += kaiser[i] * kaiser[i]
		sum[i] = acc
	}
	total := sum[half]

	w := make([]float64, n)
	for i := 0; i < half; i++ {
		w[i] = math.Sqrt(sum[i] / total)
	}
	for i := half; i < n; i++ {
		w[i] = math.Sqrt(sum[n-1-i] / total)
	}
	return w
}
