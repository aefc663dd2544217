// Package lpc implements the integer linear-predictive coding engine:
// autocorrelation, Levinson-Durbin coefficient solving, fixed (Laplace
// finite-difference) predictors, and the integer residual/reconstruction
// arithmetic that keeps lossless round trips bit-exact across platforms.
package lpc

import "math"

// MaxOrder is the largest adaptive LPC order the container format can
// express (frame type byte 1..=12, spec §3.1 invariant 6).
const MaxOrder = 12

// Autocorrelate computes the autocorrelation of an integer sample vector
// for lags 0..=maxLag using 64-bit accumulation to avoid overflow on long
// one-second frames (spec §4.3).
func Autocorrelate(samples []int32, maxLag int) []int64 {
	n := len(samples)
	out := make([]int64, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		var sum int64
		for i := 0; i+lag < n; i++ {
			sum += int64(samples[i]) * int64(samples[i+lag])
		}
		out[lag] = sum
	}
	return out
}

// LevinsonDurbin solves for order LPC coefficients from an autocorrelation
// vector (autocorr[0..=order]) using the classic recursive algorithm in
// floating point for numerical stability (spec §4.3). It reports ok=false
// if at any step the reflection coefficient has magnitude >= 1, meaning
// the predictor is unstable and the attempt must be abandoned.
func LevinsonDurbin(autocorr []int64, order int) (coeffs []float64, ok bool) {
	if order == 0 || len(autocorr) <= order {
		return nil, order == 0
	}

	e := float64(autocorr[0])
	if e == 0 {
		return nil, false
	}

	a := make([]float64, order)
	prev := make([]float64, order)
	for i := 0; i < order; i++ {
		acc := float64(autocorr[i+1])
		for j := 0; j < i; j++ {
			acc -= a[j] * float64(autocorr[i-j])
		}
		gamma := acc / e
		if math.Abs(gamma) >= 1 {
			return nil, false
		}

		copy(prev, a)
		a[i] = gamma
		for j := 0; j < i; j++ {
			a[j] = prev[j] - gamma*prev[i-1-j]
		}

		e *= 1 - gamma*gamma
		if e <= 0 {
			return nil, false
		}
	}
	return a, true
}

// QuantizeCoefficients rescales floating-point LPC coefficients to
// fixed-point integers plus a shift, per spec §4.3: shift is chosen so
// that (1<<30)/max|c| bits of headroom remain, capped at 15.
func QuantizeCoefficients(coeffs []float64) (quant []int32, shift uint8) {
	if len(coeffs) == 0 {
		return nil, 0
	}

	maxAbs := 0.0
	for _, c := range coeffs {
		if a := math.Abs(c); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return make([]int32, len(coeffs)), 0
	}

	headroom := float64(int64(1)<<30) / maxAbs
	s := 0
	if headroom > 1 {
		s = int(math.Floor(math.Log2(headroom)))
	}
	if s < 0 {
		s = 0
	}
	if s > 15 {
		s = 15
	}

	scale := float64(int64(1) << uint(s))
	quant = make([]int32, len(coeffs))
	for i, c := range coeffs {
		quant[i] = int32(math.Round(c * scale))
	}
	return quant, uint8(s)
}

// Residual computes prediction residuals for samples using the quantized
// LPC coefficients and shift: prediction is accumulated in 64 bits and
// shifted right by shift before subtraction, matching the decoder's
// rounding exactly (spec §4.3). The first len(coeffs) warm-up samples
// pass through unchanged.
func Residual(samples []int32, coeffs []int32, shift uint8) []int32 {
	order := len(coeffs)
	out := make([]int32, len(samples))
	for i := 0; i < order && i < len(samples); i++ {
		out[i] = samples[i]
	}
	for i := order; i < len(samples); i++ {
		var pred int64
		for j, c := range coeffs {
			pred += int64(c) * int64(samples[i-j-1])
		}
		pred >>= shift
		out[i] = int32(int64(samples[i]) - pred)
	}
	return out
}

// Reconstruct inverts Residual: given the residuals and the same
// coefficients/shift, it recovers the original integer samples.
func Reconstruct(residuals []int32, coeffs []int32, shift uint8) []int32 {
	order := len(coeffs)
	out := make([]int32, len(residuals))
	for i := 0; i < order && i < len(residuals); i++ {
		out[i] = residuals[i]
	}
	for i := order; i < len(residuals); i++ {
		var pred int64
		for j, c := range coeffs {
			pred += int64(c) * int64(out[i-j-1])
		}
		pred >>= shift
		out[i] = int32(pred + int64(residuals[i]))
	}
	return out
}

// fixedCoeffs are the Laplace finite-difference kernels for predictor
// orders 0..=4 (spec §4.3), expressed as the coefficients of x[i-1..i-order]
// in the prediction sum (not the residual formula directly).
var fixedCoeffs = [5][]int64{
	{},
	{1},
	{2, -1},
	{3, -3, 1},
	{4, -6, 4, -1},
}

// FixedResidual computes the residual for fixed predictor order (0..=4)
// using integer finite differences. Order 0 is simply the identity
// (residual equals the sample). Warm-up samples pass through unchanged.
func FixedResidual(samples []int32, order int) []int32 {
	out := make([]int32, len(samples))
	for i := 0; i < order && i < len(samples); i++ {
		out[i] = samples[i]
	}
	coeffs := fixedCoeffs[order]
	for i := order; i < len(samples); i++ {
		pred := int64(0)
		for j, c := range coeffs {
			pred += c * int64(samples[i-1-j])
		}
		out[i] = int32(int64(samples[i]) - pred)
	}
	return out
}

// FixedReconstruct inverts FixedResidual.
func FixedReconstruct(residuals []int32, order int) []int32 {
	out := make([]int32, len(residuals))
	for i := 0; i < order && i < len(residuals); i++ {
		out[i] = residuals[i]
	}
	coeffs := fixedCoeffs[order]
	for i := order; i < len(residuals); i++ {
		pred := int64(0)
		for j, c := range coeffs {
			pred += c * int64(out[i-1-j])
		}
		out[i] = int32(pred + int64(residuals[i]))
	}
	return out
}
