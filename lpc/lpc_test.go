package lpc_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/floaudio/flo/lpc"
)

func sineSamples(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(10000 * math.Sin(2*math.Pi*440*float64(i)/44100))
	}
	return out
}

func TestFixedPredictorRoundTrip(t *testing.T) {
	samples := sineSamples(2000)
	for order := 0; order <= 4; order++ {
		res := lpc.FixedResidual(samples, order)
		got := lpc.FixedReconstruct(res, order)
		if !reflect.DeepEqual(got, samples) {
			t.Errorf("order %d: round trip mismatch at some index", order)
		}
	}
}

func TestLPCRoundTrip(t *testing.T) {
	samples := sineSamples(4000)
	order := 8
	autocorr := lpc.Autocorrelate(samples, order)
	coeffsF, ok := lpc.LevinsonDurbin(autocorr, order)
	if !ok {
		t.Fatalf("LevinsonDurbin reported unstable for a well-conditioned sine")
	}
	quant, shift := lpc.QuantizeCoefficients(coeffsF)
	if len(quant) != order {
		t.Fatalf("QuantizeCoefficients returned %d coeffs, want %d", len(quant), order)
	}
	residual := lpc.Residual(samples, quant, shift)
	got := lpc.Reconstruct(residual, quant, shift)
	if !reflect.DeepEqual(got, samples) {
		t.Errorf("LPC round trip mismatch")
	}
}

func TestLevinsonDurbinOrderZero(t *testing.T) {
	coeffs, ok := lpc.LevinsonDurbin([]int64{100}, 0)
	if !ok || coeffs != nil {
		t.Errorf("LevinsonDurbin(order=0) = (%v, %v), want (nil, true)", coeffs, ok)
	}
}

func TestQuantizeCoefficientsAllZero(t *testing.T) {
	quant, shift := lpc.QuantizeCoefficients([]float64{0, 0, 0})
	if shift != 0 {
		t.Errorf("shift = %d, want 0", shift)
	}
	for _, c := range quant {
		if c != 0 {
			t.Errorf("quant = %v, want all zero", quant)
		}
	}
}
