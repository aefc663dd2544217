package psychoacoustic

import (
	"testing"
)

func TestAbsoluteThresholdHasMinimumNearTwoToFourKHz(t *testing.T) {
	// The Terhardt ATH curve is bowl-shaped with its minimum in the
	// 2-5 kHz range where human hearing is most sensitive.
	min := AbsoluteThreshold(100)
	minFreq := 100.0
	for f := 200.0; f <= 20000; f += 100 {
		v := AbsoluteThreshold(f)
		if v < min {
			min = v
			minFreq = f
		}
	}
	if minFreq < 2000 || minFreq > 4000 {
		t.Fatalf("ATH minimum at %v Hz, want somewhere in 2-4 kHz", minFreq)
	}
}

func TestAbsoluteThresholdClampsBelow20Hz(t *testing.T) {
	if AbsoluteThreshold(5) != 96 {
		t.Fatal("ATH below 20 Hz should be 96 (inaudible)")
	}
}

func TestAbsoluteThresholdClampsOutOfRange(t *testing.T) {
	if AbsoluteThreshold(25000) != 96 {
		t.Fatalf("ATH above 20 kHz = %v, want 96", AbsoluteThreshold(25000))
	}
	if v := AbsoluteThreshold(3000); v < -10 || v > 96 {
		t.Fatalf("ATH(3000) = %v, want within [-10, 96]", v)
	}
}

func TestSpreadingLinearPeaksAtZeroDistance(t *testing.T) {
	peak := spreadingLinear(10, 10)
	for _, j := range []int{5, 9, 11, 15} {
		if spreadingLinear(10, j) > peak {
			t.Fatalf("spreadingLinear(10,%d) = %v exceeds on-band value %v", j, spreadingLinear(10, j), peak)
		}
	}
}

func TestBandForBinMonotonic(t *testing.T) {
	prev := -1
	for hz := 0.0; hz < 20000; hz += 50 {
		b := BandForBin(hz)
		if b < prev {
			t.Fatalf("band index decreased at %v Hz: %d after %d", hz, b, prev)
		}
		prev = b
	}
}

func TestMaskingThresholdRisesWithSignalEnergy(t *testing.T) {
	blockSamples := 2048
	sampleRate := 44100
	n := blockSamples / 2
	binHz := float64(sampleRate) / float64(blockSamples)
	bandForBin := make([]int, n)
	for i := range bandForBin {
		bandForBin[i] = BandForBin(float64(i) * binHz)
	}
	binFreq := func(k int) float64 { return float64(k) * binHz }

	quiet := make([]float64, n)
	loud := make([]float64, n)
	for i := range loud {
		loud[i] = 1.0
	}

	tQuiet := NewModel().MaskingThreshold(quiet, bandForBin, binFreq)
	tLoud := NewModel().MaskingThreshold(loud, bandForBin, binFreq)
	for k := range tQuiet {
		if tLoud[k] < tQuiet[k] {
			t.Fatalf("bin %d: masking threshold did not rise with signal energy (%v vs %v)", k, tLoud[k], tQuiet[k])
		}
	}
}

func TestMaskingThresholdTemporalDecay(t *testing.T) {
	bandForBin := []int{0}
	binFreq := func(int) float64 { return 100 }
	m := NewModel()

	loud := []float64{1000.0}
	silent := []float64{0}

	first := m.MaskingThreshold(loud, bandForBin, binFreq)
	second := m.MaskingThreshold(silent, bandForBin, binFreq)
	// the decayed history should keep the threshold from collapsing
	// straight back down to the absolute threshold of hearing.
	if second[0] <= AbsoluteThreshold(100)-10 {
		t.Fatalf("expected decayed history to raise threshold above ATH floor, got %v", second[0])
	}
	if second[0] > first[0] {
		t.Fatalf("decayed threshold %v should not exceed the original %v", second[0], first[0])
	}
}

func TestSignalToMaskRatio(t *testing.T) {
	coeffs := []float64{0, 0, 0, 1000}
	thresholds := []float64{0, 0, 0, -20}
	smr := SignalToMaskRatio(coeffs, thresholds)
	want := 20*3.0 + 20 // 20*log10(1000) - (-20) == 60 + 20
	_ = want
	if smr[3] < 79 || smr[3] > 81 {
		t.Fatalf("smr[3] = %v, want ~80", smr[3])
	}
}

func TestSMRCutoffDBMonotonic(t *testing.T) {
	prev := SMRCutoffDB(0)
	for _, q := range []float64{0.2, 0.4, 0.6, 0.8, 1.0} {
		v := SMRCutoffDB(q)
		if v > prev {
			t.Fatalf("SMRCutoffDB(%v) = %v, want non-increasing with quality", q, v)
		}
		prev = v
	}
	if SMRCutoffDB(1.0) != -100 {
		t.Fatalf("SMRCutoffDB(1.0) = %v, want -100", SMRCutoffDB(1.0))
	}
}
