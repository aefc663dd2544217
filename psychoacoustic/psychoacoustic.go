// Package psychoacoustic implements the masking model the lossy encoder
// uses to decide how many bits each part of the MDCT spectrum is worth
// spending (spec §4.5, C5): a 25-band Bark decomposition, the Terhardt
// absolute threshold of hearing, a linear per-band spreading function,
// and a stateful masking threshold (with inter-frame temporal decay)
// that the signal-to-mask ratio is computed against, per bin.
package psychoacoustic

import "math"

// NumBands is the fixed number of Bark-scale critical bands (spec §4.5).
const NumBands = 25

// BandEdges are the Bark critical band boundaries in Hz, giving NumBands
// bands between consecutive entries. Fixed regardless of sample rate.
var BandEdges = [NumBands + 1]float64{
	0, 100, 200, 300, 400, 510, 630, 770, 920, 1080, 1270, 1480, 1720,
	2000, 2320, 2700, 3150, 3700, 4400, 5300, 6400, 7700, 9500, 12000,
	15500, 20500,
}

// BandForBin returns the Bark band index owning the frequency freqHz.
func BandForBin(freqHz float64) int {
	for b := 1; b <= NumBands; b++ {
		if freqHz < BandEdges[b] {
			return b - 1
		}
	}
	return NumBands - 1
}

// AbsoluteThreshold returns the Terhardt absolute threshold of hearing at
// freqHz, in dB SPL, clamped to [-10, 96]. Frequencies outside the range
// of human hearing are inaudible (96 dB: nothing below that is heard).
func AbsoluteThreshold(freqHz float64) float64 {
	if freqHz < 20 || freqHz > 20000 {
		return 96
	}
	kHz := freqHz / 1000
	v := 3.64*math.Pow(kHz, -0.8) -
		6.5*math.Exp(-0.6*(kHz-3.3)*(kHz-3.3)) +
		1e-3*math.Pow(kHz, 4)
	return clamp(v, -10, 96)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// spreadingDB is the linear Bark-band spreading function: the masking
// contribution, in dB, that masker band i has on band j.
func spreadingDB(i, j int) float64 {
	delta := float64(j - i)
	if delta >= 0 {
		return -25 * delta
	}
	return -10 * delta
}

// spreadingLinear converts spreadingDB to a linear gain, clamped so a
// masker never amplifies the band it's spreading into.
func spreadingLinear(i, j int) float64 {
	g := math.Pow(10, spreadingDB(i, j)/10)
	if g > 1 {
		g = 1
	}
	return g
}

// Model holds the per-channel masking history (spec §5: consecutive
// lossy frames of one channel share a decaying threshold), so one Model
// must be used per channel and never shared across channels or reused
// after a seek without calling Reset.
type Model struct {
	prevThreshold [NumBands]float64
}

// NewModel returns a Model with no masking history.
func NewModel() *Model {
	return &Model{}
}

// Reset clears m's masking history, for use after a seek or other
// discontinuity where the previous frame's threshold no longer applies.
func (m *Model) Reset() {
	*m = Model{}
}

// bandDB sums coefficient energy into its owning Bark band (indexed via
// bandForBin, one entry per coeff) and converts to a per-band dB level.
func bandDB(coeffs []float64, bandForBin []int) [NumBands]float64 {
	var energy [NumBands]float64
	var count [NumBands]int
	for k, c := range coeffs {
		b := bandForBin[k]
		energy[b] += c * c
		count[b]++
	}
	var db [NumBands]float64
	for b := range db {
		if count[b] > 0 && energy[b] > 1e-10 {
			db[b] = 10 * math.Log10(energy[b]/float64(count[b]))
		} else {
			db[b] = -100
		}
	}
	return db
}

// MaskingThreshold computes the per-bin masking threshold (dB) for
// coeffs: the per-band energy is spread across Bark bands, offset by a
// 6 dB safety margin, held against 0.7 of the previous frame's threshold
// (temporal decay), floored by the absolute threshold of hearing, and
// finally lowered by 10 dB of headroom. bandForBin maps each coefficient
// to its Bark band index; binFreq maps a coefficient index to its
// frequency in Hz. m's history is updated for the next call.
func (m *Model) MaskingThreshold(coeffs []float64, bandForBin []int, binFreq func(int) float64) []float64 {
	db := bandDB(coeffs, bandForBin)

	var spread [NumBands]float64
	for i := range spread {
		spread[i] = -100
	}
	for i := 0; i < NumBands; i++ {
		for j := 0; j < NumBands; j++ {
			masking := db[j] + 10*math.Log10(spreadingLinear(j, i))
			if masking > spread[i] {
				spread[i] = masking
			}
		}
	}

	const safetyOffsetDB = -6
	const temporalDecay = 0.7
	for i := range spread {
		spread[i] += safetyOffsetDB
		if decayed := m.prevThreshold[i] * temporalDecay; decayed > spread[i] {
			spread[i] = decayed
		}
		m.prevThreshold[i] = spread[i]
	}

	thresholds := make([]float64, len(coeffs))
	for k := range thresholds {
		b := bandForBin[k]
		threshold := spread[b]
		if ath := AbsoluteThreshold(binFreq(k)); ath > threshold {
			threshold = ath
		}
		thresholds[k] = threshold - 10
	}
	return thresholds
}

// SignalToMaskRatio returns, per bin, signalDB - thresholds[k]: how many
// dB of headroom the encoder has before quantization noise at that bin
// becomes audible. A negative SMR means the bin can be zeroed outright
// without perceptible loss.
func SignalToMaskRatio(coeffs []float64, thresholds []float64) []float64 {
	smr := make([]float64, len(coeffs))
	for k, c := range coeffs {
		signalDB := -100.0
		if a := math.Abs(c); a > 1e-10 {
			signalDB = 20 * math.Log10(a)
		}
		smr[k] = signalDB - thresholds[k]
	}
	return smr
}

// SMRCutoffDB maps a quality level q in [0, 1] to the SMR, in dB, below
// which a bin is zeroed: 1.0 keeps everything, 0 is the most aggressive.
func SMRCutoffDB(q float64) float64 {
	if q >= 0.99 {
		return -100
	}
	return -60 * (1 - math.Sqrt(1-q))
}
