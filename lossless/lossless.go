// Package lossless implements the C6 lossless codec: per-frame channel
// decorrelation, predictor search across fixed and adaptive LPC
// candidates, Rice parameter selection, and the frame type/ChannelData
// assembly the container format stores on disk (spec §4.3, §4.6).
package lossless

import (
	"github.com/pkg/errors"

	"github.com/floaudio/flo/frame"
	"github.com/floaudio/flo/lpc"
	"github.com/floaudio/flo/rice"
)

// MaxOrderForLevel maps the file header's compression_level (0..8, spec
// §3.1) to the highest adaptive LPC order the encoder will search, in the
// same spirit as the teacher's FLAC encoder scaling subframe search depth
// with its own compression level.
func MaxOrderForLevel(level uint8) int {
	switch {
	case level == 0:
		return 0 // fixed predictors only, fastest
	case level <= 2:
		return 4
	case level <= 5:
		return 8
	default:
		return lpc.MaxOrder
	}
}

// candidate is one predictor's residual plus the bookkeeping needed to
// compare its coded cost against other candidates for the same channel.
type candidate struct {
	coeffs    []int32
	shiftBits uint8
	residual  []int32
}

// EncodeFrame predicts and Rice-codes one frame's worth of per-channel
// integer samples, choosing independent vs. mid/side stereo decorrelation
// and, per channel, the cheapest of the fixed and adaptive LPC predictors
// up to maxOrder (spec §4.6).
func EncodeFrame(channels [][]int32, maxOrder int, frameIndex uint32) (*frame.Frame, error) {
	if len(channels) == 0 {
		return nil, errors.New("lossless: EncodeFrame requires at least one channel")
	}
	samples := uint32(len(channels[0]))
	for _, ch := range channels {
		if uint32(len(ch)) != samples {
			return nil, errors.New("lossless: all channels must have the same sample count")
		}
	}

	if allSilent(channels) {
		blobs := make([][]byte, len(channels))
		for i := range blobs {
			blobs[i] = nil
		}
		return &frame.Frame{Type: frame.TypeSilence, Samples: samples, Channels: blobs}, nil
	}

	encoded := channels
	flags := uint8(0)
	if len(channels) == 2 {
		mid, side := midSide(channels[0], channels[1])
		independentCost := bestCandidateCost(channels[0], maxOrder) + bestCandidateCost(channels[1], maxOrder)
		midSideCost := bestCandidateCost(mid, maxOrder) + bestCandidateCost(side, maxOrder)
		if midSideCost < independentCost {
			encoded = [][]int32{mid, side}
			flags |= frame.FlagMidSide
		}
	}

	blobs := make([][]byte, len(encoded))
	maxUsedOrder := 1
	for i, ch := range encoded {
		cd, order, err := encodeChannel(ch, maxOrder)
		if err != nil {
			return nil, errors.Wrapf(err, "lossless: channel %d", i)
		}
		blobs[i] = cd.Marshal()
		if order > maxUsedOrder {
			maxUsedOrder = order
		}
	}

	return &frame.Frame{
		Type:     frame.FromOrder(maxUsedOrder),
		Samples:  samples,
		Flags:    flags,
		Channels: blobs,
	}, nil
}

// DecodeFrame inverts EncodeFrame, returning numChannels channels of
// reconstructed integer samples.
func DecodeFrame(f *frame.Frame, numChannels int) ([][]int32, error) {
	switch f.Type {
	case frame.TypeSilence:
		out := make([][]int32, numChannels)
		for i := range out {
			out[i] = make([]int32, f.Samples)
		}
		return out, nil
	case frame.TypeRaw:
		return decodeRawFrame(f, numChannels)
	}
	if !f.Type.IsALPC() {
		return nil, errors.Errorf("lossless: unexpected frame type %d", f.Type)
	}
	if len(f.Channels) != numChannels {
		return nil, errors.Errorf("lossless: frame has %d channel blobs, want %d", len(f.Channels), numChannels)
	}

	decoded := make([][]int32, numChannels)
	for i, blob := range f.Channels {
		samples, err := decodeChannel(blob, int(f.Samples))
		if err != nil {
			return nil, errors.Wrapf(err, "lossless: channel %d", i)
		}
		decoded[i] = samples
	}

	if f.IsMidSide() && numChannels == 2 {
		return undoMidSide(decoded[0], decoded[1]), nil
	}
	return decoded, nil
}

func decodeRawFrame(f *frame.Frame, numChannels int) ([][]int32, error) {
	out := make([][]int32, numChannels)
	for i, blob := range f.Channels {
		samples := make([]int32, len(blob)/2)
		for j := range samples {
			v := int16(uint16(blob[2*j]) | uint16(blob[2*j+1])<<8)
			samples[j] = int32(v)
		}
		out[i] = samples
	}
	return out, nil
}

func allSilent(channels [][]int32) bool {
	for _, ch := range channels {
		for _, s := range ch {
			if s != 0 {
				return false
			}
		}
	}
	return true
}

func midSide(left, right []int32) (mid, side []int32) {
	mid = make([]int32, len(left))
	side = make([]int32, len(left))
	for i := range left {
		mid[i] = left[i] + right[i]
		side[i] = left[i] - right[i]
	}
	return mid, side
}

func undoMidSide(mid, side []int32) [][]int32 {
	left := make([]int32, len(mid))
	right := make([]int32, len(mid))
	for i := range mid {
		left[i] = (mid[i] + side[i]) >> 1
		right[i] = (mid[i] - side[i]) >> 1
	}
	return [][]int32{left, right}
}

// bestCandidateCost returns the estimated Rice-coded bit cost of the
// cheapest predictor for ch, used only to compare stereo decorrelation
// strategies before committing to one.
func bestCandidateCost(ch []int32, maxOrder int) int {
	_, _, cost := searchPredictors(ch, maxOrder)
	return cost
}

// searchPredictors tries every fixed order 0..4 and, if maxOrder > 0, the
// adaptive LPC orders up to maxOrder, returning the cheapest by estimated
// Rice-coded bit cost (spec §4.6).
func searchPredictors(ch []int32, maxOrder int) (candidate, int, int) {
	best := candidate{residual: lpc.FixedResidual(ch, 0), shiftBits: frame.FixedOrderBase}
	bestOrder := 0
	bestCost := estimateCost(best.residual)

	for order := 1; order <= 4; order++ {
		residual := lpc.FixedResidual(ch, order)
		cost := estimateCost(residual)
		if cost < bestCost {
			best = candidate{residual: residual, shiftBits: frame.FixedOrderBase + uint8(order)}
			bestOrder = 0
			bestCost = cost
		}
	}

	if maxOrder > 0 && len(ch) > maxOrder {
		autocorr := lpc.Autocorrelate(ch, maxOrder)
		for order := 1; order <= maxOrder; order++ {
			coeffs, ok := lpc.LevinsonDurbin(autocorr, order)
			if !ok {
				continue
			}
			quant, shift := lpc.QuantizeCoefficients(coeffs)
			residual := lpc.Residual(ch, quant, shift)
			cost := estimateCost(residual) + order*32 // charge the coefficient storage itself
			if cost < bestCost {
				best = candidate{coeffs: quant, shiftBits: shift, residual: residual}
				bestOrder = order
				bestCost = cost
			}
		}
	}

	return best, bestOrder, bestCost
}

// estimateCost approximates the Rice-coded size in bits of residual at its
// best parameter, without actually packing bits: each sample costs
// roughly k + 1 + (zigzag value >> k) bits.
func estimateCost(residual []int32) int {
	k := rice.EstimateParameter(residual)
	total := 0
	for _, s := range residual {
		u := fbitsZigZag(s)
		q := u >> k
		if q > rice.MaxQuotient {
			q = rice.MaxQuotient
		}
		total += int(k) + 1 + int(q)
	}
	return total
}

func fbitsZigZag(s int32) uint32 {
	u := uint32(s)
	return (u << 1) ^ uint32(s>>31)
}

func encodeChannel(ch []int32, maxOrder int) (*frame.ChannelData, int, error) {
	best, order, _ := searchPredictors(ch, maxOrder)

	k := rice.EstimateParameter(best.residual)
	packed, err := rice.EncodeI32(best.residual, k)
	if err != nil {
		return nil, 0, errors.Wrap(err, "rice encode")
	}

	cd := &frame.ChannelData{
		Coeffs:        best.coeffs,
		ShiftBits:     best.shiftBits,
		Encoding:      frame.ResidualRice,
		RiceParameter: k,
		Residual:      packed,
	}
	if order == 0 {
		order = 1
	}
	return cd, order, nil
}

func decodeChannel(blob []byte, numSamples int) ([]int32, error) {
	cd, err := frame.UnmarshalChannelData(blob)
	if err != nil {
		return nil, err
	}

	var residual []int32
	switch cd.Encoding {
	case frame.ResidualRice:
		residual = rice.DecodeI32(cd.Residual, cd.RiceParameter, numSamples)
	case frame.ResidualRaw:
		residual = make([]int32, numSamples)
		for i := 0; i < numSamples && 2*i+1 < len(cd.Residual); i++ {
			v := int16(uint16(cd.Residual[2*i]) | uint16(cd.Residual[2*i+1])<<8)
			residual[i] = int32(v)
		}
	default:
		return nil, errors.Errorf("lossless: unsupported residual encoding %d", cd.Encoding)
	}

	if cd.IsFixed() {
		return lpc.FixedReconstruct(residual, cd.FixedOrder()), nil
	}
	return lpc.Reconstruct(residual, cd.Coeffs, cd.ShiftBits), nil
}
