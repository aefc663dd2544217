// Package rice implements the Rice entropy code used to pack LPC and fixed
// predictor residuals: a Golomb code with divisor 2^k for an explicit
// parameter k, well suited to the geometrically distributed residuals a good linear
// predictor leaves behind.
package rice

import (
	"math/bits"

	fbits "github.com/floaudio/flo/internal/bits"
)

// MaxQuotient is the unary-quotient cap from spec §4.2: quotients beyond
// this are truncated during encoding; decoders tolerate but never require
// runs this long.
const MaxQuotient = 255

// EncodeI32 Rice-codes residuals with parameter k and returns the packed
// bitstream, byte-aligned and zero-padded at the end.
func EncodeI32(residuals []int32, k uint8) ([]byte, error) {
	w := fbits.NewWriter()
	for _, s := range residuals {
		if err := encodeSample(w, s, k); err != nil {
			return nil, err
		}
	}
	return w.Bytes()
}

func encodeSample(w *fbits.Writer, s int32, k uint8) error {
	u := fbits.EncodeZigZag(s)
	q := u >> k
	r := u & ((1 << k) - 1)

	qCapped := q
	if qCapped > MaxQuotient {
		qCapped = MaxQuotient
	}
	for i := uint32(0); i < qCapped; i++ {
		if err := w.WriteBit(1); err != nil {
			return err
		}
	}
	if err := w.WriteBit(0); err != nil {
		return err
	}
	if k > 0 {
		if err := w.WriteBits(uint64(r), k); err != nil {
			return err
		}
	}
	return nil
}

// DecodeI32 unpacks n Rice-coded residuals with parameter k from encoded.
// A truncated or malformed bitstream yields zeros for the missing tail
// (spec §4.1, §7) rather than an error.
func DecodeI32(encoded []byte, k uint8, n int) []int32 {
	r := fbits.NewReader(encoded)
	out := make([]int32, n)
	for i := range out {
		var q uint32
		for q <= MaxQuotient {
			if r.Exhausted() {
				break
			}
			if r.ReadBit() == 0 {
				break
			}
			q++
		}
		var rem uint32
		if k > 0 {
			rem = uint32(r.ReadBits(k))
		}
		u := (q << k) | rem
		out[i] = fbits.DecodeZigZag(u)
	}
	return out
}

// EstimateParameter chooses a Rice parameter k for an array of signed
// residuals, balancing two constraints (spec §4.2):
//
//   - correctness: the zigzag-encoded quotient must not need more than
//     MaxQuotient unary bits, i.e. (2*max_abs) >> k <= 255.
//   - efficiency: k should track the typical (mean absolute) magnitude,
//     so the remainder carries most of the entropy and the unary prefix
//     stays short.
//
// The larger of the two requirements wins, clamped to [0, 15].
func EstimateParameter(residuals []int32) uint8 {
	if len(residuals) == 0 {
		return 4
	}

	var maxAbs, sum uint64
	for _, s := range residuals {
		a := uint64(abs32(s))
		if a > maxAbs {
			maxAbs = a
		}
		sum += a
	}
	if maxAbs == 0 {
		return 0
	}

	maxUnsigned := 2 * maxAbs
	var correctnessK uint8
	if maxUnsigned > MaxQuotient {
		bitsNeeded := 64 - bits.LeadingZeros64(maxUnsigned)
		if bitsNeeded > 8 {
			correctnessK = uint8(bitsNeeded - 8)
		}
	}

	mean := sum / uint64(len(residuals))
	var efficiencyK uint8
	if mean > 0 {
		efficiencyK = uint8(64 - bits.LeadingZeros64(mean))
	}

	k := correctnessK
	if efficiencyK > k {
		k = efficiencyK
	}
	if k > 15 {
		k = 15
	}
	return k
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}
