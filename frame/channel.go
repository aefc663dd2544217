package frame

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ChannelData is the per-channel predictor payload inside an ALPC frame
// (spec §3.1). Two predictor families share this envelope:
//
//   - Adaptive LPC: len(Coeffs) in 1..=12, ShiftBits is the fixed-point
//     shift the coefficients were quantized with.
//   - Fixed (Laplace finite-difference): len(Coeffs) == 0 and ShiftBits
//     is FixedOrderBase+order, order in 0..=4.
//
// Either family's residual is packed per Encoding: Rice (with
// RiceParameter set) or Raw, meaning Residual already holds 16-bit
// little-endian samples with no entropy coding at all. The lossless
// encoder in this module always emits Rice; Raw is accepted on decode
// but never produced.
type ChannelData struct {
	Coeffs        []int32
	ShiftBits     uint8
	Encoding      ResidualEncoding
	RiceParameter uint8
	Residual      []byte
}

// IsFixed reports whether this channel used a fixed predictor rather
// than adaptive LPC.
func (c *ChannelData) IsFixed() bool {
	return len(c.Coeffs) == 0 && c.ShiftBits >= FixedOrderBase && c.ShiftBits <= FixedOrderBase+4
}

// FixedOrder returns the fixed predictor order (0..=4) if IsFixed, or -1
// otherwise.
func (c *ChannelData) FixedOrder() int {
	if !c.IsFixed() {
		return -1
	}
	return int(c.ShiftBits) - FixedOrderBase
}

// Marshal encodes the channel blob (without the u32 length prefix the
// Frame envelope adds).
func (c *ChannelData) Marshal() []byte {
	n := 1 + 4*len(c.Coeffs) + 1 + 1
	if c.Encoding == ResidualRice {
		n++
	}
	b := make([]byte, n, n+len(c.Residual))
	b[0] = byte(len(c.Coeffs))
	off := 1
	for _, coeff := range c.Coeffs {
		binary.LittleEndian.PutUint32(b[off:off+4], uint32(coeff))
		off += 4
	}
	b[off] = c.ShiftBits
	off++
	b[off] = byte(c.Encoding)
	off++
	if c.Encoding == ResidualRice {
		b[off] = c.RiceParameter
		off++
	}
	return append(b, c.Residual...)
}

// UnmarshalChannelData parses one channel blob (spec §3.1, invariant 6:
// coeff_count must be in [0, 12]).
func UnmarshalChannelData(b []byte) (*ChannelData, error) {
	if len(b) < 3 {
		return nil, errors.New("frame: channel blob too short for coeff header")
	}
	coeffCount := int(b[0])
	if coeffCount > 12 {
		return nil, errors.Errorf("frame: coeff_count %d exceeds maximum of 12", coeffCount)
	}
	off := 1
	need := off + 4*coeffCount + 2
	if len(b) < need {
		return nil, errors.New("frame: channel blob truncated before coefficients")
	}
	var coeffs []int32
	if coeffCount > 0 {
		coeffs = make([]int32, coeffCount)
	}
	for i := range coeffs {
		coeffs[i] = int32(binary.LittleEndian.Uint32(b[off : off+4]))
		off += 4
	}
	shiftBits := b[off]
	off++
	encoding := ResidualEncoding(b[off])
	off++

	var riceParam uint8
	if encoding == ResidualRice {
		if len(b) < off+1 {
			return nil, errors.New("frame: channel blob truncated before rice parameter")
		}
		riceParam = b[off]
		off++
	}

	return &ChannelData{
		Coeffs:        coeffs,
		ShiftBits:     shiftBits,
		Encoding:      encoding,
		RiceParameter: riceParam,
		Residual:      b[off:],
	}, nil
}
