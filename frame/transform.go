package frame

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// BlockSizeTag names the four MDCT block shapes the lossy codec can emit
// (spec §4.4, §4.7). This implementation only ever emits Long, but
// decoders accept all four tags so future encoders (or the original
// Rust implementation's short-block transient handling) interoperate.
type BlockSizeTag uint8

// Block size tags.
const (
	BlockLong  BlockSizeTag = 0
	BlockShort BlockSizeTag = 1
	BlockStart BlockSizeTag = 2
	BlockStop  BlockSizeTag = 3
)

// Samples returns the block's sample count (window length N).
func (t BlockSizeTag) Samples() int {
	if t == BlockShort {
		return 256
	}
	return 2048
}

// Coefficients returns N/2, the number of MDCT coefficients in the block.
func (t BlockSizeTag) Coefficients() int { return t.Samples() / 2 }

// NumBarkBands is the fixed Bark-band count the psychoacoustic model and
// the transform frame's scale factors both use (spec §4.5).
const NumBarkBands = 25

// scaleFactorBias and scaleFactorScale implement the log-domain scale
// factor encoding from spec §3.1: stored = round(log2(sf) * 256 + 32768),
// clamped to [0, 65535]; 0 means "band silent".
const (
	scaleFactorBias  = 32768.0
	scaleFactorScale = 256.0
)

// EncodeScaleFactor packs a linear scale factor into its u16 wire form.
func EncodeScaleFactor(sf float64) uint16 {
	if sf <= 0 {
		return 0
	}
	v := math.Round(math.Log2(sf)*scaleFactorScale + scaleFactorBias)
	if v < 0 {
		v = 0
	}
	if v > 65535 {
		v = 65535
	}
	return uint16(v)
}

// DecodeScaleFactor inverts EncodeScaleFactor. A stored value of 0 means
// the band was silent and decodes to 0 (the decoder must special-case
// this to avoid treating it as 2^-128).
func DecodeScaleFactor(v uint16) float64 {
	if v == 0 {
		return 0
	}
	return math.Exp2((float64(v) - scaleFactorBias) / scaleFactorScale)
}

// TransformFrame is the sole channel blob of a lossy Frame (spec §3.1):
// per-channel scale factors plus sparse-coded quantized MDCT coefficients.
type TransformFrame struct {
	BlockSize    BlockSizeTag
	ScaleFactors [][NumBarkBands]uint16 // one array per channel
	Coeffs       [][]int16              // one slice of length BlockSize.Coefficients() per channel
}

// Marshal encodes the transform frame.
func (t *TransformFrame) Marshal() []byte {
	numChannels := len(t.ScaleFactors)
	b := make([]byte, 2, 64)
	b[0] = byte(t.BlockSize)
	b[1] = byte(numChannels)

	for _, sf := range t.ScaleFactors {
		for _, v := range sf {
			b = binary.LittleEndian.AppendUint16(b, v)
		}
	}
	for _, coeffs := range t.Coeffs {
		payload := encodeSparse(coeffs)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(payload)))
		b = append(b, payload...)
	}
	return b
}

// UnmarshalTransformFrame parses a transform frame blob.
func UnmarshalTransformFrame(b []byte) (*TransformFrame, error) {
	if len(b) < 2 {
		return nil, errors.New("frame: transform blob too short for envelope")
	}
	blockSize := BlockSizeTag(b[0])
	numChannels := int(b[1])
	off := 2

	sfBytes := NumBarkBands * 2
	scaleFactors := make([][NumBarkBands]uint16, numChannels)
	for c := 0; c < numChannels; c++ {
		if off+sfBytes > len(b) {
			return nil, errors.New("frame: transform blob truncated in scale factors")
		}
		for band := 0; band < NumBarkBands; band++ {
			scaleFactors[c][band] = binary.LittleEndian.Uint16(b[off : off+2])
			off += 2
		}
	}

	n := blockSize.Coefficients()
	coeffs := make([][]int16, numChannels)
	for c := 0; c < numChannels; c++ {
		if off+4 > len(b) {
			return nil, errors.New("frame: transform blob truncated before coefficient length")
		}
		payloadLen := int(binary.LittleEndian.Uint32(b[off : off+4]))
		off += 4
		if off+payloadLen > len(b) {
			return nil, errors.New("frame: transform blob coefficient payload overruns frame")
		}
		coeffs[c] = decodeSparse(b[off:off+payloadLen], n)
		off += payloadLen
	}

	return &TransformFrame{BlockSize: blockSize, ScaleFactors: scaleFactors, Coeffs: coeffs}, nil
}
