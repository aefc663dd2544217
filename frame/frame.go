package frame

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// FlagMidSide marks a two-channel frame as mid/side coded: the first
// channel blob is L+R, the second is L-R (spec §3.1, invariant 7).
const FlagMidSide = 1 << 0

// Frame is one unit of encoded audio (in a lossless stream one second,
// or less for the final frame; in a lossy stream one MDCT hop):
// a small fixed envelope followed by per-channel blobs whose meaning
// depends on Type (spec §3.1).
//
//   - TypeSilence: Channels has one empty blob per output channel.
//   - TypeALPC (1..=12): each blob is a marshaled ChannelData.
//   - TypeTransform: exactly one blob, a marshaled TransformFrame.
//   - TypeRaw: each blob is raw 16-bit little-endian PCM for one channel.
type Frame struct {
	Type     Type
	Samples  uint32
	Flags    uint8
	Channels [][]byte
}

// IsMidSide reports whether FlagMidSide is set.
func (f *Frame) IsMidSide() bool { return f.Flags&FlagMidSide != 0 }

// Marshal encodes the frame envelope and its channel blobs.
func (f *Frame) Marshal() []byte {
	size := 6
	for _, ch := range f.Channels {
		size += 4 + len(ch)
	}
	b := make([]byte, size)
	b[0] = byte(f.Type)
	binary.LittleEndian.PutUint32(b[1:5], f.Samples)
	b[5] = f.Flags
	off := 6
	for _, ch := range f.Channels {
		binary.LittleEndian.PutUint32(b[off:off+4], uint32(len(ch)))
		off += 4
		copy(b[off:], ch)
		off += len(ch)
	}
	return b
}

// ByteSize returns the serialized size of the frame without marshaling it;
// it always equals len(f.Marshal()).
func (f *Frame) ByteSize() int {
	size := 6
	for _, ch := range f.Channels {
		size += 4 + len(ch)
	}
	return size
}

// Unmarshal parses a frame from exactly its own serialized bytes (the TOC
// entry's frame_size tells the caller how many bytes that is).
func Unmarshal(b []byte, numChannelsForFrame int) (*Frame, error) {
	if len(b) < 6 {
		return nil, errors.New("frame: truncated frame header")
	}
	f := &Frame{
		Type:    Type(b[0]),
		Samples: binary.LittleEndian.Uint32(b[1:5]),
		Flags:   b[5],
	}
	expected := numChannelsForFrame
	if f.Type == TypeTransform {
		expected = 1
	}

	off := 6
	channels := make([][]byte, 0, expected)
	for len(channels) < expected {
		if off+4 > len(b) {
			return nil, errors.New("frame: truncated channel length prefix")
		}
		n := binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
		if off+int(n) > len(b) {
			return nil, errors.New("frame: channel blob length overruns frame")
		}
		channels = append(channels, b[off:off+int(n)])
		off += int(n)
	}
	f.Channels = channels
	return f, nil
}
