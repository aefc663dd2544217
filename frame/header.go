// Package frame defines the on-disk data model shared by the lossless and
// lossy codecs: the file header, table of contents, frame envelope,
// per-channel predictor payload, and the lossy transform payload. It
// mirrors the teacher's split of wire-format structs (frame.Header,
// frame.Subframe) from the codecs that produce and consume them.
package frame

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Magic is the 4-byte signature at the start of every flo file.
var Magic = [4]byte{0x46, 0x4C, 0x4F, 0x21}

// Size is the fixed size in bytes of the Header, excluding the magic.
const Size = 66

// FlagLossy marks the file's audio frames as lossy (Transform) rather
// than lossless (ALPC/Silence/Raw).
const FlagLossy = 1 << 0

// LossyQualityShift is the bit offset of the 4-bit lossy quality field
// (0..4) packed into Header.Flags.
const LossyQualityShift = 8

// Header is the fixed 66-byte record following the magic (spec §3.1).
type Header struct {
	VersionMajor      uint8
	VersionMinor      uint8
	Flags             uint16
	SampleRate        uint32
	Channels          uint8
	BitDepth          uint8
	TotalFrames       uint64
	CompressionLevel  uint8
	DataCRC32         uint32
	HeaderSize        uint64
	TocSize           uint64
	DataSize          uint64
	ExtraSize         uint64
	MetaSize          uint64
}

// IsLossy reports whether FlagLossy is set.
func (h *Header) IsLossy() bool { return h.Flags&FlagLossy != 0 }

// LossyQuality extracts the 4-bit quality level (0..4) packed in bits 8..12.
func (h *Header) LossyQuality() uint8 { return uint8((h.Flags >> LossyQualityShift) & 0xF) }

// SetLossyQuality sets FlagLossy and packs a 0..4 quality level into
// Header.Flags alongside it.
func (h *Header) SetLossyQuality(q uint8) {
	h.Flags = (h.Flags &^ (0xF << LossyQualityShift)) | FlagLossy | (uint16(q&0xF) << LossyQualityShift)
}

// MetaSizeOffset is the absolute byte offset of the 8-byte meta_size
// field from the start of the file, used by the zero-copy metadata
// update (spec §4.8): 4 (magic) + 58 (header-relative offset).
const MetaSizeOffset = 4 + 58

// Marshal encodes the header to its 66-byte wire representation.
func (h *Header) Marshal() []byte {
	b := make([]byte, Size)
	b[0] = h.VersionMajor
	b[1] = h.VersionMinor
	binary.LittleEndian.PutUint16(b[2:4], h.Flags)
	binary.LittleEndian.PutUint32(b[4:8], h.SampleRate)
	b[8] = h.Channels
	b[9] = h.BitDepth
	binary.LittleEndian.PutUint64(b[10:18], h.TotalFrames)
	b[18] = h.CompressionLevel
	// b[19:22] reserved, left zero.
	binary.LittleEndian.PutUint32(b[22:26], h.DataCRC32)
	binary.LittleEndian.PutUint64(b[26:34], h.HeaderSize)
	binary.LittleEndian.PutUint64(b[34:42], h.TocSize)
	binary.LittleEndian.PutUint64(b[42:50], h.DataSize)
	binary.LittleEndian.PutUint64(b[50:58], h.ExtraSize)
	binary.LittleEndian.PutUint64(b[58:66], h.MetaSize)
	return b
}

// UnmarshalHeader parses a 66-byte header record. It does not validate
// the magic, which the caller reads separately.
func UnmarshalHeader(b []byte) (*Header, error) {
	if len(b) < Size {
		return nil, errors.Errorf("frame: truncated header: got %d bytes, want %d", len(b), Size)
	}
	h := &Header{
		VersionMajor:     b[0],
		VersionMinor:     b[1],
		Flags:            binary.LittleEndian.Uint16(b[2:4]),
		SampleRate:       binary.LittleEndian.Uint32(b[4:8]),
		Channels:         b[8],
		BitDepth:         b[9],
		TotalFrames:      binary.LittleEndian.Uint64(b[10:18]),
		CompressionLevel: b[18],
		DataCRC32:        binary.LittleEndian.Uint32(b[22:26]),
		HeaderSize:       binary.LittleEndian.Uint64(b[26:34]),
		TocSize:          binary.LittleEndian.Uint64(b[34:42]),
		DataSize:         binary.LittleEndian.Uint64(b[42:50]),
		ExtraSize:        binary.LittleEndian.Uint64(b[50:58]),
		MetaSize:         binary.LittleEndian.Uint64(b[58:66]),
	}
	if h.HeaderSize != Size {
		return nil, errors.Errorf("frame: invalid header_size %d, want %d", h.HeaderSize, Size)
	}
	return h, nil
}
