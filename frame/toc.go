package frame

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// TocEntrySize is the fixed size in bytes of one TocEntry record.
const TocEntrySize = 20

// TocEntry is one table-of-contents record: the byte offset and size of a
// single frame within the DATA chunk, plus its presentation timestamp
// (spec §3.1).
type TocEntry struct {
	FrameIndex  uint32
	ByteOffset  uint64
	FrameSize   uint32
	TimestampMs uint32
}

// Marshal encodes a single TocEntry.
func (e TocEntry) Marshal() []byte {
	b := make([]byte, TocEntrySize)
	binary.LittleEndian.PutUint32(b[0:4], e.FrameIndex)
	binary.LittleEndian.PutUint64(b[4:12], e.ByteOffset)
	binary.LittleEndian.PutUint32(b[12:16], e.FrameSize)
	binary.LittleEndian.PutUint32(b[16:20], e.TimestampMs)
	return b
}

// MarshalTOC encodes the full TOC chunk: a u32 LE entry count followed by
// the entries themselves (spec §3.2 invariant 2).
func MarshalTOC(entries []TocEntry) []byte {
	b := make([]byte, 4+TocEntrySize*len(entries))
	binary.LittleEndian.PutUint32(b[0:4], uint32(len(entries)))
	off := 4
	for _, e := range entries {
		copy(b[off:off+TocEntrySize], e.Marshal())
		off += TocEntrySize
	}
	return b
}

// UnmarshalTOC parses a TOC chunk of exactly tocSize bytes.
func UnmarshalTOC(b []byte) ([]TocEntry, error) {
	if len(b) < 4 {
		return nil, errors.New("frame: truncated TOC count")
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	want := 4 + TocEntrySize*int(n)
	if len(b) < want {
		return nil, errors.Errorf("frame: truncated TOC: got %d bytes, want %d for %d entries", len(b), want, n)
	}
	entries := make([]TocEntry, n)
	off := 4
	for i := range entries {
		e := b[off : off+TocEntrySize]
		entries[i] = TocEntry{
			FrameIndex:  binary.LittleEndian.Uint32(e[0:4]),
			ByteOffset:  binary.LittleEndian.Uint64(e[4:12]),
			FrameSize:   binary.LittleEndian.Uint32(e[12:16]),
			TimestampMs: binary.LittleEndian.Uint32(e[16:20]),
		}
		off += TocEntrySize
	}
	return entries, nil
}
