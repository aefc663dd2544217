// Package bits provides the MSB-first bit-level primitives used by the
// Rice codec, plus the CRC-32 used by the container and streaming code.
package bits

import (
	"bytes"

	"github.com/icza/bitio"
)

// Writer accumulates bits MSB-first into an internal buffer. Bit 0 of the
// logical stream occupies position 7 of the first byte, mirroring the
// teacher's use of icza/bitio for FLAC's bit-packed subframes.
type Writer struct {
	buf *bytes.Buffer
	bw  *bitio.Writer
}

// NewWriter returns a Writer ready to accept bits.
func NewWriter() *Writer {
	buf := new(bytes.Buffer)
	return &Writer{buf: buf, bw: bitio.NewWriter(buf)}
}

// WriteBit writes a single bit, 0 or 1.
func (w *Writer) WriteBit(bit uint64) error {
	return w.bw.WriteBits(bit, 1)
}

// WriteBits writes the n lowest bits of r, MSB-first.
func (w *Writer) WriteBits(r uint64, n uint8) error {
	if n == 0 {
		return nil
	}
	return w.bw.WriteBits(r, n)
}

// Bytes flushes any partial trailing byte (padded with zero bits, per
// spec §4.1) and returns the accumulated bitstream.
func (w *Writer) Bytes() ([]byte, error) {
	if err := w.bw.Close(); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// Reader reads bits MSB-first from a fixed byte slice. Unlike bitio.Reader
// directly, Reader never returns an error: reading past the end of the
// slice yields 0 bits, per spec §4.1, so residual decoding on a truncated
// or malformed payload degrades gracefully instead of failing.
type Reader struct {
	br    *bitio.Reader
	eof   bool
	total int
}

// NewReader returns a Reader over p.
func NewReader(p []byte) *Reader {
	return &Reader{br: bitio.NewReader(bytes.NewReader(p)), total: len(p) * 8}
}

// ReadBit reads a single bit, returning 0 once the underlying slice is
// exhausted.
func (r *Reader) ReadBit() uint64 {
	return r.ReadBits(1)
}

// ReadBits reads the n next bits MSB-first, zero-filling once the
// underlying slice is exhausted.
func (r *Reader) ReadBits(n uint8) uint64 {
	if n == 0 {
		return 0
	}
	if r.eof {
		return 0
	}
	v, err := r.br.ReadBits(n)
	if err != nil {
		// bitio surfaces io.EOF/io.ErrUnexpectedEOF once the stream runs dry
		// mid-read and does not expose how many of the n bits actually landed,
		// so the whole call is treated as zero bits delivered (spec §4.1).
		r.eof = true
		return 0
	}
	return v
}

// Exhausted reports whether the reader has consumed, or attempted to read
// past, the end of the underlying bytes.
func (r *Reader) Exhausted() bool {
	return r.eof
}
