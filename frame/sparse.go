package frame

import "encoding/binary"

// encodeSparse packs quantized coefficients as a repeating run of
// (zero_count varint, nonzero_count u8, values i16 LE * nonzero_count),
// the wire format for the lossy encoder's post-quantization coefficient
// vector (spec §3.1). Runs of nonzero values are capped at 255 per run so
// nonzero_count always fits a byte; a run is flushed whenever a zero is
// seen or the cap is hit.
func encodeSparse(coeffs []int16) []byte {
	var out []byte
	var zeroRun uint64
	var nonzero []int16

	flush := func() {
		if zeroRun == 0 && len(nonzero) == 0 {
			return
		}
		out = appendVarint(out, zeroRun)
		out = append(out, byte(len(nonzero)))
		for _, v := range nonzero {
			out = binary.LittleEndian.AppendUint16(out, uint16(v))
		}
		zeroRun = 0
		nonzero = nonzero[:0]
	}

	for _, c := range coeffs {
		if c == 0 {
			if len(nonzero) > 0 {
				flush()
			}
			zeroRun++
			continue
		}
		nonzero = append(nonzero, c)
		if len(nonzero) == 255 {
			flush()
		}
	}
	flush()
	return out
}

// decodeSparse inverts encodeSparse, filling exactly n coefficients.
// Malformed input (a zero-count or nonzero-count that would overrun the
// output) truncates the run rather than failing, consistent with this
// format's tolerance for corrupt tails (spec §7).
func decodeSparse(b []byte, n int) []int16 {
	out := make([]int16, n)
	pos := 0
	off := 0
	for pos < n && off < len(b) {
		zeroCount, next := readVarint(b, off)
		off = next
		if zeroCount > uint64(n-pos) {
			zeroCount = uint64(n - pos)
		}
		pos += int(zeroCount)

		if off >= len(b) || pos >= n {
			break
		}
		nonzeroCount := int(b[off])
		off++
		for i := 0; i < nonzeroCount && pos < n; i++ {
			if off+2 > len(b) {
				return out
			}
			out[pos] = int16(binary.LittleEndian.Uint16(b[off : off+2]))
			off += 2
			pos++
		}
	}
	return out
}
