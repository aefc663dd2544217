package flo

import (
	"github.com/floaudio/flo/frame"
	"github.com/floaudio/flo/internal/bits"
)

// Validate checks that data is structurally well formed and that its
// DATA chunk's CRC-32 matches the header (spec §4.8's validate): it does
// not decode any audio, so it is cheap enough to run before committing to
// a full decode.
func Validate(data []byte) error {
	h, err := ReadHeader(data)
	if err != nil {
		return err
	}
	l := computeLayout(h)
	if len(data) < l.totalSize() {
		return &FormatError{Reason: "file shorter than its own header-declared chunk sizes"}
	}

	if _, err := frame.UnmarshalTOC(data[l.tocStart:l.tocEnd]); err != nil {
		return &FormatError{Reason: err.Error()}
	}

	got := bits.CRC32(data[l.dataStart:l.dataEnd])
	if got != h.DataCRC32 {
		return &DataError{Reason: "DATA chunk CRC-32 mismatch"}
	}
	return nil
}
