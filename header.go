package flo

import (
	"fmt"

	"github.com/floaudio/flo/frame"
)

// ReadHeader parses just the magic and fixed header from the start of
// data, without touching the TOC, DATA, or metadata that follow (spec
// §4.8's read_header: cheap enough to call on a byte-range request for
// just the first 70 bytes of a remote file).
func ReadHeader(data []byte) (*frame.Header, error) {
	need := 4 + frame.Size
	if len(data) < need {
		return nil, &FormatError{Reason: "too short to contain a flo header"}
	}
	if data[0] != frame.Magic[0] || data[1] != frame.Magic[1] ||
		data[2] != frame.Magic[2] || data[3] != frame.Magic[3] {
		return nil, &FormatError{Reason: "bad magic"}
	}
	h, err := frame.UnmarshalHeader(data[4:need])
	if err != nil {
		return nil, &FormatError{Reason: err.Error()}
	}
	if h.VersionMajor != 1 {
		return nil, &FormatError{Reason: fmt.Sprintf("unsupported major version %d", h.VersionMajor)}
	}
	return h, nil
}
