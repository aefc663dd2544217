// Package flo implements the flo audio container: a frame-addressable
// format supporting both bit-exact lossless and MDCT-based lossy
// encoding, random-access seeking via a table of contents, and a
// MessagePack metadata blob that can be replaced without touching the
// audio payload.
package flo

import "github.com/floaudio/flo/frame"

// Info is a convenience read-only view over a flo file's header, the
// way libflo's AudioInfo summarizes a stream without requiring a caller
// to decode any audio (SPEC_FULL.md §13 item 2).
type Info struct {
	VersionMajor    uint8
	VersionMinor    uint8
	SampleRate      uint32
	Channels        uint8
	BitDepth        uint8
	TotalFrames     uint64
	// DurationSecs is TotalFrames for a lossless file, where each frame
	// covers one second of audio (a shorter final frame counts as a whole
	// second); for a lossy file TotalFrames counts MDCT hops, including
	// the pre-roll and flush frames, so this is only a rough estimate.
	DurationSecs    float64
	FileSize        int
	CompressionRatio float64
	CRCValid        bool
	IsLossy         bool
	LossyQuality    uint8
}

// Inspect parses data's header and TOC, validates the CRC, and returns a
// summary without decoding any audio samples.
func Inspect(data []byte) (*Info, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	l := computeLayout(h)
	if len(data) < l.totalSize() {
		return nil, &FormatError{Reason: "file shorter than its own header-declared chunk sizes"}
	}

	info := &Info{
		VersionMajor: h.VersionMajor,
		VersionMinor: h.VersionMinor,
		SampleRate:   h.SampleRate,
		Channels:     h.Channels,
		BitDepth:     h.BitDepth,
		TotalFrames:  h.TotalFrames,
		FileSize:     l.totalSize(),
		IsLossy:      h.IsLossy(),
		LossyQuality: h.LossyQuality(),
	}
	if h.IsLossy() {
		if h.SampleRate > 0 {
			info.DurationSecs = float64(h.TotalFrames) * float64(frame.BlockLong.Coefficients()) / float64(h.SampleRate)
		}
	} else {
		info.DurationSecs = float64(h.TotalFrames)
	}
	rawSize := info.DurationSecs * float64(h.SampleRate) * float64(h.Channels) * float64(h.BitDepth/8)
	if rawSize > 0 {
		info.CompressionRatio = float64(rawSize) / float64(h.DataSize)
	}

	info.CRCValid = Validate(data) == nil

	return info, nil
}
