package flo

import (
	"github.com/pkg/errors"

	"github.com/floaudio/flo/frame"
	"github.com/floaudio/flo/internal/bits"
	"github.com/floaudio/flo/lossless"
	"github.com/floaudio/flo/lossy"
	"github.com/floaudio/flo/meta"
)

// Decode parses a complete flo file and returns its audio as
// interleaved-by-channel PCM, its header as an Info, and its metadata (nil
// if the file carries none). It validates the DATA chunk's CRC-32 before
// decoding any frame.
func Decode(data []byte) (channels [][]int32, info *Info, metadata *meta.FloMetadata, err error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, nil, nil, err
	}
	l := computeLayout(h)
	if len(data) < l.totalSize() {
		return nil, nil, nil, &FormatError{Reason: "file shorter than its own header-declared chunk sizes"}
	}

	if got := bits.CRC32(data[l.dataStart:l.dataEnd]); got != h.DataCRC32 {
		return nil, nil, nil, &DataError{Reason: "DATA chunk CRC-32 mismatch"}
	}

	toc, err := frame.UnmarshalTOC(data[l.tocStart:l.tocEnd])
	if err != nil {
		return nil, nil, nil, &FormatError{Reason: err.Error()}
	}

	numChannels := int(h.Channels)
	channels = make([][]int32, numChannels)

	var lossyDec *lossy.Decoder
	if h.IsLossy() {
		lossyDec = lossy.NewDecoder(numChannels, int(h.SampleRate))
	}

	for idx, entry := range toc {
		start := l.dataStart + int(entry.ByteOffset)
		end := start + int(entry.FrameSize)
		if end > l.dataEnd {
			return nil, nil, nil, &DataError{Reason: "TOC entry overruns DATA chunk"}
		}
		f, err := frame.Unmarshal(data[start:end], numChannels)
		if err != nil {
			return nil, nil, nil, &DataError{Reason: err.Error()}
		}

		var decoded [][]int32
		if h.IsLossy() {
			decoded, err = decodeLossyFrame(lossyDec, f)
		} else {
			decoded, err = lossless.DecodeFrame(f, numChannels)
		}
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "flo: decoding frame %d", entry.FrameIndex)
		}
		// Frame 0 of a lossy stream reconstructs the silent pre-roll the
		// encoder's overlap-add implicitly prepends, not real audio; it
		// is decoded (to advance the IMDCT's overlap state) but dropped
		// from the output (spec §4.7, §4.9).
		if h.IsLossy() && idx == 0 {
			continue
		}
		for c := range channels {
			channels[c] = append(channels[c], decoded[c]...)
		}
	}

	info = &Info{
		VersionMajor: h.VersionMajor,
		VersionMinor: h.VersionMinor,
		SampleRate:   h.SampleRate,
		Channels:     h.Channels,
		BitDepth:     h.BitDepth,
		TotalFrames:  h.TotalFrames,
		FileSize:     l.totalSize(),
		IsLossy:      h.IsLossy(),
		LossyQuality: h.LossyQuality(),
		CRCValid:     true,
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

	if h.MetaSize > 0 {
		metadata, err = meta.Unmarshal(data[l.metaStart:l.metaEnd])
		if err != nil {
			return nil, nil, nil, &SerializationError{Reason: "decoding metadata blob", Err: err}
		}
	}

	return channels, info, metadata, nil
}

func decodeLossyFrame(dec *lossy.Decoder, f *frame.Frame) ([][]int32, error) {
	if len(f.Channels) != 1 {
		return nil, errors.New("flo: transform frame must carry exactly one blob")
	}
	tf, err := frame.UnmarshalTransformFrame(f.Channels[0])
	if err != nil {
		return nil, err
	}
	floatChannels, err := dec.DecodeFrame(tf)
	if err != nil {
		return nil, err
	}
	out := make([][]int32, len(floatChannels))
	for c, samples := range floatChannels {
		ic := make([]int32, len(samples))
		for i, s := range samples {
			ic[i] = int32(s)
		}
		out[c] = ic
	}
	return out, nil
}
