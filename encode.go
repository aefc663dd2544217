package flo

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/floaudio/flo/frame"
	"github.com/floaudio/flo/internal/bits"
	"github.com/floaudio/flo/lossless"
	"github.com/floaudio/flo/lossy"
	"github.com/floaudio/flo/meta"
)

// EncodeOptions controls how Encode packages a complete PCM buffer into a
// flo file.
type EncodeOptions struct {
	SampleRate       int
	BitDepth         uint8
	Lossy            bool
	LossyQuality     uint8
	CompressionLevel uint8
}

// Encode assembles a complete flo file from interleaved-by-channel PCM
// samples, encoding every frame up front rather than incrementally (spec
// §4.1's non-streaming encode path; see the streaming package for
// incremental encoding). metadata may be nil for a file with no tags.
//
// Lossless frames each cover one second of audio (sample_rate samples,
// spec §2, §4.6). Lossy frames each cover one MDCT hop; because the
// transform's overlap-add carries a one-hop delay, Encode appends one
// trailing all-zero flush frame so the last hop's tail is recoverable,
// and the decoder drops the corresponding pre-roll frame at the other
// end (spec §4.7, §4.9). Either way, total_frames in the header and the
// TOC entry count are kept equal (spec §3.2 invariant 3).
func Encode(channels [][]int32, opts EncodeOptions, metadata *meta.FloMetadata) ([]byte, error) {
	if len(channels) == 0 {
		return nil, &RangeError{Field: "channels", Value: 0}
	}
	if opts.SampleRate <= 0 {
		return nil, &RangeError{Field: "SampleRate", Value: opts.SampleRate}
	}
	numChannels := len(channels)
	numSamples := len(channels[0])
	for _, ch := range channels {
		if len(ch) != numSamples {
			return nil, &DataError{Reason: "channels have mismatched sample counts"}
		}
	}

	frameSamples := opts.SampleRate
	var lossyEnc *lossy.Encoder
	if opts.Lossy {
		frameSamples = frame.BlockLong.Coefficients()
		lossyEnc = lossy.NewEncoder(numChannels, opts.SampleRate, opts.LossyQuality)
	}

	var toc []frame.TocEntry
	var dataBuf []byte
	var frameIndex uint32

	appendFrame := func(f *frame.Frame) {
		raw := f.Marshal()
		offset := uint64(len(dataBuf))
		dataBuf = append(dataBuf, raw...)
		toc = append(toc, frame.TocEntry{
			FrameIndex:  frameIndex,
			ByteOffset:  offset,
			FrameSize:   uint32(len(raw)),
			TimestampMs: frameIndex * 1000,
		})
		frameIndex++
	}

	for start := 0; start < numSamples; start += frameSamples {
		end := start + frameSamples
		if end > numSamples {
			end = numSamples
		}
		chunk := make([][]int32, numChannels)
		for c := range chunk {
			chunk[c] = channels[c][start:end]
		}

		var f *frame.Frame
		var err error
		if opts.Lossy {
			f, err = encodeLossyChunk(lossyEnc, chunk)
		} else {
			f, err = lossless.EncodeFrame(chunk, lossless.MaxOrderForLevel(opts.CompressionLevel), frameIndex)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "flo: encoding frame %d", frameIndex)
		}
		appendFrame(f)
	}

	if opts.Lossy {
		flush := make([][]int32, numChannels)
		for c := range flush {
			flush[c] = make([]int32, 0)
		}
		f, err := encodeLossyChunk(lossyEnc, flush)
		if err != nil {
			return nil, errors.Wrap(err, "flo: encoding lossy flush frame")
		}
		appendFrame(f)
	}

	var metaBytes []byte
	if metadata != nil && !metadata.IsEmpty() {
		var err error
		metaBytes, err = metadata.Marshal()
		if err != nil {
			return nil, &SerializationError{Reason: "encoding metadata blob", Err: err}
		}
	}

	tocBytes := frame.MarshalTOC(toc)
	crc := bits.CRC32(dataBuf)

	h := &frame.Header{
		VersionMajor:     1,
		VersionMinor:     0,
		SampleRate:       uint32(opts.SampleRate),
		Channels:         uint8(numChannels),
		BitDepth:         opts.BitDepth,
		TotalFrames:      uint64(len(toc)),
		CompressionLevel: opts.CompressionLevel,
		DataCRC32:        crc,
		HeaderSize:       frame.Size,
		TocSize:          uint64(len(tocBytes)),
		DataSize:         uint64(len(dataBuf)),
		ExtraSize:        0,
		MetaSize:         uint64(len(metaBytes)),
	}
	if opts.Lossy {
		h.Flags |= frame.FlagLossy
		h.SetLossyQuality(opts.LossyQuality)
	}

	out := make([]byte, 0, 4+frame.Size+len(tocBytes)+len(dataBuf)+len(metaBytes))
	out = append(out, frame.Magic[:]...)
	out = append(out, h.Marshal()...)
	out = append(out, tocBytes...)
	out = append(out, dataBuf...)
	out = append(out, metaBytes...)

	logger.Debug("encoded flo file",
		zap.Int("frames", int(frameIndex)),
		zap.Int("bytes", len(out)),
		zap.Bool("lossy", opts.Lossy),
	)

	return out, nil
}

func encodeLossyChunk(enc *lossy.Encoder, chunk [][]int32) (*frame.Frame, error) {
	floatChunk := make([][]float64, len(chunk))
	for c, samples := range chunk {
		fc := make([]float64, len(samples))
		for i, s := range samples {
			fc[i] = float64(s)
		}
		floatChunk[c] = fc
	}
	tf, err := enc.EncodeFrame(floatChunk, frame.BlockLong)
	if err != nil {
		return nil, err
	}
	return &frame.Frame{
		Type:    frame.TypeTransform,
		Samples: uint32(len(chunk[0])),
		Channels: [][]byte{tf.Marshal()},
	}, nil
}
