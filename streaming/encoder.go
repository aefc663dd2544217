package streaming

import (
	"github.com/pkg/errors"

	"github.com/floaudio/flo/frame"
	"github.com/floaudio/flo/internal/bits"
	"github.com/floaudio/flo/lossless"
	"github.com/floaudio/flo/lossy"
)

// Encoder accepts PCM samples incrementally and emits one container frame
// as soon as it has enough buffered to fill one, so a caller can start
// transmitting a flo file before the whole recording is available (spec
// §4.9).
type Encoder struct {
	channels         int
	sampleRate       int
	lossy            bool
	quality          uint8
	compressionLevel uint8

	frameSamples int
	buffered     [][]int32
	lossyEnc     *lossy.Encoder
	flushed      bool

	toc        []frame.TocEntry
	dataBuf    []byte
	frameIndex uint32
}

// NewEncoder returns an Encoder for a stream with the given channel
// count, sample rate, and coding mode. lossyQuality is ignored when
// isLossy is false.
func NewEncoder(channels, sampleRate int, isLossy bool, lossyQuality, compressionLevel uint8) *Encoder {
	e := &Encoder{
		channels:         channels,
		sampleRate:       sampleRate,
		lossy:            isLossy,
		quality:          lossyQuality,
		compressionLevel: compressionLevel,
		buffered:         make([][]int32, channels),
	}
	if isLossy {
		e.frameSamples = frame.BlockLong.Coefficients()
		e.lossyEnc = lossy.NewEncoder(channels, sampleRate, lossyQuality)
	} else {
		e.frameSamples = sampleRate
	}
	return e
}

// PushSamples appends interleaved-by-channel PCM to the encoder's
// buffer. It does not itself produce frames; call NextFrame to drain
// complete ones.
func (e *Encoder) PushSamples(channels [][]int32) error {
	if len(channels) != e.channels {
		return errors.New("streaming: PushSamples channel count does not match encoder")
	}
	for c, samples := range channels {
		e.buffered[c] = append(e.buffered[c], samples...)
	}
	return nil
}

// NextFrame encodes and returns the next frame if enough samples are
// buffered to fill one, or (nil, false, nil) if not. Every emitted frame
// is also appended to the encoder's internal TOC and DATA accumulation
// for eventual Finalize.
func (e *Encoder) NextFrame() (*frame.Frame, bool, error) {
	if len(e.buffered[0]) < e.frameSamples {
		return nil, false, nil
	}
	return e.encodeOneFrame(e.frameSamples)
}

// Flush encodes whatever is left in the buffer as a final, possibly
// short, frame (zero-padded for a lossy stream). For a lossy stream it
// also emits one trailing all-zero flush frame after that, since the
// transform's overlap-add carries a one-hop delay and the last real
// hop's tail is otherwise never recoverable (spec §4.7, §4.9); repeated
// calls after the first are no-ops. It returns (nil, false, nil) if
// there is nothing left to flush.
func (e *Encoder) Flush() (*frame.Frame, bool, error) {
	if e.lossy {
		if e.flushed {
			return nil, false, nil
		}
		e.flushed = true
		if len(e.buffered[0]) > 0 {
			if _, _, err := e.encodeOneFrame(len(e.buffered[0])); err != nil {
				return nil, false, err
			}
		}
		flush := make([][]int32, e.channels)
		for c := range flush {
			flush[c] = make([]int32, 0)
		}
		f, err := e.encodeLossyFrame(flush)
		if err != nil {
			return nil, false, err
		}
		e.appendToContainer(f)
		return f, true, nil
	}
	if len(e.buffered[0]) == 0 {
		return nil, false, nil
	}
	return e.encodeOneFrame(len(e.buffered[0]))
}

func (e *Encoder) encodeOneFrame(n int) (*frame.Frame, bool, error) {
	chunk := make([][]int32, e.channels)
	for c := range chunk {
		chunk[c] = e.buffered[c][:n]
		e.buffered[c] = e.buffered[c][n:]
	}

	var f *frame.Frame
	var err error
	if e.lossy {
		f, err = e.encodeLossyFrame(chunk)
	} else {
		f, err = lossless.EncodeFrame(chunk, lossless.MaxOrderForLevel(e.compressionLevel), e.frameIndex)
	}
	if err != nil {
		return nil, false, err
	}

	e.appendToContainer(f)
	return f, true, nil
}

func (e *Encoder) encodeLossyFrame(chunk [][]int32) (*frame.Frame, error) {
	floatChunk := make([][]float64, len(chunk))
	for c, samples := range chunk {
		fc := make([]float64, len(samples))
		for i, s := range samples {
			fc[i] = float64(s)
		}
		floatChunk[c] = fc
	}
	tf, err := e.lossyEnc.EncodeFrame(floatChunk, frame.BlockLong)
	if err != nil {
		return nil, err
	}
	return &frame.Frame{
		Type:     frame.TypeTransform,
		Samples:  uint32(len(chunk[0])),
		Channels: [][]byte{tf.Marshal()},
	}, nil
}

func (e *Encoder) appendToContainer(f *frame.Frame) {
	raw := f.Marshal()
	offset := uint64(len(e.dataBuf))
	e.dataBuf = append(e.dataBuf, raw...)

	e.toc = append(e.toc, frame.TocEntry{
		FrameIndex:  e.frameIndex,
		ByteOffset:  offset,
		FrameSize:   uint32(len(raw)),
		TimestampMs: e.frameIndex * 1000,
	})
	e.frameIndex++
}

// Finalize flushes any remaining buffered samples, then assembles and
// returns the complete file bytes: magic, header, TOC, DATA, and an
// empty extra/metadata tail. bitDepth is recorded in the header verbatim;
// this encoder does not itself dither or requantize to it.
func (e *Encoder) Finalize(bitDepth uint8) ([]byte, error) {
	if _, _, err := e.Flush(); err != nil {
		return nil, errors.Wrap(err, "streaming: flushing final frame")
	}

	tocBytes := frame.MarshalTOC(e.toc)
	crc := bits.CRC32(e.dataBuf)

	h := &frame.Header{
		VersionMajor:     1,
		VersionMinor:     0,
		SampleRate:       uint32(e.sampleRate),
		Channels:         uint8(e.channels),
		BitDepth:         bitDepth,
		TotalFrames:      uint64(len(e.toc)),
		CompressionLevel: e.compressionLevel,
		DataCRC32:        crc,
		HeaderSize:       frame.Size,
		TocSize:          uint64(len(tocBytes)),
		DataSize:         uint64(len(e.dataBuf)),
		ExtraSize:        0,
		MetaSize:         0,
	}
	if e.lossy {
		h.Flags |= frame.FlagLossy
		h.SetLossyQuality(e.quality)
	}

	out := make([]byte, 0, 4+frame.Size+len(tocBytes)+len(e.dataBuf))
	out = append(out, frame.Magic[:]...)
	out = append(out, h.Marshal()...)
	out = append(out, tocBytes...)
	out = append(out, e.dataBuf...)
	return out, nil
}
