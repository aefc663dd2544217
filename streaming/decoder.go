// Package streaming implements the incremental decoder and encoder (C9):
// a decoder state machine that consumes bytes as they arrive over a
// network connection rather than requiring the whole file up front, and
// an encoder that accepts samples incrementally and emits frames as soon
// as each has enough audio to fill one.
package streaming

import (
	"math"

	"github.com/pkg/errors"

	"github.com/floaudio/flo/frame"
	"github.com/floaudio/flo/lossless"
	"github.com/floaudio/flo/lossy"
)

// State names a StreamingDecoder's position in the container parse (spec
// §4.9): it must see the magic and fixed header, then the TOC, before any
// frame in DATA can be decoded.
type State int

// Decoder states.
const (
	StateWaitingForHeader State = iota
	StateWaitingForToc
	StateReady
	StateFinished
	StateError
)

func (s State) String() string {
	switch s {
	case StateWaitingForHeader:
		return "waiting_for_header"
	case StateWaitingForToc:
		return "waiting_for_toc"
	case StateReady:
		return "ready"
	case StateFinished:
		return "finished"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrFrameNotAvailable is returned by NextFrame when the next frame in
// the TOC has not yet been fully received.
var ErrFrameNotAvailable = errors.New("streaming: next frame not fully buffered yet")

// ErrNoMoreFrames is returned by NextFrame once every TOC entry has been
// consumed.
var ErrNoMoreFrames = errors.New("streaming: no more frames in this stream")

// Decoder incrementally parses a flo file as bytes arrive, making frames
// available for decode as soon as each one's bytes are fully buffered.
type Decoder struct {
	state State
	err   error

	pending []byte
	header  *frame.Header
	toc     []frame.TocEntry
	dataBuf []byte

	frameCursor int
	lossyDec    *lossy.Decoder
}

// NewDecoder returns a Decoder ready to accept bytes from the start of a
// file via Feed.
func NewDecoder() *Decoder {
	return &Decoder{state: StateWaitingForHeader}
}

// State reports the decoder's current position in the parse.
func (d *Decoder) State() State { return d.state }

// Header returns the parsed file header, or nil before StateReady.
func (d *Decoder) Header() *frame.Header { return d.header }

// Feed appends newly received bytes and advances the parse as far as
// possible. It returns the first parse error encountered, after which
// the decoder enters StateError and further Feed calls return that same
// error without consuming more bytes.
func (d *Decoder) Feed(p []byte) error {
	if d.state == StateError {
		return d.err
	}
	if d.state == StateFinished {
		return errors.New("streaming: decoder has already consumed every frame")
	}
	d.pending = append(d.pending, p...)
	d.advance()
	return d.err
}

func (d *Decoder) advance() {
	for {
		switch d.state {
		case StateWaitingForHeader:
			need := 4 + frame.Size
			if len(d.pending) < need {
				return
			}
			if d.pending[0] != frame.Magic[0] || d.pending[1] != frame.Magic[1] ||
				d.pending[2] != frame.Magic[2] || d.pending[3] != frame.Magic[3] {
				d.fail(errors.New("streaming: bad magic"))
				return
			}
			h, err := frame.UnmarshalHeader(d.pending[4:need])
			if err != nil {
				d.fail(err)
				return
			}
			d.header = h
			d.pending = append([]byte(nil), d.pending[need:]...)
			d.state = StateWaitingForToc

		case StateWaitingForToc:
			if uint64(len(d.pending)) < d.header.TocSize {
				return
			}
			toc, err := frame.UnmarshalTOC(d.pending[:d.header.TocSize])
			if err != nil {
				d.fail(err)
				return
			}
			d.toc = toc
			d.pending = append([]byte(nil), d.pending[d.header.TocSize:]...)
			if d.header.IsLossy() {
				d.lossyDec = lossy.NewDecoder(int(d.header.Channels), int(d.header.SampleRate))
			}
			d.state = StateReady

		case StateReady:
			if len(d.pending) == 0 {
				return
			}
			d.dataBuf = append(d.dataBuf, d.pending...)
			d.pending = nil
			return

		default:
			return
		}
	}
}

func (d *Decoder) fail(err error) {
	d.state = StateError
	d.err = err
}

// AvailableFrames reports how many TOC entries, starting from the next
// undecoded one, are fully present in the buffered DATA bytes.
func (d *Decoder) AvailableFrames() int {
	if d.state != StateReady {
		return 0
	}
	count := 0
	for i := d.frameCursor; i < len(d.toc); i++ {
		e := d.toc[i]
		if uint64(len(d.dataBuf)) >= e.ByteOffset+uint64(e.FrameSize) {
			count++
		} else {
			break
		}
	}
	return count
}

// NextFrame parses and returns the next frame once its bytes are fully
// buffered, advancing the internal cursor. It returns ErrFrameNotAvailable
// if the frame is still incomplete, or ErrNoMoreFrames once the TOC is
// exhausted.
func (d *Decoder) NextFrame() (*frame.Frame, error) {
	if d.state == StateError {
		return nil, d.err
	}
	if d.state != StateReady {
		return nil, errors.Errorf("streaming: cannot read a frame in state %s", d.state)
	}
	if d.frameCursor >= len(d.toc) {
		return nil, ErrNoMoreFrames
	}
	e := d.toc[d.frameCursor]
	end := e.ByteOffset + uint64(e.FrameSize)
	if uint64(len(d.dataBuf)) < end {
		return nil, ErrFrameNotAvailable
	}
	raw := d.dataBuf[e.ByteOffset:end]
	f, err := frame.Unmarshal(raw, int(d.header.Channels))
	if err != nil {
		d.fail(err)
		return nil, err
	}
	d.frameCursor++
	if d.frameCursor == len(d.toc) {
		d.state = StateFinished
	}
	return f, nil
}

// DecodeAvailable decodes every currently available frame to PCM,
// returning the concatenated per-channel samples. It returns (nil, nil)
// if no complete frame is buffered yet.
func (d *Decoder) DecodeAvailable() ([][]int32, error) {
	avail := d.AvailableFrames()
	if avail == 0 {
		return nil, nil
	}
	channels := int(d.header.Channels)
	out := make([][]int32, channels)

	for i := 0; i < avail; i++ {
		idx := d.frameCursor
		f, err := d.NextFrame()
		if err != nil {
			return nil, err
		}

		var decoded [][]int32
		if d.header.IsLossy() {
			if f.Type != frame.TypeTransform {
				return nil, errors.New("streaming: lossy stream contains a non-transform frame")
			}
			tf, err := frame.UnmarshalTransformFrame(f.Channels[0])
			if err != nil {
				return nil, err
			}
			samples, err := d.lossyDec.DecodeFrame(tf)
			if err != nil {
				return nil, err
			}
			decoded = quantizeToInt(samples)
		} else {
			decoded, err = lossless.DecodeFrame(f, channels)
			if err != nil {
				return nil, err
			}
		}

		// Frame 0 of a lossy stream is the silent pre-roll hop; decode
		// it to advance the IMDCT's overlap state but drop it from the
		// output (spec §4.7, §4.9).
		if d.header.IsLossy() && idx == 0 {
			continue
		}
		for c := range out {
			out[c] = append(out[c], decoded[c]...)
		}
	}
	return out, nil
}

func quantizeToInt(channels [][]float64) [][]int32 {
	out := make([][]int32, len(channels))
	for c, samples := range channels {
		conv := make([]int32, len(samples))
		for i, v := range samples {
			r := math.Round(v)
			if r > 32767 {
				r = 32767
			}
			if r < -32768 {
				r = -32768
			}
			conv[i] = int32(r)
		}
		out[c] = conv
	}
	return out
}

// Reset returns the decoder to its initial state, discarding all buffered
// bytes and parsed state, so it can be reused for a new stream.
func (d *Decoder) Reset() {
	*d = Decoder{state: StateWaitingForHeader}
}
