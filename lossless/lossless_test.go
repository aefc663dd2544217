package lossless

import (
	"math"
	"reflect"
	"testing"

	"github.com/floaudio/flo/frame"
	"github.com/floaudio/flo/lpc"
)

func sineSamples(n int, amplitude float64, cycles float64) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(amplitude * math.Sin(2*math.Pi*cycles*float64(i)/float64(n)))
	}
	return out
}

func TestEncodeDecodeFrameSilence(t *testing.T) {
	channels := [][]int32{make([]int32, 256), make([]int32, 256)}
	f, err := EncodeFrame(channels, lpc.MaxOrder, 0)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	got, err := DecodeFrame(f, 2)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if !reflect.DeepEqual(got, channels) {
		t.Fatalf("silence round trip mismatch: got %v", got)
	}
}

func TestEncodeDecodeFrameMono(t *testing.T) {
	samples := sineSamples(1024, 1000, 7)
	f, err := EncodeFrame([][]int32{samples}, 8, 0)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	got, err := DecodeFrame(f, 1)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if !reflect.DeepEqual(got[0], samples) {
		t.Fatalf("round trip mismatch at first difference")
	}
}

func TestEncodeDecodeFrameStereoMidSide(t *testing.T) {
	left := sineSamples(2048, 2000, 11)
	right := sineSamples(2048, 1900, 11)
	f, err := EncodeFrame([][]int32{left, right}, 8, 0)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	got, err := DecodeFrame(f, 2)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if !reflect.DeepEqual(got[0], left) {
		t.Fatal("left channel round trip mismatch")
	}
	if !reflect.DeepEqual(got[1], right) {
		t.Fatal("right channel round trip mismatch")
	}
}

func TestEncodeFrameSilenceProducesSilenceType(t *testing.T) {
	channels := [][]int32{make([]int32, 512)}
	f, err := EncodeFrame(channels, 8, 0)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if f.Type != frame.TypeSilence {
		t.Fatalf("Type = %d, want TypeSilence", f.Type)
	}
	got, err := DecodeFrame(f, 1)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	for _, s := range got[0] {
		if s != 0 {
			t.Fatal("decoded silence frame is not all zero")
		}
	}
}

func TestEncodeFrameRejectsMismatchedChannelLengths(t *testing.T) {
	_, err := EncodeFrame([][]int32{make([]int32, 10), make([]int32, 20)}, 8, 0)
	if err == nil {
		t.Fatal("expected error for mismatched channel lengths")
	}
}

func TestMaxOrderForLevel(t *testing.T) {
	cases := map[uint8]int{0: 0, 1: 4, 2: 4, 3: 8, 5: 8, 6: 12, 8: 12}
	for level, want := range cases {
		if got := MaxOrderForLevel(level); got != want {
			t.Errorf("MaxOrderForLevel(%d) = %d, want %d", level, got, want)
		}
	}
}

func TestRawFrameRoundTrip(t *testing.T) {
	samples := []int16{100, -200, 300, -400}
	blob := make([]byte, len(samples)*2)
	for i, s := range samples {
		blob[2*i] = byte(uint16(s))
		blob[2*i+1] = byte(uint16(s) >> 8)
	}
	f := &frame.Frame{Type: frame.TypeRaw, Samples: uint32(len(samples)), Channels: [][]byte{blob}}
	got, err := DecodeFrame(f, 1)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	for i, s := range samples {
		if got[0][i] != int32(s) {
			t.Fatalf("sample %d: got %d, want %d", i, got[0][i], s)
		}
	}
}
