package frame

import (
	"reflect"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := &Header{
		VersionMajor:     1,
		VersionMinor:     0,
		SampleRate:       48000,
		Channels:         2,
		BitDepth:         16,
		TotalFrames:      44100 * 3,
		CompressionLevel: 5,
		DataCRC32:        0xDEADBEEF,
		HeaderSize:       Size,
		TocSize:          128,
		DataSize:         4096,
		ExtraSize:        0,
		MetaSize:         64,
	}
	h.SetLossyQuality(3)

	b := h.Marshal()
	if len(b) != Size {
		t.Fatalf("Marshal: got %d bytes, want %d", len(b), Size)
	}

	got, err := UnmarshalHeader(b)
	if err != nil {
		t.Fatalf("UnmarshalHeader: %v", err)
	}
	if !got.IsLossy() || got.LossyQuality() != 3 {
		t.Fatalf("lossy flag/quality not preserved: flags=%#x", got.Flags)
	}
	got.Flags = h.Flags // already checked above; compare the rest structurally
	if !reflect.DeepEqual(h, got) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestHeaderRejectsBadSize(t *testing.T) {
	if _, err := UnmarshalHeader(make([]byte, Size-1)); err == nil {
		t.Fatal("expected error for truncated header")
	}
	b := (&Header{HeaderSize: Size + 1}).Marshal()
	if _, err := UnmarshalHeader(b); err == nil {
		t.Fatal("expected error for header_size mismatch")
	}
}

func TestTocRoundTrip(t *testing.T) {
	entries := []TocEntry{
		{FrameIndex: 0, ByteOffset: 0, FrameSize: 512, TimestampMs: 0},
		{FrameIndex: 1, ByteOffset: 512, FrameSize: 480, TimestampMs: 1000},
	}
	b := MarshalTOC(entries)
	got, err := UnmarshalTOC(b)
	if err != nil {
		t.Fatalf("UnmarshalTOC: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Fatalf("got %+v, want %+v", got, entries)
	}
}

func TestTocRejectsTruncation(t *testing.T) {
	b := MarshalTOC([]TocEntry{{FrameIndex: 0}})
	if _, err := UnmarshalTOC(b[:len(b)-1]); err == nil {
		t.Fatal("expected error for truncated TOC")
	}
}

func TestChannelDataRoundTripRice(t *testing.T) {
	c := &ChannelData{
		Coeffs:        []int32{1000, -500, 250},
		ShiftBits:     10,
		Encoding:      ResidualRice,
		RiceParameter: 4,
		Residual:      []byte{0xAB, 0xCD, 0xEF},
	}
	got, err := UnmarshalChannelData(c.Marshal())
	if err != nil {
		t.Fatalf("UnmarshalChannelData: %v", err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Fatalf("got %+v, want %+v", got, c)
	}
	if got.IsFixed() {
		t.Fatal("adaptive LPC channel reported as fixed")
	}
}

func TestChannelDataRoundTripFixedRaw(t *testing.T) {
	c := &ChannelData{
		Coeffs:    nil,
		ShiftBits: FixedOrderBase + 2,
		Encoding:  ResidualRaw,
		Residual:  []byte{0x01, 0x00, 0x02, 0x00},
	}
	got, err := UnmarshalChannelData(c.Marshal())
	if err != nil {
		t.Fatalf("UnmarshalChannelData: %v", err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Fatalf("got %+v, want %+v", got, c)
	}
	if !got.IsFixed() || got.FixedOrder() != 2 {
		t.Fatalf("fixed predictor order not recovered: IsFixed=%v order=%d", got.IsFixed(), got.FixedOrder())
	}
}

func TestChannelDataRejectsOversizedCoeffCount(t *testing.T) {
	b := []byte{13, 0, 0}
	if _, err := UnmarshalChannelData(b); err == nil {
		t.Fatal("expected error for coeff_count > 12")
	}
}

func TestFrameRoundTripALPC(t *testing.T) {
	f := &Frame{
		Type:    FromOrder(4),
		Samples: 4096,
		Flags:   FlagMidSide,
		Channels: [][]byte{
			{0x01, 0x02, 0x03},
			{0x04, 0x05},
		},
	}
	b := f.Marshal()
	if len(b) != f.ByteSize() {
		t.Fatalf("ByteSize mismatch: Marshal produced %d, ByteSize reported %d", len(b), f.ByteSize())
	}
	got, err := Unmarshal(b, 2)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, f) {
		t.Fatalf("got %+v, want %+v", got, f)
	}
	if !got.IsMidSide() {
		t.Fatal("mid/side flag not preserved")
	}
}

func TestFrameRoundTripTransformIgnoresChannelCount(t *testing.T) {
	f := &Frame{
		Type:     TypeTransform,
		Samples:  2048,
		Channels: [][]byte{{0xAA, 0xBB}},
	}
	// A transform frame always has exactly one blob regardless of the
	// stream's channel count, since the TransformFrame it contains packs
	// all channels together.
	got, err := Unmarshal(f.Marshal(), 2)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Channels) != 1 {
		t.Fatalf("got %d channel blobs, want 1", len(got.Channels))
	}
}

func TestFrameUnmarshalRejectsTruncation(t *testing.T) {
	f := &Frame{Type: TypeSilence, Channels: [][]byte{{1, 2, 3}}}
	b := f.Marshal()
	if _, err := Unmarshal(b[:len(b)-1], 1); err == nil {
		t.Fatal("expected error for truncated channel blob")
	}
	if _, err := Unmarshal(b[:4], 1); err == nil {
		t.Fatal("expected error for truncated frame envelope")
	}
}

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 255, 300, 16384, 1 << 40}
	for _, v := range values {
		b := appendVarint(nil, v)
		got, off := readVarint(b, 0)
		if got != v || off != len(b) {
			t.Errorf("varint(%d): got %d at offset %d, want %d at %d", v, got, off, v, len(b))
		}
	}
}

func TestReadVarintTruncated(t *testing.T) {
	// A varint whose continuation bit is set on every byte, with the
	// buffer running out, must stop rather than loop forever.
	b := []byte{0x80, 0x80, 0x80}
	_, off := readVarint(b, 0)
	if off != len(b) {
		t.Fatalf("got offset %d, want %d", off, len(b))
	}
}

func TestSparseRoundTrip(t *testing.T) {
	cases := [][]int16{
		{},
		{0, 0, 0, 0},
		{1, 2, 3},
		{0, 1, 0, 0, -2, 0, 3, 0, 0, 0},
		make([]int16, 600), // an all-zero run long enough to need a multi-byte varint
	}
	for _, c := range cases {
		b := encodeSparse(c)
		got := decodeSparse(b, len(c))
		if !reflect.DeepEqual(got, c) {
			t.Errorf("sparse round trip mismatch for %v: got %v", c, got)
		}
	}
}

func TestSparseRunOfNonzeroCap(t *testing.T) {
	c := make([]int16, 600)
	for i := range c {
		c[i] = int16(i%7 + 1) // never zero
	}
	b := encodeSparse(c)
	got := decodeSparse(b, len(c))
	if !reflect.DeepEqual(got, c) {
		t.Fatal("sparse round trip mismatch for long nonzero run")
	}
}

func TestSparseDecodeTruncatedInputTolerated(t *testing.T) {
	c := []int16{1, 2, 3, 4, 5}
	b := encodeSparse(c)
	got := decodeSparse(b[:len(b)-1], len(c))
	if len(got) != len(c) {
		t.Fatalf("got length %d, want %d", len(got), len(c))
	}
}

func TestScaleFactorRoundTrip(t *testing.T) {
	if v := EncodeScaleFactor(0); v != 0 {
		t.Fatalf("silent band: got %d, want 0", v)
	}
	if v := DecodeScaleFactor(0); v != 0 {
		t.Fatalf("silent band decode: got %v, want 0", v)
	}
	for _, sf := range []float64{1, 0.5, 2, 1e-3, 1e3} {
		enc := EncodeScaleFactor(sf)
		dec := DecodeScaleFactor(enc)
		ratio := dec / sf
		if ratio < 0.99 || ratio > 1.01 {
			t.Errorf("scale factor %v round trip off by too much: got %v (encoded %d)", sf, dec, enc)
		}
	}
}

func TestTransformFrameRoundTrip(t *testing.T) {
	tf := &TransformFrame{
		BlockSize: BlockLong,
		ScaleFactors: [][NumBarkBands]uint16{
			{},
			{},
		},
		Coeffs: [][]int16{
			make([]int16, BlockLong.Coefficients()),
			make([]int16, BlockLong.Coefficients()),
		},
	}
	for b := 0; b < NumBarkBands; b++ {
		tf.ScaleFactors[0][b] = EncodeScaleFactor(float64(b+1) * 0.1)
		tf.ScaleFactors[1][b] = EncodeScaleFactor(float64(b+1) * 0.2)
	}
	tf.Coeffs[0][0] = 42
	tf.Coeffs[0][10] = -7
	tf.Coeffs[1][500] = 1234

	got, err := UnmarshalTransformFrame(tf.Marshal())
	if err != nil {
		t.Fatalf("UnmarshalTransformFrame: %v", err)
	}
	if !reflect.DeepEqual(got, tf) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, tf)
	}
}

func TestTransformFrameShortBlock(t *testing.T) {
	tf := &TransformFrame{
		BlockSize:    BlockShort,
		ScaleFactors: [][NumBarkBands]uint16{{}},
		Coeffs:       [][]int16{make([]int16, BlockShort.Coefficients())},
	}
	tf.Coeffs[0][5] = 99

	got, err := UnmarshalTransformFrame(tf.Marshal())
	if err != nil {
		t.Fatalf("UnmarshalTransformFrame: %v", err)
	}
	if len(got.Coeffs[0]) != BlockShort.Coefficients() {
		t.Fatalf("got %d coefficients, want %d", len(got.Coeffs[0]), BlockShort.Coefficients())
	}
	if got.Coeffs[0][5] != 99 {
		t.Fatalf("coefficient not preserved: got %d", got.Coeffs[0][5])
	}
}

func TestTransformFrameRejectsTruncation(t *testing.T) {
	tf := &TransformFrame{
		BlockSize:    BlockLong,
		ScaleFactors: [][NumBarkBands]uint16{{}},
		Coeffs:       [][]int16{make([]int16, BlockLong.Coefficients())},
	}
	b := tf.Marshal()
	if _, err := UnmarshalTransformFrame(b[:1]); err == nil {
		t.Fatal("expected error for envelope truncation")
	}
	if _, err := UnmarshalTransformFrame(b[:10]); err == nil {
		t.Fatal("expected error for scale factor truncation")
	}
}
