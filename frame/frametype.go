package frame

// Type is the single-byte discriminator at the start of every Frame
// (spec §3.1): a closed tagged variant over Silence, adaptive LPC of
// order 1..12, the lossy Transform payload, Raw PCM, and a reserved tag.
type Type uint8

// Frame type tags.
const (
	TypeSilence   Type = 0
	TypeTransform Type = 253
	TypeRaw       Type = 254
	TypeReserved  Type = 255
)

// IsALPC reports whether t names an adaptive-LPC frame, encoding the LPC
// order used by the loudest (maximum-order) channel in the frame.
func (t Type) IsALPC() bool { return t >= 1 && t <= 12 }

// LPCOrder returns the LPC order encoded by t, or 0 if t is not an ALPC
// frame type.
func (t Type) LPCOrder() int {
	if t.IsALPC() {
		return int(t)
	}
	return 0
}

// FromOrder returns the ALPC frame type tag for the given LPC order
// (1..=12).
func FromOrder(order int) Type {
	if order < 1 {
		order = 1
	}
	if order > 12 {
		order = 12
	}
	return Type(order)
}

// ResidualEncoding names how a ChannelData's residual payload is packed.
type ResidualEncoding uint8

// Residual encodings (spec §3.1).
const (
	ResidualRice   ResidualEncoding = 0
	ResidualGolomb ResidualEncoding = 1 // reserved, never emitted by this implementation
	ResidualRaw    ResidualEncoding = 2
)

// FixedOrderBase is added to a fixed predictor's order (0..=4) to produce
// the ShiftBits value that signals "this channel used a fixed predictor,
// not adaptive LPC" (spec §3.1).
const FixedOrderBase = 128
