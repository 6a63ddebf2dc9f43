package catalog

import "scope-service/internal/buffer"

// Message sizes are this module's own numbering; the spec only
// mandates bit-exact preservation of the fields it calls out by name
// (the 19-bit trigger position split across bytes 0/1/4 of
// SetTriggerAndSamplerate, the downsampler inverse encodings); every
// other byte offset is this module's own choice. Shared messages below
// are common to every generation.

// SetFilterMsg (bulk 0x00) selects which channels pass through the
// analog filter stage.
type SetFilterMsg struct{ *buffer.TransferBuffer }

func NewSetFilterMsg() *SetFilterMsg {
	return &SetFilterMsg{buffer.New(2)}
}

func (m *SetFilterMsg) SetChannelFilter(ch int, enabled bool) {
	m.SetBit(0, uint(ch), enabled)
}

// ForceTriggerMsg (bulk 0x02) has no fields; its mere transmission is
// the command.
type ForceTriggerMsg struct{ *buffer.TransferBuffer }

func NewForceTriggerMsg() *ForceTriggerMsg { return &ForceTriggerMsg{buffer.New(2)} }

// CaptureStartMsg (bulk 0x03) has no fields.
type CaptureStartMsg struct{ *buffer.TransferBuffer }

func NewCaptureStartMsg() *CaptureStartMsg { return &CaptureStartMsg{buffer.New(2)} }

// EnableTriggerMsg (bulk 0x04) has no fields.
type EnableTriggerMsg struct{ *buffer.TransferBuffer }

func NewEnableTriggerMsg() *EnableTriggerMsg { return &EnableTriggerMsg{buffer.New(2)} }

// GetDataMsg (bulk 0x05) requests the sample buffer; no fields to set.
type GetDataMsg struct{ *buffer.TransferBuffer }

func NewGetDataMsg() *GetDataMsg { return &GetDataMsg{buffer.New(2)} }

// GetCaptureStateMsg (bulk 0x06) requests capture state; the device's
// response (not this outgoing buffer) carries the capture-state code
// and the Gray-folded trigger point. CaptureStateResponse decodes it.
type GetCaptureStateMsg struct{ *buffer.TransferBuffer }

func NewGetCaptureStateMsg() *GetCaptureStateMsg { return &GetCaptureStateMsg{buffer.New(2)} }

// CaptureState is the decoded device capture-state code (spec §4.4).
type CaptureState int

const (
	CaptureWaiting CaptureState = iota
	CaptureSampling
	CaptureReady
	CaptureReady2250
	CaptureReady5200
	CaptureUnknown
)

// CaptureStateResponse decodes a GetCaptureState response buffer: byte
// 0 is the state code, bytes 1-2 the Gray-like-encoded 16-bit trigger
// point.
type CaptureStateResponse struct {
	raw []byte
}

func NewCaptureStateResponse(raw []byte) *CaptureStateResponse {
	return &CaptureStateResponse{raw: raw}
}

func (r *CaptureStateResponse) State() CaptureState {
	if len(r.raw) < 1 {
		return CaptureUnknown
	}
	switch r.raw[0] {
	case 0:
		return CaptureWaiting
	case 1:
		return CaptureSampling
	case 2:
		return CaptureReady
	case 3:
		return CaptureReady2250
	case 4:
		return CaptureReady5200
	default:
		return CaptureUnknown
	}
}

// TriggerPointRaw returns the still-Gray-folded 16-bit field; callers
// use DecodeGrayTriggerPoint to recover the sample offset.
func (r *CaptureStateResponse) TriggerPointRaw() uint16 {
	if len(r.raw) < 3 {
		return 0
	}
	return uint16(r.raw[1]) | uint16(r.raw[2])<<8
}

// DecodeGrayTriggerPoint decodes the device's Gray-like trigger-point
// encoding (spec §4.4, GLOSSARY): each set bit inverts all lower bits,
// i.e. standard Gray-code-to-binary decoding. Folding XORs from the
// highest bit down: decoded[15] = encoded[15]; decoded[i] =
// encoded[i] XOR decoded[i+1] for i counting down from 14 to 0. This
// is a bijection on [0, 0xFFFF] (spec §8 round-trip property).
func DecodeGrayTriggerPoint(encoded uint16) uint16 {
	var decoded uint16
	prevBit := uint16(0)
	for bit := 15; bit >= 0; bit-- {
		mask := uint16(1) << uint(bit)
		encodedBit := (encoded & mask) >> uint(bit)
		decodedBit := encodedBit ^ prevBit
		decoded |= decodedBit << uint(bit)
		prevBit = decodedBit
	}
	return decoded
}

// EncodeGrayTriggerPoint is the inverse of DecodeGrayTriggerPoint,
// standard binary-to-Gray encoding: encoded[i] = decoded[i] XOR
// decoded[i+1] (decoded[16] treated as 0).
func EncodeGrayTriggerPoint(decoded uint16) uint16 {
	return decoded ^ (decoded >> 1)
}

// SetGainMsg (bulk 0x07) programs the hardware gain code for a channel.
type SetGainMsg struct{ *buffer.TransferBuffer }

func NewSetGainMsg(channels int) *SetGainMsg {
	return &SetGainMsg{buffer.New(channels)}
}

func (m *SetGainMsg) SetGainCode(ch int, hwCode uint8) {
	m.SetByte(ch, hwCode)
}

// SetOffsetMsg is the control message carrying channel DAC offset
// codes plus the trigger-level DAC code (spec §4.1).
type SetOffsetMsg struct{ *buffer.TransferBuffer }

func NewSetOffsetMsg(channels int) *SetOffsetMsg {
	// one uint16 per channel offset DAC, plus one uint16 trigger level DAC
	return &SetOffsetMsg{buffer.New(2*channels + 2)}
}

func (m *SetOffsetMsg) SetChannelOffsetDAC(ch int, dac uint16) {
	m.SetUint16LE(2*ch, dac)
}

func (m *SetOffsetMsg) SetTriggerLevelDAC(dac uint16) {
	m.SetUint16LE(m.Len()-2, dac)
}

// SetRelaysMsg is the control message toggling the analog front-end
// relays: AC/DC coupling, <1V attenuation, <100mV attenuation, and
// external-trigger routing, per channel (spec §4.1, §4.3).
type SetRelaysMsg struct{ *buffer.TransferBuffer }

const (
	relayBitACDC       = 0
	relayBitBelow1V    = 1
	relayBitBelow100mV = 2
	relayBitExtTrigger = 3
)

func NewSetRelaysMsg(channels int) *SetRelaysMsg {
	return &SetRelaysMsg{buffer.New(channels)}
}

func (m *SetRelaysMsg) SetBelow1V(ch int, v bool)    { m.SetBit(ch, relayBitBelow1V, v) }
func (m *SetRelaysMsg) SetBelow100mV(ch int, v bool) { m.SetBit(ch, relayBitBelow100mV, v) }
func (m *SetRelaysMsg) SetACCoupling(ch int, v bool) { m.SetBit(ch, relayBitACDC, v) }
func (m *SetRelaysMsg) SetExtTrigger(ch int, v bool) { m.SetBit(ch, relayBitExtTrigger, v) }

// GetValueMsg is the control message for a calibration read (spec §4.1,
// §6): 2 channels × 9 gain steps × 2 (START,END) × 2 bytes big-endian.
type GetValueMsg struct {
	Subcommand ValueSubcommand
}
