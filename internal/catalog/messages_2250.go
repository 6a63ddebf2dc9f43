package catalog

import "scope-service/internal/buffer"

// SetChannels2250Msg (bulk 0x0B) selects the channel-enable mask and
// fast-rate mode.
type SetChannels2250Msg struct{ *buffer.TransferBuffer }

func NewSetChannels2250Msg() *SetChannels2250Msg {
	return &SetChannels2250Msg{buffer.New(2)}
}

func (m *SetChannels2250Msg) SetChannelMask(mask uint8) { m.SetByte(0, mask) }
func (m *SetChannels2250Msg) SetFastRate(v bool)        { m.SetBit(1, 0, v) }

// SetTrigger2250Msg (bulk 0x0C) packs the trigger source/slope/mode
// and the pre/post 19-bit trigger-position pair (spec §4.3: "2250:
// pre/post pair in 19 bits").
type SetTrigger2250Msg struct{ *buffer.TransferBuffer }

const (
	off2250Source     = 0
	off2250SlopeMode  = 1
	off2250PreLow     = 2
	off2250PreMid     = 3
	off2250PreHigh    = 6
	off2250PostLow    = 7
	off2250PostMid    = 8
	off2250PostHigh   = 9
)

func NewSetTrigger2250Msg() *SetTrigger2250Msg {
	return &SetTrigger2250Msg{buffer.New(10)}
}

func (m *SetTrigger2250Msg) SetSource(id uint8)      { m.SetByte(off2250Source, id) }
func (m *SetTrigger2250Msg) SetSlopeNegative(v bool) { m.SetBit(off2250SlopeMode, 0, v) }

// SetMode packs the 2-bit trigger mode into bits 1-2 of the same byte
// SetSlopeNegative uses bit 0 of.
func (m *SetTrigger2250Msg) SetMode(mode uint8) {
	m.SetBit(off2250SlopeMode, 1, mode&0x01 != 0)
	m.SetBit(off2250SlopeMode, 2, mode&0x02 != 0)
}

func (m *SetTrigger2250Msg) SetPrePosition19(v uint32) {
	m.SetBits19(off2250PreLow, off2250PreMid, off2250PreHigh, v)
}
func (m *SetTrigger2250Msg) PrePosition19() uint32 {
	return m.Bits19(off2250PreLow, off2250PreMid, off2250PreHigh)
}
func (m *SetTrigger2250Msg) SetPostPosition19(v uint32) {
	m.SetBits19(off2250PostLow, off2250PostMid, off2250PostHigh, v)
}
func (m *SetTrigger2250Msg) PostPosition19() uint32 {
	return m.Bits19(off2250PostLow, off2250PostMid, off2250PostHigh)
}

// SetSamplerate2250Msg (bulk 0x0E) packs the downsampling flag and the
// inverse-encoded downsampler field (spec §4.3: "2250: if ds >= 1 set
// downsampling flag; store ds > 1 ? 0x10001 - ds : 0 in 16 bits").
type SetSamplerate2250Msg struct{ *buffer.TransferBuffer }

func NewSetSamplerate2250Msg() *SetSamplerate2250Msg {
	return &SetSamplerate2250Msg{buffer.New(4)}
}

func (m *SetSamplerate2250Msg) SetDownsamplingFlag(v bool) { m.SetBit(0, 0, v) }
func (m *SetSamplerate2250Msg) DownsamplingFlag() bool     { return m.Bit(0, 0) }
func (m *SetSamplerate2250Msg) SetDownsampler(v uint16)    { m.SetUint16LE(2, v) }
func (m *SetSamplerate2250Msg) Downsampler() uint16        { return m.Uint16LE(2) }

// SetRecordLength2250Msg (bulk 0x0D) selects the record-length tier id.
type SetRecordLength2250Msg struct{ *buffer.TransferBuffer }

func NewSetRecordLength2250Msg() *SetRecordLength2250Msg {
	return &SetRecordLength2250Msg{buffer.New(2)}
}

func (m *SetRecordLength2250Msg) SetRecordLengthID(id uint8) { m.SetByte(0, id) }

// SetBuffer2250Msg (bulk 0x0F) has no fields specified beyond the
// trigger message prefix that precedes it.
type SetBuffer2250Msg struct{ *buffer.TransferBuffer }

func NewSetBuffer2250Msg() *SetBuffer2250Msg { return &SetBuffer2250Msg{buffer.New(2)} }
