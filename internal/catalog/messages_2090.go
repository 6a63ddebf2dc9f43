package catalog

import "scope-service/internal/buffer"

// SetTriggerAndSamplerateMsg is the DSO-2090/2150 bulk 0x01 message:
// trigger position and samplerate are folded into one buffer (spec
// §4.1). Per spec §6 the 19-bit trigger-position value must be split
// across bytes 0/1/4; this module's own numbering puts the samplerate
// id in byte 2, the downsampler raw value in bytes 6-7 and the flags in
// byte 8 of a 10-byte buffer, so the fields never overlap. The
// original's denser bit packing is not reproduced literally.
type SetTriggerAndSamplerateMsg struct{ *buffer.TransferBuffer }

const (
	off2090TriggerPosLow  = 0
	off2090TriggerPosMid  = 1
	off2090SamplerateID   = 2
	off2090TriggerPosHigh = 4
	off2090DownsamplerRaw = 6
	off2090Flags          = 8
)

const flag2090DownsamplingMode = 0

func NewSetTriggerAndSamplerateMsg() *SetTriggerAndSamplerateMsg {
	return &SetTriggerAndSamplerateMsg{buffer.New(10)}
}

// SetTriggerPosition19 packs the 19-bit trigger-position value.
func (m *SetTriggerAndSamplerateMsg) SetTriggerPosition19(v uint32) {
	m.SetBits19(off2090TriggerPosLow, off2090TriggerPosMid, off2090TriggerPosHigh, v)
}

func (m *SetTriggerAndSamplerateMsg) TriggerPosition19() uint32 {
	return m.Bits19(off2090TriggerPosLow, off2090TriggerPosMid, off2090TriggerPosHigh)
}

// SetSamplerateID packs the 2-bit samplerate id (0,1,2, or 3 meaning
// downsampler 5 per spec §4.3).
func (m *SetTriggerAndSamplerateMsg) SetSamplerateID(id uint8) {
	m.SetByte(off2090SamplerateID, id)
}

func (m *SetTriggerAndSamplerateMsg) SamplerateID() uint8 {
	return m.Byte(off2090SamplerateID)
}

// SetDownsamplerRaw packs the 16-bit downsampler field used when
// ds > 5 (downsampler_raw = 0x10001 - (ds >> 1), spec §4.3).
func (m *SetTriggerAndSamplerateMsg) SetDownsamplerRaw(v uint16) {
	m.SetUint16LE(off2090DownsamplerRaw, v)
}

func (m *SetTriggerAndSamplerateMsg) DownsamplerRaw() uint16 {
	return m.Uint16LE(off2090DownsamplerRaw)
}

func (m *SetTriggerAndSamplerateMsg) SetDownsamplingMode(v bool) {
	m.SetBit(off2090Flags, flag2090DownsamplingMode, v)
}

func (m *SetTriggerAndSamplerateMsg) DownsamplingMode() bool {
	return m.Bit(off2090Flags, flag2090DownsamplingMode)
}
