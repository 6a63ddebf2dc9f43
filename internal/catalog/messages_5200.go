package catalog

import "scope-service/internal/buffer"

// SetSamplerate5200Msg (bulk 0x0C) packs the decomposed fast/slow
// downsampler fields (spec §4.3: "5200: decompose into valueSlow =
// max(0,(ds-3)/2) and valueFast = ds - 2*valueSlow; fast field stored
// as 4 - valueFast, slow field as valueSlow==0 ? 0 : 0xFFFF - valueSlow").
type SetSamplerate5200Msg struct{ *buffer.TransferBuffer }

func NewSetSamplerate5200Msg() *SetSamplerate5200Msg {
	return &SetSamplerate5200Msg{buffer.New(4)}
}

func (m *SetSamplerate5200Msg) SetFastField(v uint8)   { m.SetByte(0, v) }
func (m *SetSamplerate5200Msg) FastField() uint8       { return m.Byte(0) }
func (m *SetSamplerate5200Msg) SetSlowField(v uint16)  { m.SetUint16LE(2, v) }
func (m *SetSamplerate5200Msg) SlowField() uint16      { return m.Uint16LE(2) }

// SetBuffer5200Msg (bulk 0x0D) selects the record-length (buffer) tier.
type SetBuffer5200Msg struct{ *buffer.TransferBuffer }

func NewSetBuffer5200Msg() *SetBuffer5200Msg {
	return &SetBuffer5200Msg{buffer.New(2)}
}

func (m *SetBuffer5200Msg) SetRecordLengthID(id uint8) { m.SetByte(0, id) }

// SetTrigger5200Msg (bulk 0x0E) packs the trigger source/slope/mode and
// the pre/post trigger-position pair in 16 bits each (spec §4.3:
// "5200: pre/post pair in 16 bits, 0xFFFF - RL + pos and 0xFFFF - pos").
type SetTrigger5200Msg struct{ *buffer.TransferBuffer }

const (
	off5200Source    = 0
	off5200SlopeMode = 1
	off5200Pre       = 2
	off5200Post      = 4
)

func NewSetTrigger5200Msg() *SetTrigger5200Msg {
	return &SetTrigger5200Msg{buffer.New(6)}
}

func (m *SetTrigger5200Msg) SetSource(id uint8)      { m.SetByte(off5200Source, id) }
func (m *SetTrigger5200Msg) SetSlopeNegative(v bool) { m.SetBit(off5200SlopeMode, 0, v) }
func (m *SetTrigger5200Msg) SetMode(mode uint8) {
	m.SetBit(off5200SlopeMode, 1, mode&0x01 != 0)
	m.SetBit(off5200SlopeMode, 2, mode&0x02 != 0)
}

func (m *SetTrigger5200Msg) SetPrePosition16(v uint16)  { m.SetUint16LE(off5200Pre, v) }
func (m *SetTrigger5200Msg) PrePosition16() uint16      { return m.Uint16LE(off5200Pre) }
func (m *SetTrigger5200Msg) SetPostPosition16(v uint16) { m.SetUint16LE(off5200Post, v) }
func (m *SetTrigger5200Msg) PostPosition16() uint16     { return m.Uint16LE(off5200Post) }
