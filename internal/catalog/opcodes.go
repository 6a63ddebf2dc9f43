// Package catalog implements the per-model mapping from abstract
// device operations to concrete message ids and field packings (spec
// §4.1, component 2), plus the typed message buffers each operation
// packs fields into (spec: "concrete subclasses expose typed setters").
//
// The opcode enumeration mirrors the style
// gotmc-mccdaq/usb1608fsplus/commands.go uses for its own command byte
// space: typed constants plus a description table used only for
// logging.
package catalog

// BulkOpcode is a bulk-endpoint message code (spec §6).
type BulkOpcode uint8

const (
	BulkSetFilter             BulkOpcode = 0x00
	BulkSetTriggerAndSamplerate BulkOpcode = 0x01 // DSO-2090/2150 only
	BulkForceTrigger          BulkOpcode = 0x02
	BulkCaptureStart          BulkOpcode = 0x03
	BulkEnableTrigger         BulkOpcode = 0x04
	BulkGetData               BulkOpcode = 0x05
	BulkGetCaptureState       BulkOpcode = 0x06
	BulkSetGain               BulkOpcode = 0x07
	bulkLogicalData0          BulkOpcode = 0x08 // unused
	bulkLogicalData1          BulkOpcode = 0x09 // unused
	BulkSetChannels2250       BulkOpcode = 0x0B
	BulkShared0C              BulkOpcode = 0x0C // SetTrigger-2250 | SetSamplerate-5200
	BulkShared0D              BulkOpcode = 0x0D // SetRecordLength-2250 | SetBuffer-5200
	BulkShared0E              BulkOpcode = 0x0E // SetSamplerate-2250 | SetTrigger-5200
	BulkSetBuffer2250         BulkOpcode = 0x0F

	// NumBulkOpcodes sizes CommandQueues' bulk array (spec §4.2).
	NumBulkOpcodes = 0x10
)

var bulkOpcodeNames = map[BulkOpcode]string{
	BulkSetFilter:               "SetFilter",
	BulkSetTriggerAndSamplerate: "SetTriggerAndSamplerate",
	BulkForceTrigger:            "ForceTrigger",
	BulkCaptureStart:            "CaptureStart",
	BulkEnableTrigger:           "EnableTrigger",
	BulkGetData:                 "GetData",
	BulkGetCaptureState:         "GetCaptureState",
	BulkSetGain:                 "SetGain",
	bulkLogicalData0:            "LogicalData0",
	bulkLogicalData1:            "LogicalData1",
	BulkSetChannels2250:         "SetChannels2250",
	BulkShared0C:                "Shared0C",
	BulkShared0D:                "Shared0D",
	BulkShared0E:                "Shared0E",
	BulkSetBuffer2250:           "SetBuffer2250",
}

// String implements fmt.Stringer for logging.
func (op BulkOpcode) String() string {
	if name, ok := bulkOpcodeNames[op]; ok {
		return name
	}
	return "Unknown"
}

// ControlRequest is a control-endpoint request code (spec §6).
type ControlRequest uint8

const (
	ControlBeginCommand ControlRequest = iota
	ControlSetOffset
	ControlSetRelays
	ControlValue
)

func (cr ControlRequest) String() string {
	switch cr {
	case ControlBeginCommand:
		return "BeginCommand"
	case ControlSetOffset:
		return "SetOffset"
	case ControlSetRelays:
		return "SetRelays"
	case ControlValue:
		return "Value"
	default:
		return "Unknown"
	}
}

// ValueSubcommand selects the GetValue sub-operation.
type ValueSubcommand uint8

const (
	ValueOffsetLimits ValueSubcommand = 1
)

// FirmwareRequest/FirmwareIndex are the control-request constants the
// 6022 family's firmware loader writes each record to (spec §6);
// internal/device's uploadFirmware issues one control write per
// decoded firmware/Record at this request/index pair.
const (
	FirmwareRequest ControlRequest = 0xA0
	FirmwareIndex                 = 0x00
)
