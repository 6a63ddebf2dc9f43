package catalog

import "scope-service/internal/model"

// Operation is one of the abstract operations named in spec §4.1 that
// the ProtocolCatalog maps onto a concrete bulk message, or marks "not
// applicable" (folded into a shared message and set by field mutation
// instead).
type Operation int

const (
	OpSetFilter Operation = iota
	OpSetTriggerAndSamplerate // 2090/2150 combined message
	OpForceTrigger
	OpCaptureStart
	OpEnableTrigger
	OpGetData
	OpGetCaptureState
	OpSetGain
	OpSetChannels
	OpSetTrigger
	OpSetSamplerate
	OpSetRecordLength
	OpSetBuffer
)

// Catalog is the per-model table from abstract operation to concrete
// bulk opcode. Entries absent from opcodeFor are "not applicable" —
// the attribute is packed into a shared message by field mutation
// rather than addressed by a dedicated write.
type Catalog struct {
	Generation model.Generation
	opcodeFor  map[Operation]BulkOpcode
}

// BulkOpcodeFor returns the concrete bulk opcode backing op, or
// (0, false) if op isn't a standalone message for this generation.
func (c *Catalog) BulkOpcodeFor(op Operation) (BulkOpcode, bool) {
	code, ok := c.opcodeFor[op]
	return code, ok
}

// New2090Catalog covers DSO-2090 and DSO-2150: trigger and samplerate
// share one bulk message (spec §4.1, §6).
func New2090Catalog() *Catalog {
	return &Catalog{
		Generation: model.Gen2090_2150,
		opcodeFor: map[Operation]BulkOpcode{
			OpSetFilter:               BulkSetFilter,
			OpSetTriggerAndSamplerate: BulkSetTriggerAndSamplerate,
			OpForceTrigger:            BulkForceTrigger,
			OpCaptureStart:            BulkCaptureStart,
			OpEnableTrigger:           BulkEnableTrigger,
			OpGetData:                 BulkGetData,
			OpGetCaptureState:         BulkGetCaptureState,
			OpSetGain:                 BulkSetGain,
		},
	}
}

// New2250Catalog covers DSO-2250: channels/trigger/samplerate/record
// length/buffer each get their own dedicated opcode.
func New2250Catalog() *Catalog {
	return &Catalog{
		Generation: model.Gen2250,
		opcodeFor: map[Operation]BulkOpcode{
			OpSetFilter:       BulkSetFilter,
			OpForceTrigger:    BulkForceTrigger,
			OpCaptureStart:    BulkCaptureStart,
			OpEnableTrigger:   BulkEnableTrigger,
			OpGetData:         BulkGetData,
			OpGetCaptureState: BulkGetCaptureState,
			OpSetGain:         BulkSetGain,
			OpSetChannels:     BulkSetChannels2250,
			OpSetTrigger:      BulkShared0C,
			OpSetSamplerate:   BulkShared0E,
			OpSetRecordLength: BulkShared0D,
			OpSetBuffer:       BulkSetBuffer2250,
		},
	}
}

// New5200Catalog covers DSO-5200/5200A: samplerate and buffer share
// the 0x0C/0x0D opcodes the 2250 uses for trigger/record-length, and
// trigger shares 0x0E with the 2250's samplerate.
func New5200Catalog() *Catalog {
	return &Catalog{
		Generation: model.Gen5200,
		opcodeFor: map[Operation]BulkOpcode{
			OpSetFilter:       BulkSetFilter,
			OpForceTrigger:    BulkForceTrigger,
			OpCaptureStart:    BulkCaptureStart,
			OpEnableTrigger:   BulkEnableTrigger,
			OpGetData:         BulkGetData,
			OpGetCaptureState: BulkGetCaptureState,
			OpSetGain:         BulkSetGain,
			OpSetSamplerate:   BulkShared0C,
			OpSetBuffer:       BulkShared0D,
			OpSetTrigger:      BulkShared0E,
		},
	}
}

// ForGeneration returns the catalog for a generation, or nil for
// Gen6022/GenUnknown which never reach a ProtocolCatalog (firmware
// upload family, or unrecognized product id — both rejected at
// connect time, spec §4.7).
func ForGeneration(gen model.Generation) *Catalog {
	switch gen {
	case model.Gen2090_2150:
		return New2090Catalog()
	case model.Gen2250:
		return New2250Catalog()
	case model.Gen5200:
		return New5200Catalog()
	default:
		return nil
	}
}
