package model

// RollRecordLength is the sentinel value in SamplerateLimits.RecordLengths
// that denotes "roll/continuous" mode (spec §3).
const RollRecordLength uint = 0

// SamplerateLimits is one of the two samplerate ladders (single-channel
// or multi-channel/fast-rate) a model exposes (spec §3).
type SamplerateLimits struct {
	BaseHz         float64
	MaxHz          float64
	MaxDownsampler uint
	// RecordLengths is ordered; RollRecordLength denotes roll mode.
	RecordLengths []uint
}

// GainStep is one entry of the V/div ladder.
type GainStep struct {
	VoltsPerDiv float64
	HWIndex     uint8
}

// CalibrationRange is the big-endian 16-bit [START,END] DAC range read
// from the device for one (channel, gain) pair (spec §3, §6).
type CalibrationRange struct {
	Start uint16
	End   uint16
}

// DeviceSpecification is the model-derived capability table (spec §3).
type DeviceSpecification struct {
	Single SamplerateLimits
	Multi  SamplerateLimits

	// BufferDividers: one multiplier per record-length tier, applied to
	// the effective samplerate (e.g. 1000 for roll mode).
	BufferDividers []float64

	GainSteps []GainStep

	SampleSizeBits int
	Channels       int

	// SpecialTriggerSources: ordered name list of non-channel trigger
	// sources (e.g. "EXT", "EXT/5").
	SpecialTriggerSources []string

	// VoltageScale[ch][gainID]: raw-unit value corresponding to one
	// screen-height at that gain, per channel.
	VoltageScale [][]float64

	// OffsetCalibration[ch][gainID]: the big-endian 16-bit [START,END]
	// DAC range for zero-offset calibration.
	OffsetCalibration [][]CalibrationRange

	TriggerMessageKind TriggerMessageKind
}

// RollIndex returns the index of the roll sentinel if present,
// or -1 if this generation has no roll mode.
func (s *DeviceSpecification) RollIndex() int {
	for i, rl := range s.Single.RecordLengths {
		if rl == RollRecordLength {
			return i
		}
	}
	return -1
}

// BufferDivider returns the divider for a record-length tier, clamping
// defensively to the last entry (a DeviceSpecification is expected to
// carry one divider per tier; a mismatch is a registry bug, not a
// runtime condition to fail on).
func (s *DeviceSpecification) BufferDivider(recordLengthID int) float64 {
	if recordLengthID < 0 {
		recordLengthID = 0
	}
	if recordLengthID >= len(s.BufferDividers) {
		recordLengthID = len(s.BufferDividers) - 1
	}
	if recordLengthID < 0 {
		return 1
	}
	return s.BufferDividers[recordLengthID]
}
