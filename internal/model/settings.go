package model

import (
	"time"

	"github.com/google/uuid"
)

// TriggerMode mirrors spec §3's trigger.mode enumeration.
type TriggerMode int

const (
	TriggerAuto TriggerMode = iota
	TriggerNormal
	TriggerSingle
)

// TriggerSlope mirrors spec §3's trigger.slope enumeration.
type TriggerSlope int

const (
	SlopePositive TriggerSlope = iota
	SlopeNegative
)

// SamplerateTargetKind distinguishes a requested rate from a requested
// record duration (spec §3: samplerate.target.kind).
type SamplerateTargetKind int

const (
	TargetRate SamplerateTargetKind = iota
	TargetDuration
)

// SamplerateTarget is the last value the caller asked for, independent
// of what was actually achievable.
type SamplerateTarget struct {
	Value float64
	Kind  SamplerateTargetKind
}

// SamplerateState is spec §3's samplerate sub-record.
type SamplerateState struct {
	Target      SamplerateTarget
	Limits      *SamplerateLimits // &spec.Single or &spec.Multi
	FastRate    bool              // true when Limits == &spec.Multi
	Downsampler uint
	CurrentHz   float64
}

// VoltageChannel is spec §3's voltage[ch] sub-record.
type VoltageChannel struct {
	GainID         int
	OffsetRequested float64 // fraction in [0,1]
	OffsetApplied   float64 // fraction in [0,1], the quantized fixpoint
	Used            bool
}

// TriggerState is spec §3's trigger sub-record.
type TriggerState struct {
	Mode           TriggerMode
	Slope          TriggerSlope
	SourceChannel  int  // index into Voltage[], meaningful when !SourceSpecial
	SourceSpecial  bool // true selects SpecialTriggerSources[SourceIndex]
	SourceIndex    int
	PositionSeconds float64
	Level          []float64 // per-channel trigger level in volts
	PointSamples    uint32    // decoded Gray-folded trigger point from GetCaptureState
}

// DeviceSettings is spec §3's DeviceSettings: the caller-desired state,
// independent of whatever the device has actually been told so far
// (that's the job of CommandQueues' pending flags).
type DeviceSettings struct {
	Samplerate      SamplerateState
	Voltage         []VoltageChannel
	Trigger         TriggerState
	RecordLengthID  int
	UsedChannels    int

	// Supplemental (§3 "Supplemented from original_source"): session
	// correlation, never read by parameter-resolution math.
	SessionID   uuid.UUID
	ConnectedAt time.Time
}

// NewDeviceSettings builds default settings for a spec with the given
// channel count, satisfying the invariants from spec §3 trivially (gain
// index 0, record length index 0, single-limits selected).
func NewDeviceSettings(spec *DeviceSpecification) *DeviceSettings {
	voltage := make([]VoltageChannel, spec.Channels)
	for i := range voltage {
		voltage[i] = VoltageChannel{GainID: 0, Used: true}
	}

	return &DeviceSettings{
		Samplerate: SamplerateState{
			Limits: &spec.Single,
		},
		Voltage: voltage,
		Trigger: TriggerState{
			Mode:  TriggerAuto,
			Slope: SlopePositive,
			Level: make([]float64, spec.Channels),
		},
		RecordLengthID: 0,
		UsedChannels:   spec.Channels,
	}
}

// CheckInvariants validates the invariants spec §3/§8 require after
// every mutation. It never mutates; callers use it defensively in
// tests and at the end of every setter.
func (s *DeviceSettings) CheckInvariants(spec *DeviceSpecification) error {
	if s.RecordLengthID < 0 || s.RecordLengthID >= len(s.Samplerate.Limits.RecordLengths) {
		return NewError(ErrParameter, "record_length_id %d out of range [0,%d)", s.RecordLengthID, len(s.Samplerate.Limits.RecordLengths))
	}
	if s.Samplerate.Limits == &spec.Multi && s.UsedChannels > 1 {
		return NewError(ErrParameter, "multi-channel samplerate limits selected with %d channels used", s.UsedChannels)
	}
	for _, v := range s.Voltage {
		if v.GainID < 0 || v.GainID >= len(spec.GainSteps) {
			return NewError(ErrParameter, "gain_id %d out of range [0,%d)", v.GainID, len(spec.GainSteps))
		}
	}
	return nil
}

// EffectiveRecordLength returns the record length for the selected
// tier, which may be the roll sentinel.
func (s *DeviceSettings) EffectiveRecordLength() uint {
	return s.Samplerate.Limits.RecordLengths[s.RecordLengthID]
}

// IsRollMode reports whether the current record-length tier is the
// roll sentinel (spec §3 invariant, §4.4).
func (s *DeviceSettings) IsRollMode() bool {
	return s.EffectiveRecordLength() == RollRecordLength
}
