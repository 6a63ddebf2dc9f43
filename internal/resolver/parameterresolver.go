// Package resolver implements the ParameterResolver (spec §4.3,
// component 6): translating continuous user requests for samplerate,
// trigger position/level, offset, and gain into the concrete encoded
// values a model's ProtocolCatalog messages carry.
//
// Grounded directly on libOpenHantek/hantekDeviceSamples.cpp's
// computeBestSamplerate/updateSamplerate and
// libOpenHantek/hantekDeviceTrigger.cpp's setPretriggerPosition/
// setTriggerLevel/setOffset/setGain — the per-model rounding and
// packing rules are carried over unchanged; the clamp in
// ApplyTriggerLevel is corrected to a conventional min/max clamp (spec
// §9 flags the source's std::min-then-std::max ordering as almost
// certainly a bug).
package resolver

import (
	"math"

	"scope-service/internal/catalog"
	"scope-service/internal/model"
	"scope-service/internal/queue"
)

// Resolver holds everything needed to turn a request into packed
// message fields: the model's static capability table, its protocol
// catalog, the mutable settings it updates in place, and the command
// queues it stages writes onto.
type Resolver struct {
	spec    *model.DeviceSpecification
	cat     *catalog.Catalog
	queues  *queue.CommandQueues
	Settings *model.DeviceSettings
}

func New(spec *model.DeviceSpecification, cat *catalog.Catalog, queues *queue.CommandQueues, settings *model.DeviceSettings) *Resolver {
	return &Resolver{spec: spec, cat: cat, queues: queues, Settings: settings}
}

// BestSamplerate maps a requested rate onto an achievable (downsampler,
// achievable_hz) pair (spec §4.3).
func (r *Resolver) BestSamplerate(reqHz float64, fastRate, maximum bool) (uint, float64) {
	if reqHz <= 0 {
		return 0, 0
	}

	limits := r.limitsFor(fastRate)
	divider := r.spec.BufferDivider(r.Settings.RecordLengthID)

	idealDs := limits.BaseHz / divider / reqHz

	if idealDs < 1.0 && (reqHz <= limits.MaxHz/divider || !maximum) {
		return 0, limits.MaxHz / divider
	}

	switch r.cat.Generation {
	case model.Gen2090_2150:
		idealDs = round2090(idealDs, maximum)
	default:
		if maximum {
			idealDs = math.Ceil(idealDs)
		} else {
			idealDs = math.Floor(idealDs)
		}
	}

	if idealDs > float64(limits.MaxDownsampler) {
		idealDs = float64(limits.MaxDownsampler)
	}

	ds := uint(idealDs)
	achievable := limits.BaseHz / idealDs / divider
	return ds, achievable
}

// round2090 implements the DSO-2090/2150 downsampler rounding table:
// 1, 2 and 5 are reachable directly; 3 and 4 snap to 2 or 5 depending
// on direction; everything above 5 rounds to the next even integer.
func round2090(idealDs float64, maximum bool) float64 {
	if (maximum && idealDs <= 5.0) || (!maximum && idealDs < 6.0) {
		if maximum {
			idealDs = math.Ceil(idealDs)
			if idealDs > 2.0 {
				idealDs = 5.0
			}
		} else {
			idealDs = math.Floor(idealDs)
			if idealDs > 2.0 && idealDs < 5.0 {
				idealDs = 2.0
			}
		}
		return idealDs
	}

	if maximum {
		idealDs = math.Ceil(idealDs/2.0) * 2.0
	} else {
		idealDs = math.Floor(idealDs/2.0) * 2.0
	}
	if idealDs > 2.0*0x10001 {
		idealDs = 2.0 * 0x10001
	}
	return idealDs
}

func (r *Resolver) limitsFor(fastRate bool) *model.SamplerateLimits {
	if fastRate {
		return &r.spec.Multi
	}
	return &r.spec.Single
}

// ApplySamplerate packs ds into the generation-specific message fields
// and updates Settings.Samplerate (spec §4.3). The returned bool
// reports whether the single/multi limits selection changed, so a
// caller can decide whether to emit recordLengthChanged /
// samplerateLimitsChanged (spec §6 "emitted events").
func (r *Resolver) ApplySamplerate(ds uint, fastRate bool) (bool, error) {
	limits := r.limitsFor(fastRate)
	divider := r.spec.BufferDivider(r.Settings.RecordLengthID)

	switch r.cat.Generation {
	case model.Gen2090_2150:
		if err := r.applySamplerate2090(ds, limits); err != nil {
			return false, err
		}
	case model.Gen5200:
		if err := r.applySamplerate5200(ds); err != nil {
			return false, err
		}
	case model.Gen2250:
		if err := r.applySamplerate2250(ds); err != nil {
			return false, err
		}
	}

	fastRateChanged := fastRate != r.Settings.Samplerate.FastRate
	r.Settings.Samplerate.Limits = limits
	r.Settings.Samplerate.FastRate = fastRate
	r.Settings.Samplerate.Downsampler = ds
	if ds != 0 {
		r.Settings.Samplerate.CurrentHz = limits.BaseHz / divider / float64(ds)
	} else {
		r.Settings.Samplerate.CurrentHz = limits.MaxHz / divider
	}

	if err := r.ApplyTriggerPosition(r.Settings.Trigger.PositionSeconds); err != nil {
		return fastRateChanged, err
	}
	return fastRateChanged, nil
}

func (r *Resolver) applySamplerate2090(ds uint, limits *model.SamplerateLimits) error {
	op, _ := r.cat.BulkOpcodeFor(catalog.OpSetTriggerAndSamplerate)
	raw, ok := r.queues.BulkMessage(op)
	if !ok {
		return model.NewError(model.ErrUnsupported, "SetTriggerAndSamplerate not registered")
	}
	msg := raw.(*catalog.SetTriggerAndSamplerateMsg)

	var samplerateID uint8
	var downsamplerValue uint16
	var downsampling bool

	switch {
	case ds <= 5:
		switch {
		case ds == 0 && limits.BaseHz >= limits.MaxHz:
			samplerateID = 1
		case ds <= 2:
			samplerateID = uint8(ds)
		default:
			samplerateID = 3
			ds = 5
			downsamplerValue = 0xFFFF
		}
	default:
		ds &^= 1
		downsamplerValue = uint16(0x10001 - (ds >> 1))
		downsampling = true
	}

	return r.queues.SetBulk(op, func(queue.BufferMessage) {
		msg.SetDownsamplingMode(downsampling)
		msg.SetSamplerateID(samplerateID)
		msg.SetDownsamplerRaw(downsamplerValue)
	})
}

func (r *Resolver) applySamplerate5200(ds uint) error {
	op, _ := r.cat.BulkOpcodeFor(catalog.OpSetSamplerate)
	raw, ok := r.queues.BulkMessage(op)
	if !ok {
		return model.NewError(model.ErrUnsupported, "SetSamplerate-5200 not registered")
	}
	msg := raw.(*catalog.SetSamplerate5200Msg)

	valueSlow := uint16(0)
	if ds > 3 {
		valueSlow = uint16((ds - 3) / 2)
	}
	valueFast := uint8(ds) - uint8(valueSlow)*2

	fastField := uint8(4) - valueFast
	slowField := uint16(0)
	if valueSlow != 0 {
		slowField = 0xFFFF - valueSlow
	}

	return r.queues.SetBulk(op, func(queue.BufferMessage) {
		msg.SetFastField(fastField)
		msg.SetSlowField(slowField)
	})
}

func (r *Resolver) applySamplerate2250(ds uint) error {
	op, _ := r.cat.BulkOpcodeFor(catalog.OpSetSamplerate)
	raw, ok := r.queues.BulkMessage(op)
	if !ok {
		return model.NewError(model.ErrUnsupported, "SetSamplerate-2250 not registered")
	}
	msg := raw.(*catalog.SetSamplerate2250Msg)

	downsampling := ds >= 1
	var value uint16
	if ds > 1 {
		value = uint16(0x10001 - ds)
	}

	return r.queues.SetBulk(op, func(queue.BufferMessage) {
		msg.SetDownsamplingFlag(downsampling)
		msg.SetDownsampler(value)
	})
}

// ApplyTriggerPosition packs the requested trigger position (spec
// §4.3). In roll mode every generation writes the constant encoding
// for "no pretrigger"; otherwise the device expects inverse
// coordinates at a model-specific field width.
func (r *Resolver) ApplyTriggerPosition(seconds float64) error {
	r.Settings.Trigger.PositionSeconds = seconds

	positionSamples := seconds * r.Settings.Samplerate.CurrentHz
	if r.Settings.Samplerate.FastRate {
		positionSamples /= float64(r.spec.Channels)
	}

	recordLength := r.Settings.EffectiveRecordLength()
	rollMode := r.Settings.IsRollMode()

	switch r.cat.Generation {
	case model.Gen2090_2150:
		op, _ := r.cat.BulkOpcodeFor(catalog.OpSetTriggerAndSamplerate)
		raw, ok := r.queues.BulkMessage(op)
		if !ok {
			return model.NewError(model.ErrUnsupported, "SetTriggerAndSamplerate not registered")
		}
		msg := raw.(*catalog.SetTriggerAndSamplerateMsg)
		var position uint32
		if rollMode {
			position = 0x1
		} else {
			position = uint32(0x7FFFF-int64(recordLength)) + uint32(positionSamples)
		}
		return r.queues.SetBulk(op, func(queue.BufferMessage) {
			msg.SetTriggerPosition19(position)
		})

	case model.Gen2250:
		op, _ := r.cat.BulkOpcodeFor(catalog.OpSetTrigger)
		raw, ok := r.queues.BulkMessage(op)
		if !ok {
			return model.NewError(model.ErrUnsupported, "SetTrigger-2250 not registered")
		}
		msg := raw.(*catalog.SetTrigger2250Msg)
		var pre, post uint32
		if rollMode {
			pre, post = 0x1, 0x1
		} else {
			pre = uint32(0x7FFFF-int64(recordLength)) + uint32(positionSamples)
			post = uint32(0x7FFFF - int64(positionSamples))
		}
		return r.queues.SetBulk(op, func(queue.BufferMessage) {
			msg.SetPrePosition19(pre)
			msg.SetPostPosition19(post)
		})

	case model.Gen5200:
		op, _ := r.cat.BulkOpcodeFor(catalog.OpSetTrigger)
		raw, ok := r.queues.BulkMessage(op)
		if !ok {
			return model.NewError(model.ErrUnsupported, "SetTrigger-5200 not registered")
		}
		msg := raw.(*catalog.SetTrigger5200Msg)
		var pre, post uint16
		if rollMode {
			pre, post = 0x1, 0x1
		} else {
			pre = uint16(0xFFFF-int64(recordLength)) + uint16(positionSamples)
			post = uint16(0xFFFF - int64(positionSamples))
		}
		return r.queues.SetBulk(op, func(queue.BufferMessage) {
			msg.SetPrePosition16(pre)
			msg.SetPostPosition16(post)
		})
	}

	return nil
}

// triggerLevelRange returns the [min,max] DAC range for a channel's
// currently selected gain (spec §4.3: 8-bit models use a fixed
// [0x00,0xFD]; 10-bit models read the calibration pair).
func (r *Resolver) triggerLevelRange(ch int) (uint16, uint16) {
	if r.spec.SampleSizeBits <= 8 {
		return 0x00, 0xFD
	}
	gainID := r.Settings.Voltage[ch].GainID
	cal := r.spec.OffsetCalibration[ch][gainID]
	return cal.Start, cal.End
}

func clampU16(v, lo, hi uint16) uint16 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ApplyTriggerLevel derives and, when ch is the active non-special
// trigger source, writes the DAC-encoded trigger level (spec §4.3).
func (r *Resolver) ApplyTriggerLevel(ch int, volts float64) (float64, error) {
	if ch < 0 || ch >= len(r.Settings.Voltage) {
		return 0, model.NewError(model.ErrParameter, "channel %d out of range", ch)
	}

	minimum, maximum := r.triggerLevelRange(ch)
	gainStep := r.spec.GainSteps[r.Settings.Voltage[ch].GainID].VoltsPerDiv
	offsetReal := r.Settings.Voltage[ch].OffsetApplied

	raw := (offsetReal+volts/gainStep)*float64(maximum-minimum) + 0.5 + float64(minimum)
	levelValue := clampU16(uint16(raw), minimum, maximum)

	r.Settings.Trigger.Level[ch] = volts

	if !r.Settings.Trigger.SourceSpecial && ch == r.Settings.Trigger.SourceChannel {
		if err := r.queues.SetControl(queue.ControlKindSetOffset, func(m queue.BufferMessage) {
			m.(*catalog.SetOffsetMsg).SetTriggerLevelDAC(levelValue)
		}); err != nil {
			return 0, err
		}
	}

	applied := (float64(levelValue-minimum)/float64(maximum-minimum) - offsetReal) * gainStep
	return applied, nil
}

// ApplyOffset maps fraction into the channel's DAC range, stores it,
// and re-derives the trigger level against the new offset (spec
// §4.3).
func (r *Resolver) ApplyOffset(ch int, fraction float64) error {
	if ch < 0 || ch >= len(r.Settings.Voltage) {
		return model.NewError(model.ErrParameter, "channel %d out of range", ch)
	}

	minimum, maximum := r.offsetRange(ch)
	offsetValue := uint16(fraction*float64(maximum-minimum) + float64(minimum) + 0.5)
	offsetReal := float64(offsetValue-minimum) / float64(maximum-minimum)

	if err := r.queues.SetControl(queue.ControlKindSetOffset, func(m queue.BufferMessage) {
		m.(*catalog.SetOffsetMsg).SetChannelOffsetDAC(ch, offsetValue)
	}); err != nil {
		return err
	}

	r.Settings.Voltage[ch].OffsetRequested = fraction
	r.Settings.Voltage[ch].OffsetApplied = offsetReal

	_, err := r.ApplyTriggerLevel(ch, r.Settings.Trigger.Level[ch])
	return err
}

// offsetRange is the same calibration lookup ApplyTriggerLevel uses,
// kept separate because 8-bit models' offset DAC still uses the full
// 16-bit calibration range (only the trigger-level DAC is narrowed to
// [0x00,0xFD] on those models).
func (r *Resolver) offsetRange(ch int) (uint16, uint16) {
	gainID := r.Settings.Voltage[ch].GainID
	cal := r.spec.OffsetCalibration[ch][gainID]
	return cal.Start, cal.End
}

// SetGain selects the smallest gain step at least as large as
// requested, programs SetGain/SetRelays, and re-applies the channel's
// offset at the new gain's calibration range (spec §4.3).
func (r *Resolver) SetGain(ch int, requested float64) (float64, error) {
	if ch < 0 || ch >= len(r.Settings.Voltage) {
		return 0, model.NewError(model.ErrParameter, "channel %d out of range", ch)
	}

	gainID := len(r.spec.GainSteps) - 1
	for i, step := range r.spec.GainSteps {
		if step.VoltsPerDiv >= requested {
			gainID = i
			break
		}
	}

	op, _ := r.cat.BulkOpcodeFor(catalog.OpSetGain)
	raw, ok := r.queues.BulkMessage(op)
	if !ok {
		return 0, model.NewError(model.ErrUnsupported, "SetGain not registered")
	}
	msg := raw.(*catalog.SetGainMsg)
	hwCode := r.spec.GainSteps[gainID].HWIndex
	if err := r.queues.SetBulk(op, func(queue.BufferMessage) {
		msg.SetGainCode(ch, hwCode)
	}); err != nil {
		return 0, err
	}

	if err := r.queues.SetControl(queue.ControlKindSetRelays, func(m queue.BufferMessage) {
		rm := m.(*catalog.SetRelaysMsg)
		rm.SetBelow1V(ch, gainID < 3)
		rm.SetBelow100mV(ch, gainID < 6)
	}); err != nil {
		return 0, err
	}

	r.Settings.Voltage[ch].GainID = gainID

	if err := r.ApplyOffset(ch, r.Settings.Voltage[ch].OffsetRequested); err != nil {
		return 0, err
	}

	return r.spec.GainSteps[gainID].VoltsPerDiv, nil
}
