// Package decoder implements the SampleDecoder (spec §4.5, §4.6,
// component 8): turning a raw device buffer into per-channel
// calibrated voltage vectors.
//
// Grounded on libusbDSO/deviceBaseSamples.cpp's processSamples: the
// fast-rate (single active channel occupies the whole buffer) vs.
// normal (channels interleaved) split, the trigger-point rotation of
// the buffer start, and the 10-bit extra-bits-byte unpacking are all
// carried over. The per-channel extra-bits bit offset —
// (channels-1-ch)*extraBitsSize — is preserved unchanged; it is what
// spec's testable-property S6 exercises. decodeNormal's low-byte slot
// for a channel is NOT the mirrored (channels-1-ch) position the
// 8-bit path and decodeFastRate use — each channel's 10-bit low byte
// and its extra-bits nibble must come from the same wire slot, so the
// low-byte index tracks ch directly there.
package decoder

import "scope-service/internal/model"

// Decode converts a RawPacket into calibrated per-channel voltage
// vectors (spec §4.5). settings supplies the active gain per channel
// and the currently-applied offset; spec supplies the voltage-scale
// and gain-step ladders. Exactly one vector of length
// packet.TotalSampleCount (fast-rate/single-channel) or
// TotalSampleCount/channels (normal mode) is produced per channel;
// unused channels get an empty vector (spec §4.5: "unused channels
// yield empty vectors").
func Decode(packet model.RawPacket, spec *model.DeviceSpecification, settings *model.DeviceSettings) [][]float64 {
	channels := spec.Channels
	out := make([][]float64, channels)

	if packet.FastRate {
		return decodeFastRate(packet, spec, settings, out)
	}
	return decodeNormal(packet, spec, settings, out)
}

func channelUsed(mask uint8, ch int) bool { return mask&(1<<uint(ch)) != 0 }

func decodeFastRate(packet model.RawPacket, spec *model.DeviceSpecification, settings *model.DeviceSettings, out [][]float64) [][]float64 {
	channels := spec.Channels
	active := -1
	for ch := 0; ch < channels; ch++ {
		if channelUsed(packet.ChannelMask, ch) {
			active = ch
			break
		}
	}
	for ch := range out {
		out[ch] = nil
	}
	if active < 0 {
		return out
	}

	sampleCount := packet.TotalSampleCount
	samples := make([]float64, sampleCount)
	bufferStart := int(packet.TriggerPoint) * 2

	scale := spec.VoltageScale[active][settings.Voltage[active].GainID]
	gainStep := spec.GainSteps[settings.Voltage[active].GainID].VoltsPerDiv
	offset := settings.Voltage[active].OffsetApplied

	if packet.SampleSizeBits > 8 {
		extraBitsSize := uint(packet.SampleSizeBits - 8)
		extraMask := uint16(1)<<extraBitsSize - 1
		bufferPos := bufferStart
		for i := 0; i < sampleCount; i, bufferPos = i+1, bufferPos+1 {
			if bufferPos >= sampleCount {
				bufferPos %= sampleCount
			}
			extraBitsPos := bufferPos % channels
			shift := (channels - 1 - extraBitsPos) * int(extraBitsSize)
			extraByte := packet.Bytes[sampleCount+bufferPos-extraBitsPos]
			high := (uint16(extraByte) >> uint(shift)) & extraMask
			raw := (high << 8) | uint16(packet.Bytes[bufferPos])
			samples[i] = (float64(raw)/scale - offset) * gainStep
		}
	} else {
		bufferPos := bufferStart
		for i := 0; i < sampleCount; i, bufferPos = i+1, bufferPos+1 {
			if bufferPos >= sampleCount {
				bufferPos %= sampleCount
			}
			samples[i] = (float64(packet.Bytes[bufferPos])/scale - offset) * gainStep
		}
	}

	out[active] = samples
	return out
}

func decodeNormal(packet model.RawPacket, spec *model.DeviceSpecification, settings *model.DeviceSettings, out [][]float64) [][]float64 {
	channels := spec.Channels
	totalSampleCount := packet.TotalSampleCount
	sampleCount := totalSampleCount / channels
	bufferStart := int(packet.TriggerPoint) * 2

	for ch := 0; ch < channels; ch++ {
		if !settings.Voltage[ch].Used {
			out[ch] = nil
			continue
		}

		samples := make([]float64, sampleCount)
		scale := spec.VoltageScale[ch][settings.Voltage[ch].GainID]
		gainStep := spec.GainSteps[settings.Voltage[ch].GainID].VoltsPerDiv
		offset := settings.Voltage[ch].OffsetApplied

		if packet.SampleSizeBits > 8 {
			extraBitsSize := uint(packet.SampleSizeBits - 8)
			extraMask := uint16(1)<<extraBitsSize - 1
			extraShift := (channels - 1 - ch) * int(extraBitsSize)

			bufferPos := bufferStart
			for i := 0; i < sampleCount; i, bufferPos = i+1, bufferPos+channels {
				if bufferPos >= totalSampleCount {
					bufferPos %= totalSampleCount
				}
				lowByte := packet.Bytes[bufferPos+ch]
				extraByte := packet.Bytes[totalSampleCount+bufferPos]
				high := (uint16(extraByte) >> uint(extraShift)) & extraMask
				raw := (high << 8) | uint16(lowByte)
				samples[i] = (float64(raw)/scale - offset) * gainStep
			}
		} else {
			bufferPos := bufferStart + channels - 1 - ch
			for i := 0; i < sampleCount; i, bufferPos = i+1, bufferPos+channels {
				if bufferPos >= totalSampleCount {
					bufferPos %= totalSampleCount
				}
				samples[i] = (float64(packet.Bytes[bufferPos])/scale - offset) * gainStep
			}
		}

		out[ch] = samples
	}

	return out
}
