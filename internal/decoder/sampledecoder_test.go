package decoder

import (
	"math"
	"testing"

	"scope-service/internal/model"
)

func testSpec8Bit() *model.DeviceSpecification {
	return &model.DeviceSpecification{
		Channels:       2,
		SampleSizeBits: 8,
		GainSteps:      []model.GainStep{{VoltsPerDiv: 1.0}},
		VoltageScale:   [][]float64{{255}, {255}},
	}
}

func testSpec10Bit() *model.DeviceSpecification {
	return &model.DeviceSpecification{
		Channels:       2,
		SampleSizeBits: 10,
		GainSteps:      []model.GainStep{{VoltsPerDiv: 1.0}},
		VoltageScale:   [][]float64{{256}, {256}},
	}
}

func testSettings(channels int) *model.DeviceSettings {
	voltage := make([]model.VoltageChannel, channels)
	for i := range voltage {
		voltage[i] = model.VoltageChannel{Used: true}
	}
	return &model.DeviceSettings{Voltage: voltage}
}

func TestDecodeNormal8BitInterleavesChannels(t *testing.T) {
	spec := testSpec8Bit()
	settings := testSettings(2)

	// 4 total bytes, 2 channels -> 2 samples/channel. Byte layout per
	// spec §4.5: [ch1 ch0] pairs.
	packet := model.RawPacket{
		Bytes:            []byte{0x10, 0x20, 0x30, 0x40},
		TotalSampleCount: 4,
		ChannelMask:      0b11,
		SampleSizeBits:   8,
	}

	out := Decode(packet, spec, settings)
	if len(out) != 2 {
		t.Fatalf("expected 2 channel vectors, got %d", len(out))
	}
	if len(out[0]) != 2 || len(out[1]) != 2 {
		t.Fatalf("expected 2 samples per channel, got %d/%d", len(out[0]), len(out[1]))
	}
}

func TestDecodeSkipsUnusedChannels(t *testing.T) {
	spec := testSpec8Bit()
	settings := testSettings(2)
	settings.Voltage[1].Used = false

	packet := model.RawPacket{
		Bytes:            []byte{0x10, 0x20, 0x30, 0x40},
		TotalSampleCount: 4,
		ChannelMask:      0b01,
		SampleSizeBits:   8,
	}

	out := Decode(packet, spec, settings)
	if out[1] != nil {
		t.Fatalf("expected nil vector for unused channel, got %v", out[1])
	}
	if out[0] == nil {
		t.Fatal("expected a vector for the used channel")
	}
}

func TestDecodeFastRateUsesSingleActiveChannel(t *testing.T) {
	spec := testSpec8Bit()
	settings := testSettings(2)

	packet := model.RawPacket{
		Bytes:            []byte{0x80, 0x90, 0xA0, 0xB0},
		TotalSampleCount: 4,
		ChannelMask:      0b10, // only channel 1 active
		FastRate:         true,
		SampleSizeBits:   8,
	}

	out := Decode(packet, spec, settings)
	if out[0] != nil {
		t.Fatalf("expected channel 0 empty in fast-rate mode, got %v", out[0])
	}
	if len(out[1]) != 4 {
		t.Fatalf("expected all 4 bytes decoded into the active channel, got %d", len(out[1]))
	}
}

// TestDecode10BitExtraBitsOffset exercises the S6 worked example: low
// bytes [0x80, 0x40], shared extra-bits byte 0x06 (0b00000110), gains
// configured so voltage_scale=256, offset 0, gain_step 1.0.
func TestDecode10BitExtraBitsOffset(t *testing.T) {
	spec := testSpec10Bit()
	settings := testSettings(2)

	// total_sample_count=2 (one sample per channel).
	packet := model.RawPacket{
		Bytes:            []byte{0x80, 0x40, 0x06},
		TotalSampleCount: 2,
		ChannelMask:      0b11,
		SampleSizeBits:   10,
	}

	out := Decode(packet, spec, settings)

	ch0Raw := 0x180
	ch1Raw := 0x240
	wantCh0 := float64(ch0Raw) / 256
	wantCh1 := float64(ch1Raw) / 256

	if math.Abs(out[0][0]-wantCh0) > 1e-9 {
		t.Fatalf("ch0 = %v, want %v (raw 0x%X)", out[0][0], wantCh0, ch0Raw)
	}
	if math.Abs(out[1][0]-wantCh1) > 1e-9 {
		t.Fatalf("ch1 = %v, want %v (raw 0x%X)", out[1][0], wantCh1, ch1Raw)
	}
}
