package device

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"scope-service/internal/catalog"
	"scope-service/internal/model"
	"scope-service/internal/queue"
	"scope-service/internal/transport"
)

func testSpec() *model.DeviceSpecification {
	return &model.DeviceSpecification{
		Single: model.SamplerateLimits{BaseHz: 50e6, MaxHz: 50e6, MaxDownsampler: 131072,
			RecordLengths: []uint{model.RollRecordLength, 10240}},
		Multi: model.SamplerateLimits{BaseHz: 100e6, MaxHz: 100e6, MaxDownsampler: 131072,
			RecordLengths: []uint{model.RollRecordLength, 20480}},
		BufferDividers: []float64{1000, 1},
		GainSteps: []model.GainStep{
			{VoltsPerDiv: 0.08, HWIndex: 0},
			{VoltsPerDiv: 0.16, HWIndex: 1},
		},
		Channels:          2,
		SampleSizeBits:    8,
		VoltageScale:      [][]float64{{255, 255}, {255, 255}},
		OffsetCalibration: [][]model.CalibrationRange{{{}, {}}, {{}, {}}},
	}
}

func TestRegisterMessages2090RegistersSharedTriggerSamplerate(t *testing.T) {
	q := queue.New(beginCommandMsg{}, zap.NewNop())
	cat := catalog.New2090Catalog()
	registerMessages(q, cat, testSpec())

	if _, ok := q.BulkMessage(catalog.BulkSetTriggerAndSamplerate); !ok {
		t.Fatal("expected SetTriggerAndSamplerate registered for 2090 generation")
	}
	if _, ok := q.BulkMessage(catalog.BulkSetChannels2250); ok {
		t.Fatal("did not expect a 2250-only opcode registered for the 2090 generation")
	}
}

func TestRegisterMessages2250RegistersPerOpcodeMessages(t *testing.T) {
	q := queue.New(beginCommandMsg{}, zap.NewNop())
	cat := catalog.New2250Catalog()
	registerMessages(q, cat, testSpec())

	for _, op := range []catalog.BulkOpcode{
		catalog.BulkSetChannels2250, catalog.BulkShared0C, catalog.BulkShared0E, catalog.BulkShared0D,
	} {
		if _, ok := q.BulkMessage(op); !ok {
			t.Fatalf("expected opcode %s registered for 2250 generation", op)
		}
	}
}

func TestRegisterMessagesAlwaysRegistersControlSlots(t *testing.T) {
	q := queue.New(beginCommandMsg{}, zap.NewNop())
	registerMessages(q, catalog.New5200Catalog(), testSpec())

	if err := q.SetControl(queue.ControlKindSetOffset, func(queue.BufferMessage) {}); err != nil {
		t.Fatalf("expected SetOffset control registered: %v", err)
	}
	if err := q.SetControl(queue.ControlKindSetRelays, func(queue.BufferMessage) {}); err != nil {
		t.Fatalf("expected SetRelays control registered: %v", err)
	}
}

func TestReadCalibrationOverwritesOffsetCalibrationTable(t *testing.T) {
	spec := testSpec()
	fake := transport.NewFake()
	// channel0/gain0 -> {0x1000,0xE000}, channel0/gain1 -> {0x2000,0xD000},
	// channel1/gain0 -> {0x3000,0xC000}, channel1/gain1 -> {0x4000,0xB000}
	fake.ControlReadResponses[uint8(catalog.ControlValue)] = []byte{
		0x10, 0x00, 0xE0, 0x00,
		0x20, 0x00, 0xD0, 0x00,
		0x30, 0x00, 0xC0, 0x00,
		0x40, 0x00, 0xB0, 0x00,
	}

	d := &Device{Spec: spec, transport: fake, logger: zap.NewNop()}
	if err := d.readCalibration(context.Background()); err != nil {
		t.Fatalf("readCalibration: %v", err)
	}

	want := model.CalibrationRange{Start: 0x1000, End: 0xE000}
	if got := spec.OffsetCalibration[0][0]; got != want {
		t.Fatalf("channel 0 gain 0 = %+v, want %+v", got, want)
	}
	want = model.CalibrationRange{Start: 0x4000, End: 0xB000}
	if got := spec.OffsetCalibration[1][1]; got != want {
		t.Fatalf("channel 1 gain 1 = %+v, want %+v", got, want)
	}
}

func TestReadCalibrationErrorsOnShortResponse(t *testing.T) {
	spec := testSpec()
	fake := transport.NewFake()
	fake.ControlReadResponses[uint8(catalog.ControlValue)] = []byte{0x01, 0x02}

	d := &Device{Spec: spec, transport: fake, logger: zap.NewNop()}
	if err := d.readCalibration(context.Background()); err == nil {
		t.Fatal("expected an error for a truncated calibration response")
	}
}
