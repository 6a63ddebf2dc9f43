package engine

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"scope-service/internal/catalog"
	"scope-service/internal/eventbus"
	"scope-service/internal/model"
	"scope-service/internal/queue"
	"scope-service/internal/resolver"
	"scope-service/internal/transport"
)

type beginMsg struct{}

func (beginMsg) Bytes() []byte { return []byte{0x00} }

func newTestEngine(t *testing.T, rollMode bool) (*Engine, *transport.Fake, *queue.CommandQueues) {
	t.Helper()

	spec := &model.DeviceSpecification{
		Single: model.SamplerateLimits{BaseHz: 50e6, MaxHz: 50e6, MaxDownsampler: 131072,
			RecordLengths: []uint{model.RollRecordLength, 10240}},
		Multi: model.SamplerateLimits{BaseHz: 100e6, MaxHz: 100e6, MaxDownsampler: 131072,
			RecordLengths: []uint{model.RollRecordLength, 20480}},
		BufferDividers: []float64{1000, 1},
		GainSteps:      []model.GainStep{{VoltsPerDiv: 1.0}},
		Channels:       2,
		SampleSizeBits: 8,
		VoltageScale:   [][]float64{{255}, {255}},
		OffsetCalibration: [][]model.CalibrationRange{
			{{Start: 0, End: 0xFFFF}}, {{Start: 0, End: 0xFFFF}},
		},
	}
	settings := model.NewDeviceSettings(spec)
	if rollMode {
		settings.RecordLengthID = 0
	} else {
		settings.RecordLengthID = 1
	}

	q := queue.New(beginMsg{}, zap.NewNop())
	q.RegisterBulk(catalog.BulkEnableTrigger, catalog.NewEnableTriggerMsg())
	q.RegisterBulk(catalog.BulkForceTrigger, catalog.NewForceTriggerMsg())
	q.RegisterBulk(catalog.BulkCaptureStart, catalog.NewCaptureStartMsg())
	q.RegisterBulk(catalog.BulkGetData, catalog.NewGetDataMsg())
	q.RegisterBulk(catalog.BulkGetCaptureState, catalog.NewGetCaptureStateMsg())

	cat := catalog.New2090Catalog()
	r := resolver.New(spec, cat, q, settings)
	if _, err := r.ApplySamplerate(0, false); err != nil {
		t.Fatalf("ApplySamplerate: %v", err)
	}

	tr := transport.NewFake()
	bus := eventbus.New(zap.NewNop())
	e := New(tr, q, r, spec, bus, zap.NewNop())
	return e, tr, q
}

func TestRollStateMachineS5CycleOrder(t *testing.T) {
	e, tr, _ := newTestEngine(t, true)
	e.StartSampling()
	e.resolver.Settings.Trigger.Mode = model.TriggerAuto

	var seenOpcodes []string
	step := func() {
		before := len(tr.BulkWrites)
		if err := e.rollStep(context.Background()); err != nil {
			t.Fatalf("rollStep: %v", err)
		}
		if len(tr.BulkWrites) > before {
			seenOpcodes = append(seenOpcodes, "wrote")
		}
	}

	if e.rState != rollStart {
		t.Fatalf("expected initial state rollStart, got %v", e.rState)
	}
	step() // START -> ENABLE_TRIGGER (no write issued by START itself)
	if e.rState != rollEnableTrigger {
		t.Fatalf("expected rollEnableTrigger after first step, got %v", e.rState)
	}
	step() // ENABLE_TRIGGER -> FORCE_TRIGGER
	if e.rState != rollForceTrigger {
		t.Fatalf("expected rollForceTrigger, got %v", e.rState)
	}
	step() // FORCE_TRIGGER -> READ
	if e.rState != rollRead {
		t.Fatalf("expected rollRead, got %v", e.rState)
	}
	tr.PushSamples(make([]byte, 4))
	step() // READ -> START
	if e.rState != rollStart {
		t.Fatalf("expected cycle back to rollStart after READ, got %v", e.rState)
	}
}

func TestRollStateMachineStartSkipsWhenNotSampling(t *testing.T) {
	e, _, _ := newTestEngine(t, true)
	if err := e.rollStep(context.Background()); err != nil {
		t.Fatalf("rollStep: %v", err)
	}
	if e.rState != rollStart {
		t.Fatal("START must not advance while sampling is false")
	}
}

func TestRollSingleTriggerStopsSamplingAfterRead(t *testing.T) {
	e, tr, _ := newTestEngine(t, true)
	e.StartSampling()
	e.resolver.Settings.Trigger.Mode = model.TriggerSingle
	e.rState = rollRead

	tr.PushSamples(make([]byte, 4))
	if err := e.rollStep(context.Background()); err != nil {
		t.Fatalf("rollStep: %v", err)
	}
	if e.sampling {
		t.Fatal("expected sampling=false after a single-trigger READ")
	}
}

func TestStandardModeReadyTransitionsToWaiting(t *testing.T) {
	e, tr, _ := newTestEngine(t, false)
	e.StartSampling()

	// GetCaptureState response: state=CaptureReady(2), trigger point 0.
	tr.PushSamples([]byte{0x02, 0x00, 0x00})
	tr.PushSamples(make([]byte, 10240))

	if err := e.stdStep(context.Background()); err != nil {
		t.Fatalf("stdStep: %v", err)
	}
	if len(tr.BulkWrites) == 0 {
		t.Fatal("expected at least GetCaptureState/GetData bulk writes")
	}
}

func TestStandardModeUnknownStateIsIgnored(t *testing.T) {
	e, tr, _ := newTestEngine(t, false)
	tr.PushSamples([]byte{0xFF, 0x00, 0x00})
	if err := e.stdStep(context.Background()); err != nil {
		t.Fatalf("stdStep should not error on an unknown capture state: %v", err)
	}
}

func TestRollReadHandlesEmptyPacketWithoutPanicking(t *testing.T) {
	e, _, _ := newTestEngine(t, true)
	e.StartSampling()
	e.rState = rollRead

	// No PushSamples: BulkRead returns (0, nil), the fake transport's
	// documented simulation of an undersized roll-mode packet.
	if err := e.rollStep(context.Background()); err != nil {
		t.Fatalf("rollStep: %v", err)
	}
	if e.rState != rollStart {
		t.Fatalf("expected cycle back to rollStart after an empty READ, got %v", e.rState)
	}
}

func TestComputePollMsClampsToRange(t *testing.T) {
	e, _, _ := newTestEngine(t, false)
	ms := e.computePollMs()
	if ms < 10 || ms > 1000 {
		t.Fatalf("poll interval %v out of clamp range [10,1000]", ms)
	}
}
