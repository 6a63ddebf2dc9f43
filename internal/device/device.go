// Package device implements the connected-device lifecycle: resolving
// a USB identity to its protocol catalog, registering every bulk/
// control message the connected generation's catalog names, wiring
// the acquisition engine's sample output into the analyzer, and
// exposing the parameter-resolution passthrough a caller drives.
//
// Grounded in pattern on device-service/internal/service/device_service.go's
// ConnectDevice flow (repository lookup -> driver lookup -> status
// transition -> goroutine launch), generalized from a DB-backed device
// record to the registry's static capability lookup, and on
// device-service/internal/discovery/usb/scanner.go's stop-channel
// goroutine shape for the engine/analyzer pair this package now owns
// (spec §9's "Arc/equivalent or a thread handle with a stop channel
// closed on drop" note, reused a third time here rather than adding a
// back-pointer from Engine/Analyzer to Device).
package device

import (
	"context"
	"fmt"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"scope-service/internal/analyzer"
	"scope-service/internal/catalog"
	"scope-service/internal/engine"
	"scope-service/internal/eventbus"
	"scope-service/internal/firmware"
	"scope-service/internal/model"
	"scope-service/internal/queue"
	"scope-service/internal/registry"
	"scope-service/internal/resolver"
	"scope-service/internal/transport"
)

// Device owns one connected DSO end to end: the transport, its
// generation-specific command queues, the parameter resolver, the
// acquisition engine and the sample analyzer. Connect and Disconnect
// are the only exported lifecycle operations; every parameter setter
// is reached through Resolver.
type Device struct {
	Record   model.ModelRecord
	Spec     *model.DeviceSpecification
	Settings *model.DeviceSettings
	Resolver *resolver.Resolver
	Bus      *eventbus.EventBus

	transport transport.Transport
	queues    *queue.CommandQueues
	engine    *engine.Engine
	analyzer  *analyzer.Analyzer
	logger    *zap.Logger

	cancel  context.CancelFunc
	runDone chan struct{}
}

// beginCommandMsg is the fixed two-byte BeginCommand prefix every bulk
// write is preceded by (spec §4.2, §6); it has no settable fields.
type beginCommandMsg struct{}

func (beginCommandMsg) Bytes() []byte { return []byte{0x0F, 0x03} }

// Connect resolves vendorID/productID against the model registry,
// opens the USB transport at the resolved endpoints, uploads firmware
// first if the resolved record requires it, registers every bulk/
// control message the catalog names, performs the calibration read,
// and starts the acquisition engine and analyzer goroutines (spec §3
// "connect populates spec, initializes all command buffers", §4.7
// failure semantics for an unsupported or not-yet-firmware-loaded
// device).
func Connect(ctx context.Context, vendorID, productID gousb.ID, firmwareBlob []byte, logger *zap.Logger) (*Device, error) {
	db := registry.NewDatabase()
	rec, err := db.Lookup(vendorID, productID)
	if err != nil {
		if !rec.FirmwareRequired {
			return nil, err
		}
		if len(firmwareBlob) == 0 {
			return nil, fmt.Errorf("device: %s requires firmware and none was supplied: %w", rec.DisplayName, err)
		}
		if upErr := uploadFirmware(ctx, vendorID, productID, rec.Endpoints, firmwareBlob, logger); upErr != nil {
			return nil, fmt.Errorf("device: firmware upload failed: %w", upErr)
		}
		// The 6022 family re-enumerates under the same VID/PID with the
		// DSO protocol active once firmware is running; the caller is
		// expected to retry Connect after the device settles.
		return nil, fmt.Errorf("device: firmware uploaded, reconnect to continue")
	}

	cat := registry.CatalogFor(rec)
	if cat == nil {
		return nil, model.NewError(model.ErrUnsupported, "%s has no protocol catalog", rec.DisplayName)
	}
	spec := registry.SpecFor(rec)

	t, err := transport.NewUSBTransport(vendorID, productID, rec.Endpoints.BulkOut, rec.Endpoints.BulkIn, logger)
	if err != nil {
		return nil, fmt.Errorf("device: open transport: %w", err)
	}

	settings := model.NewDeviceSettings(spec)
	queues := queue.New(beginCommandMsg{}, logger)
	registerMessages(queues, cat, spec)

	res := resolver.New(spec, cat, queues, settings)
	bus := eventbus.New(logger)

	d := &Device{
		Record:    rec,
		Spec:      spec,
		Settings:  settings,
		Resolver:  res,
		Bus:       bus,
		transport: t,
		queues:    queues,
		logger:    logger.With(zap.String("model", rec.DisplayName)),
	}

	t.SetDisconnectCallback(func() {
		bus.PublishDisconnected(transport.ErrNoDevice)
	})

	if err := d.readCalibration(ctx); err != nil {
		d.logger.Warn("calibration read failed, using fabrication defaults", zap.Error(err))
	}

	if _, err := res.ApplySamplerate(0, false); err != nil {
		t.Close()
		return nil, fmt.Errorf("device: initial samplerate: %w", err)
	}

	d.engine = engine.New(t, queues, res, spec, bus, d.logger)
	d.analyzer = analyzer.New(model.DefaultAnalyzerSettings(), spec.Channels, bus, d.logger)
	bus.OnSamplesAvailable(d.analyzer.Submit)

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.runDone = make(chan struct{})

	go d.analyzer.Run(runCtx)
	go func() {
		defer close(d.runDone)
		if err := d.engine.Run(runCtx); err != nil {
			d.logger.Warn("acquisition loop exited", zap.Error(err))
		}
	}()

	bus.PublishConnected()
	return d, nil
}

// Disconnect stops the acquisition and analyzer goroutines and closes
// the transport. Idempotent (spec §5 "disconnect() is idempotent").
func (d *Device) Disconnect() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.engine != nil {
		d.engine.Stop()
	}
	if d.analyzer != nil {
		d.analyzer.Stop()
	}
	if d.transport != nil {
		d.transport.Close()
	}
	d.Bus.PublishDisconnected(nil)
}

// StartSampling arms the acquisition engine (spec §4.4).
func (d *Device) StartSampling() {
	d.engine.StartSampling()
}

// registerMessages installs every bulk/control message buffer the
// connected generation's catalog maps an operation onto (spec §3).
// Operations absent from a generation's catalog are silently skipped:
// CommandQueues.SetBulk/BulkMessage treat an unregistered opcode as
// "not applicable for connected model", not an error.
func registerMessages(q *queue.CommandQueues, cat *catalog.Catalog, spec *model.DeviceSpecification) {
	register := func(op catalog.Operation, msg queue.BufferMessage) {
		if code, ok := cat.BulkOpcodeFor(op); ok {
			q.RegisterBulk(code, msg)
		}
	}

	register(catalog.OpSetFilter, catalog.NewSetFilterMsg())
	register(catalog.OpForceTrigger, catalog.NewForceTriggerMsg())
	register(catalog.OpCaptureStart, catalog.NewCaptureStartMsg())
	register(catalog.OpEnableTrigger, catalog.NewEnableTriggerMsg())
	register(catalog.OpGetData, catalog.NewGetDataMsg())
	register(catalog.OpGetCaptureState, catalog.NewGetCaptureStateMsg())
	register(catalog.OpSetGain, catalog.NewSetGainMsg(spec.Channels))

	switch cat.Generation {
	case model.Gen2090_2150:
		register(catalog.OpSetTriggerAndSamplerate, catalog.NewSetTriggerAndSamplerateMsg())
	case model.Gen2250:
		register(catalog.OpSetChannels, catalog.NewSetChannels2250Msg())
		register(catalog.OpSetTrigger, catalog.NewSetTrigger2250Msg())
		register(catalog.OpSetSamplerate, catalog.NewSetSamplerate2250Msg())
		register(catalog.OpSetRecordLength, catalog.NewSetRecordLength2250Msg())
		register(catalog.OpSetBuffer, catalog.NewSetBuffer2250Msg())
	case model.Gen5200:
		register(catalog.OpSetSamplerate, catalog.NewSetSamplerate5200Msg())
		register(catalog.OpSetBuffer, catalog.NewSetBuffer5200Msg())
		register(catalog.OpSetTrigger, catalog.NewSetTrigger5200Msg())
	}

	q.RegisterControl(queue.ControlKindSetOffset, catalog.ControlSetOffset, catalog.NewSetOffsetMsg(spec.Channels))
	q.RegisterControl(queue.ControlKindSetRelays, catalog.ControlSetRelays, catalog.NewSetRelaysMsg(spec.Channels))
}

// readCalibration issues the GetValue(OffsetLimits) control read and
// overwrites spec's fabricated OffsetCalibration table with the
// device's own per-channel, per-gain [START,END] DAC pairs (spec §3,
// §6: "calibration read ... stored into offset_calibration"). The
// wire layout - channels x gain steps x (START,END) x 2 bytes,
// big-endian - is carried over from
// libOpenHantek/hantekDeviceTrigger.cpp's calibration read.
func (d *Device) readCalibration(ctx context.Context) error {
	channels := d.Spec.Channels
	gainSteps := len(d.Spec.GainSteps)
	length := channels * gainSteps * 2 * 2

	raw, err := d.transport.ControlRead(ctx, uint8(catalog.ControlValue), uint16(catalog.ValueOffsetLimits), 0, length)
	if err != nil {
		return err
	}
	if len(raw) < length {
		return fmt.Errorf("device: calibration read returned %d bytes, want %d", len(raw), length)
	}

	pos := 0
	for ch := 0; ch < channels; ch++ {
		for g := 0; g < gainSteps; g++ {
			start := uint16(raw[pos])<<8 | uint16(raw[pos+1])
			end := uint16(raw[pos+2])<<8 | uint16(raw[pos+3])
			d.Spec.OffsetCalibration[ch][g] = model.CalibrationRange{Start: start, End: end}
			pos += 4
		}
	}
	return nil
}

// uploadFirmware issues one control write per decoded firmware record
// to the 6022/602A family's firmware-load request (spec's supplemental
// firmware feature, grounded on
// original_source/libOpenHantek60xx/hantekDevice.cpp's uploadFirmware
// loop; see internal/firmware for the record framing).
func uploadFirmware(ctx context.Context, vendorID, productID gousb.ID, endpoints model.Endpoints, blob []byte, logger *zap.Logger) error {
	records, err := firmware.Decode(blob)
	if err != nil {
		return err
	}

	t, err := transport.NewUSBTransport(vendorID, productID, endpoints.BulkOut, endpoints.BulkIn, logger)
	if err != nil {
		return fmt.Errorf("open transport for firmware upload: %w", err)
	}
	defer t.Close()

	for i, rec := range records {
		if err := t.ControlWrite(ctx, uint8(catalog.FirmwareRequest), rec.Value, uint16(catalog.FirmwareIndex), rec.Payload); err != nil {
			return fmt.Errorf("firmware record %d/%d: %w", i+1, len(records), err)
		}
	}
	return nil
}
