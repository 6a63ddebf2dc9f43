package dso

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"scope-service/internal/device"
	"scope-service/internal/eventbus"
	"scope-service/internal/model"
)

type recordingHandler struct {
	connected    *DeviceInfo
	disconnected error
	statusCode   int
	measurements []Measurement
}

func (h *recordingHandler) OnConnected(info DeviceInfo)                       { h.connected = &info }
func (h *recordingHandler) OnDisconnected(reason error)                      { h.disconnected = reason }
func (h *recordingHandler) OnStatusMessage(code int, message string, ms int) { h.statusCode = code }
func (h *recordingHandler) OnMeasurement(m Measurement)                      { h.measurements = append(h.measurements, m) }

func TestSubscribeTranslatesConnectedEvent(t *testing.T) {
	bus := eventbus.New(zap.NewNop())
	dev := &device.Device{
		Record: model.ModelRecord{DisplayName: "DSO-2090"},
		Spec:   &model.DeviceSpecification{Channels: 2, SampleSizeBits: 8},
		Bus:    bus,
	}

	h := &recordingHandler{}
	Subscribe(dev, h)

	bus.PublishConnected()
	if h.connected == nil || h.connected.Model != "DSO-2090" || h.connected.Channels != 2 {
		t.Fatalf("unexpected connected info: %+v", h.connected)
	}

	bus.PublishDisconnected(errors.New("no device"))
	if h.disconnected == nil || h.disconnected.Error() != "no device" {
		t.Fatalf("unexpected disconnected reason: %v", h.disconnected)
	}

	bus.PublishStatusMessage(model.StatusMessage{Code: 42, Message: "calibrating", TimeoutMs: 500})
	if h.statusCode != 42 {
		t.Fatalf("statusCode = %d, want 42", h.statusCode)
	}
}

func TestSubscribeTranslatesAnalyzedEventPerChannel(t *testing.T) {
	bus := eventbus.New(zap.NewNop())
	dev := &device.Device{
		Record: model.ModelRecord{DisplayName: "DSO-2090"},
		Spec:   &model.DeviceSpecification{Channels: 2},
		Bus:    bus,
	}

	h := &recordingHandler{}
	Subscribe(dev, h)

	bus.PublishAnalyzed(model.AnalyzedEvent{
		Data: &model.AnalyzedData{
			Channels: []model.AnalyzedChannel{
				{AmplitudeV: 1.5, FrequencyHz: 1000, Spectrum: model.SpectrumSeries{Samples: []float64{-10, -20}, IntervalHz: 50}},
				{AmplitudeV: 2.5, FrequencyHz: 2000},
			},
		},
	})

	if len(h.measurements) != 2 {
		t.Fatalf("expected 2 measurements, got %d", len(h.measurements))
	}
	if h.measurements[0].PeakToPeak != 1.5 || h.measurements[0].SpectrumBinHz != 50 {
		t.Fatalf("unexpected measurement 0: %+v", h.measurements[0])
	}
	if h.measurements[1].Channel != 1 || h.measurements[1].FundamentalHz != 2000 {
		t.Fatalf("unexpected measurement 1: %+v", h.measurements[1])
	}
}

func TestSubscribeSkipsAnalyzedEventWithNilData(t *testing.T) {
	bus := eventbus.New(zap.NewNop())
	dev := &device.Device{Record: model.ModelRecord{}, Spec: &model.DeviceSpecification{}, Bus: bus}

	h := &recordingHandler{}
	Subscribe(dev, h)

	bus.PublishAnalyzed(model.AnalyzedEvent{Data: nil})
	if len(h.measurements) != 0 {
		t.Fatalf("expected no measurements, got %d", len(h.measurements))
	}
}
