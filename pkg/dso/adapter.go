package dso

import (
	"scope-service/internal/device"
	"scope-service/internal/model"
)

// Subscribe registers handler against dev's event bus, translating
// internal event payloads into this package's public types. It is the
// seam a caller outside this module uses instead of importing
// internal/eventbus directly, the same role
// pkg/driver.EventHandler plays for device-service's handlers.
func Subscribe(dev *device.Device, handler EventHandler) {
	dev.Bus.OnConnected(func() {
		handler.OnConnected(DeviceInfo{
			Model:          dev.Record.DisplayName,
			Channels:       dev.Spec.Channels,
			SampleSizeBits: dev.Spec.SampleSizeBits,
			Unofficial:     dev.Record.Unofficial,
		})
	})

	dev.Bus.OnDisconnected(func(reason error) {
		handler.OnDisconnected(reason)
	})

	dev.Bus.OnStatusMessage(func(e model.StatusMessage) {
		handler.OnStatusMessage(e.Code, e.Message, e.TimeoutMs)
	})

	dev.Bus.OnAnalyzed(func(e model.AnalyzedEvent) {
		if e.Data == nil {
			return
		}
		for ch, c := range e.Data.Channels {
			handler.OnMeasurement(Measurement{
				Channel:       ch,
				PeakToPeak:    c.AmplitudeV,
				FundamentalHz: c.FrequencyHz,
				SpectrumDB:    c.Spectrum.Samples,
				SpectrumBinHz: c.Spectrum.IntervalHz,
			})
		}
	})
}
