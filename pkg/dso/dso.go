// Package dso is scope-service's public contract: the data types and
// event interface a caller outside this module programs against,
// independent of internal/device's concrete wiring.
//
// Grounded in pattern on device-service/pkg/driver's types.go/
// interfaces.go split — a types file of plain request/result structs
// plus a small set of interfaces (DeviceDriver, EventHandler) other
// packages implement or consume — narrowed from that package's
// multi-category (printer/payment/scanner/display) driver surface to
// the single DeviceInfo/CaptureStatus/EventHandler set a DSO has a use
// for.
package dso

import "time"

// DeviceInfo describes the connected instrument, the DSO analogue of
// pkg/driver.DeviceInfo.
type DeviceInfo struct {
	Model          string `json:"model"`
	Channels       int    `json:"channels"`
	SampleSizeBits int    `json:"sample_size_bits"`
	Unofficial     bool   `json:"unofficial"`
}

// CaptureStatus mirrors device-service's DeviceStatus, reshaped around
// acquisition state instead of a generic online/offline/error
// taxonomy.
type CaptureStatus struct {
	SamplerateHz   float64   `json:"samplerate_hz"`
	FastRate       bool      `json:"fast_rate"`
	RecordLengthID int       `json:"record_length_id"`
	UsedChannels   int       `json:"used_channels"`
	LastSampleAt   time.Time `json:"last_sample_at"`
}

// Measurement is one analyzer pass's summary result for a single
// channel: peak-to-peak amplitude, estimated fundamental frequency,
// and the dB-scaled DFT magnitude spectrum.
type Measurement struct {
	Channel           int       `json:"channel"`
	PeakToPeak        float64   `json:"peak_to_peak"`
	FundamentalHz     float64   `json:"fundamental_hz"`
	SpectrumDB        []float64 `json:"spectrum_db"`
	SpectrumBinHz     float64   `json:"spectrum_bin_hz"`
}

// EventHandler is the set of callbacks a caller can register to learn
// about device lifecycle and measurement events without depending on
// internal/eventbus directly. The DSO analogue of
// pkg/driver.EventHandler, trimmed to the events this instrument
// actually emits (spec §6).
type EventHandler interface {
	OnConnected(info DeviceInfo)
	OnDisconnected(reason error)
	OnStatusMessage(code int, message string, timeoutMs int)
	OnMeasurement(m Measurement)
}
