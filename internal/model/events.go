package model

import "time"

// StatusMessage is the payload of EventBus.statusMessage: a status
// code plus how long the UI should display it (spec §6).
type StatusMessage struct {
	Code      int
	Message   string
	TimeoutMs int
}

// RecordLengthChanged is the payload of EventBus.recordLengthChanged.
type RecordLengthChanged struct {
	Lengths    []uint
	SelectedID int
}

// SamplerateLimitsChanged is the payload of EventBus.samplerateLimitsChanged.
type SamplerateLimitsChanged struct {
	MinHz float64
	MaxHz float64
}

// SamplesAvailable is the payload of EventBus.samplesAvailable: the
// producer snapshot handed to the analyzer (spec §4.6, §5). The
// AppendMode flag and per-channel vectors come from DecodedChannels;
// At is supplemental (used only for event ordering/logging).
type SamplesAvailable struct {
	Channels   [][]float64
	SampleRate float64
	AppendMode bool
	At         time.Time
}

// AnalyzedEvent is the payload of EventBus.analyzed.
type AnalyzedEvent struct {
	MaxSampleCount int
	Data           *AnalyzedData
}
