package model

// VoltageSeries is a decoded, calibrated per-channel voltage time
// series plus its sample interval.
type VoltageSeries struct {
	Samples    []float64
	IntervalS  float64
}

// SpectrumSeries is a windowed-DFT magnitude series in dB plus its
// frequency bin interval.
type SpectrumSeries struct {
	Samples    []float64
	IntervalHz float64
}

// AnalyzedChannel is the per-channel output of DataAnalyzer (spec §3).
type AnalyzedChannel struct {
	Voltage     VoltageSeries
	Spectrum    SpectrumSeries
	AmplitudeV  float64
	FrequencyHz float64
}

// AnalyzedData is the full output of one analysis pass, one entry per
// enabled channel (physical channels first, then any math channel).
type AnalyzedData struct {
	Channels        []AnalyzedChannel
	MaxSampleCount  int
}

// RawPacket is what the AcquisitionEngine hands the SampleDecoder and,
// after decoding, what the producer snapshots across the
// acquisition→analyzer boundary (spec §4.5, §5).
type RawPacket struct {
	Bytes            []byte
	TotalSampleCount int
	ChannelMask      uint8
	FastRate         bool
	TriggerPoint     uint32
	SampleSizeBits   int
}

// DecodedChannels is the SampleDecoder's output: exactly one []float64
// per physical channel, empty for channels not enabled.
type DecodedChannels struct {
	Volts      [][]float64
	SampleRate float64
	AppendMode bool // roll mode: analyzer should concatenate, not replace
}
