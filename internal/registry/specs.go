package registry

import "scope-service/internal/model"

// SpecFor builds the DeviceSpecification for a resolved model record
// (spec §3). Numeric ladders are grounded on
// libOpenHantek/hantekDevice.cpp's per-productID specification block:
// base/max samplerates, downsampler ceilings, record-length tiers,
// buffer dividers and gain ladders are carried over unchanged;
// voltage_scale and offset_calibration are populated with the same
// per-model constants that file assigns before a real calibration read
// overwrites them (spec §6: "calibration read ... stored into
// offset_calibration"). DSO-2090 and DSO-2150 share a Generation
// (they use the same ProtocolCatalog) but have distinct samplerate
// ceilings, so this dispatches on ProductID first and falls back to
// Generation for the 2250/5200 family.
func SpecFor(rec model.ModelRecord) *model.DeviceSpecification {
	switch rec.ProductID {
	case model.ProductDSO2150:
		return spec2150()
	case model.ProductDSO2090:
		return spec2090()
	}
	switch rec.Generation {
	case model.Gen2090_2150:
		return spec2090()
	case model.Gen2250:
		return spec2250()
	case model.Gen5200:
		return spec5200()
	default:
		return nil
	}
}

var eightBitGainSteps = []model.GainStep{
	{VoltsPerDiv: 0.08, HWIndex: 0},
	{VoltsPerDiv: 0.16, HWIndex: 1},
	{VoltsPerDiv: 0.40, HWIndex: 2},
	{VoltsPerDiv: 0.80, HWIndex: 0},
	{VoltsPerDiv: 1.60, HWIndex: 1},
	{VoltsPerDiv: 4.00, HWIndex: 2},
	{VoltsPerDiv: 8.00, HWIndex: 0},
	{VoltsPerDiv: 16.0, HWIndex: 1},
	{VoltsPerDiv: 40.0, HWIndex: 2},
}

var tenBitGainSteps = []model.GainStep{
	{VoltsPerDiv: 0.16, HWIndex: 1},
	{VoltsPerDiv: 0.40, HWIndex: 0},
	{VoltsPerDiv: 0.80, HWIndex: 0},
	{VoltsPerDiv: 1.60, HWIndex: 1},
	{VoltsPerDiv: 4.00, HWIndex: 0},
	{VoltsPerDiv: 8.00, HWIndex: 0},
	{VoltsPerDiv: 16.0, HWIndex: 1},
	{VoltsPerDiv: 40.0, HWIndex: 0},
	{VoltsPerDiv: 80.0, HWIndex: 0},
}

const bufferDividerRoll = 1000
const bufferDividerFull = 1

func voltageScale(value float64, channels, gainSteps int) [][]float64 {
	rows := make([][]float64, channels)
	for ch := range rows {
		row := make([]float64, gainSteps)
		for i := range row {
			row[i] = value
		}
		rows[ch] = row
	}
	return rows
}

func offsetCalibration(start, end uint16, channels, gainSteps int) [][]model.CalibrationRange {
	rows := make([][]model.CalibrationRange, channels)
	for ch := range rows {
		row := make([]model.CalibrationRange, gainSteps)
		for i := range row {
			row[i] = model.CalibrationRange{Start: start, End: end}
		}
		rows[ch] = row
	}
	return rows
}

func spec2090() *model.DeviceSpecification {
	return &model.DeviceSpecification{
		Single: model.SamplerateLimits{
			BaseHz: 50e6, MaxHz: 50e6, MaxDownsampler: 131072,
			RecordLengths: []uint{model.RollRecordLength, 10240, 32768},
		},
		Multi: model.SamplerateLimits{
			BaseHz: 100e6, MaxHz: 100e6, MaxDownsampler: 131072,
			RecordLengths: []uint{model.RollRecordLength, 20480, 65536},
		},
		BufferDividers:        []float64{bufferDividerRoll, bufferDividerFull, bufferDividerFull},
		GainSteps:             eightBitGainSteps,
		SampleSizeBits:        8,
		Channels:              2,
		SpecialTriggerSources: []string{"EXT", "EXT/5"},
		VoltageScale:          voltageScale(255, 2, len(eightBitGainSteps)),
		OffsetCalibration:     offsetCalibration(0x0000, 0xFFFF, 2, len(eightBitGainSteps)),
		TriggerMessageKind:    model.TriggerKindShared0E,
	}
}

func spec2150() *model.DeviceSpecification {
	s := spec2090()
	s.Single = model.SamplerateLimits{
		BaseHz: 50e6, MaxHz: 75e6, MaxDownsampler: 131072,
		RecordLengths: []uint{model.RollRecordLength, 10240, 32768},
	}
	s.Multi = model.SamplerateLimits{
		BaseHz: 100e6, MaxHz: 150e6, MaxDownsampler: 131072,
		RecordLengths: []uint{model.RollRecordLength, 20480, 65536},
	}
	return s
}

func spec2250() *model.DeviceSpecification {
	return &model.DeviceSpecification{
		Single: model.SamplerateLimits{
			BaseHz: 100e6, MaxHz: 100e6, MaxDownsampler: 65536,
			RecordLengths: []uint{model.RollRecordLength, 10240, 524288},
		},
		Multi: model.SamplerateLimits{
			BaseHz: 200e6, MaxHz: 250e6, MaxDownsampler: 65536,
			RecordLengths: []uint{model.RollRecordLength, 20480, 1048576},
		},
		BufferDividers: []float64{bufferDividerRoll, bufferDividerFull, bufferDividerFull},
		GainSteps: []model.GainStep{
			{VoltsPerDiv: 0.08, HWIndex: 0},
			{VoltsPerDiv: 0.16, HWIndex: 2},
			{VoltsPerDiv: 0.40, HWIndex: 3},
			{VoltsPerDiv: 0.80, HWIndex: 0},
			{VoltsPerDiv: 1.60, HWIndex: 2},
			{VoltsPerDiv: 4.00, HWIndex: 3},
			{VoltsPerDiv: 8.00, HWIndex: 0},
			{VoltsPerDiv: 16.0, HWIndex: 2},
			{VoltsPerDiv: 40.0, HWIndex: 3},
		},
		SampleSizeBits:        8,
		Channels:              2,
		SpecialTriggerSources: []string{"EXT", "EXT/5"},
		VoltageScale:          voltageScale(255, 2, 9),
		OffsetCalibration:     offsetCalibration(0x0000, 0xFFFF, 2, 9),
		TriggerMessageKind:    model.TriggerKind2250,
	}
}

func spec5200() *model.DeviceSpecification {
	return &model.DeviceSpecification{
		Single: model.SamplerateLimits{
			BaseHz: 100e6, MaxHz: 125e6, MaxDownsampler: 131072,
			RecordLengths: []uint{model.RollRecordLength, 10240, 14336},
		},
		Multi: model.SamplerateLimits{
			BaseHz: 200e6, MaxHz: 250e6, MaxDownsampler: 131072,
			RecordLengths: []uint{model.RollRecordLength, 20480, 28672},
		},
		BufferDividers:        []float64{bufferDividerRoll, bufferDividerFull, bufferDividerFull},
		GainSteps:             tenBitGainSteps,
		SampleSizeBits:        10,
		Channels:              2,
		SpecialTriggerSources: []string{"EXT", "EXT/5"},
		VoltageScale:          voltageScale(368, 2, len(tenBitGainSteps)),
		OffsetCalibration:     offsetCalibration(0x2000, 0xE000, 2, len(tenBitGainSteps)),
		TriggerMessageKind:    model.TriggerKind5200,
	}
}
