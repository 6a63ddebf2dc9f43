// Package analyzer implements the DataAnalyzer (spec §4.6, component
// 9): the consumer stage that turns decoded voltage vectors into
// voltage time series, a math channel, windowed spectra and an
// autocorrelation-based fundamental frequency estimate.
//
// Grounded in pattern on
// device-service/internal/protocol/serial/connection.go's
// mutex-guarded-state-plus-dedicated-goroutine shape, generalized from
// a single open/close flag to a depth-one producer/consumer queue
// (spec §4.6's "if the analyzer is still busy ... dropped").
package analyzer

import (
	"context"
	"math"
	"math/cmplx"

	"go.uber.org/zap"

	"scope-service/internal/eventbus"
	"scope-service/internal/model"
)

// Analyzer is the analyzer-thread side of spec §5's two-thread model:
// it owns its spectrum/autocorrelation work buffers exclusively and is
// fed snapshots through a depth-one channel.
type Analyzer struct {
	cfg              model.AnalyzerSettings
	physicalChannels int
	bus              *eventbus.EventBus
	logger           *zap.Logger

	incoming chan model.SamplesAvailable
	stopCh   chan struct{}
	doneCh   chan struct{}

	voltage    []model.VoltageSeries
	lastRateHz []float64

	windowFn    model.WindowFunction
	windowLen   int
	windowTable []float64
}

// New builds an Analyzer for a device with physicalChannels channels
// (2 for every generation this driver supports). cfg is copied; use
// SetConfig to change it after Run has started.
func New(cfg model.AnalyzerSettings, physicalChannels int, bus *eventbus.EventBus, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		cfg:              cfg,
		physicalChannels: physicalChannels,
		bus:              bus,
		logger:           logger,
		incoming:         make(chan model.SamplesAvailable, 1),
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
		voltage:          make([]model.VoltageSeries, physicalChannels),
		lastRateHz:       make([]float64, physicalChannels),
	}
}

// SetConfig updates the window/math/dB configuration. Safe to call
// concurrently with Run; the next processed packet picks it up.
func (a *Analyzer) SetConfig(cfg model.AnalyzerSettings) {
	a.cfg = cfg
}

// Submit hands a decoded packet to the analyzer. If the analyzer is
// still processing the previous packet, this one is dropped and
// recorded as an overload status message (spec §4.6): backpressure is
// one-deep, never blocking the producer (the acquisition goroutine).
func (a *Analyzer) Submit(e model.SamplesAvailable) {
	select {
	case a.incoming <- e:
	default:
		a.logger.Warn("analyzer overloaded, dropping packet")
		if a.bus != nil {
			a.bus.PublishStatusMessage(model.StatusMessage{
				Code:      model.StatusAnalyzerOverload,
				Message:   "analyzer busy, packet dropped",
				TimeoutMs: 2000,
			})
		}
	}
}

// Run drains submitted packets until ctx is cancelled or Stop is
// called.
func (a *Analyzer) Run(ctx context.Context) {
	defer close(a.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCh:
			return
		case e := <-a.incoming:
			data := a.process(e)
			if a.bus != nil {
				a.bus.PublishAnalyzed(model.AnalyzedEvent{MaxSampleCount: data.MaxSampleCount, Data: data})
			}
		}
	}
}

// Stop signals Run to exit and blocks until it has. Idempotent.
func (a *Analyzer) Stop() {
	select {
	case <-a.stopCh:
	default:
		close(a.stopCh)
	}
	<-a.doneCh
}

// process implements spec §4.6's six numbered steps for one incoming
// packet and returns the full analyzed result. It is unexported; tests
// in this package call it directly for a synchronous pass without
// driving the channel/goroutine.
func (a *Analyzer) process(e model.SamplesAvailable) *model.AnalyzedData {
	total := a.physicalChannels
	hasMath := a.cfg.Math != model.MathNone && total == 2 && len(e.Channels) >= 2 &&
		e.Channels[0] != nil && e.Channels[1] != nil
	count := total
	if hasMath {
		count++
	}

	channels := make([]model.AnalyzedChannel, count)
	maxCount := 0

	for ch := 0; ch < total; ch++ {
		var samples []float64
		if ch < len(e.Channels) {
			samples = e.Channels[ch]
		}
		channels[ch].Voltage = a.applyVoltagePass(ch, samples, e.SampleRate, e.AppendMode)
		if n := len(channels[ch].Voltage.Samples); n > maxCount {
			maxCount = n
		}
	}

	if hasMath {
		mathSamples := combineMath(a.cfg.Math, channels[0].Voltage.Samples, channels[1].Voltage.Samples)
		channels[total] = model.AnalyzedChannel{
			Voltage: model.VoltageSeries{Samples: mathSamples, IntervalS: channels[0].Voltage.IntervalS},
		}
		if len(mathSamples) > maxCount {
			maxCount = len(mathSamples)
		}
	}

	for i := range channels {
		v := channels[i].Voltage.Samples
		if len(v) == 0 {
			continue
		}
		channels[i].AmplitudeV = peakToPeak(v)
		spectrum, freq := a.spectrumAndFrequency(v, channels[i].Voltage.IntervalS)
		channels[i].Spectrum = spectrum
		channels[i].FrequencyHz = freq
	}

	return &model.AnalyzedData{Channels: channels, MaxSampleCount: maxCount}
}

// applyVoltagePass implements spec §4.6 item 1: append in roll mode
// (discarding the prior buffer if the samplerate changed since), replace
// otherwise.
func (a *Analyzer) applyVoltagePass(ch int, samples []float64, sampleRate float64, appendMode bool) model.VoltageSeries {
	if appendMode {
		if a.lastRateHz[ch] != 0 && a.lastRateHz[ch] != sampleRate {
			a.voltage[ch].Samples = nil
		}
		a.voltage[ch].Samples = append(a.voltage[ch].Samples, samples...)
	} else {
		a.voltage[ch].Samples = samples
	}
	a.lastRateHz[ch] = sampleRate
	if sampleRate > 0 {
		a.voltage[ch].IntervalS = 1 / sampleRate
	}
	return a.voltage[ch]
}

// combineMath implements spec §4.6 item 2's three math modes.
func combineMath(mode model.MathMode, ch1, ch2 []float64) []float64 {
	n := len(ch1)
	if len(ch2) < n {
		n = len(ch2)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		switch mode {
		case model.MathSum:
			out[i] = ch1[i] + ch2[i]
		case model.MathDiff12:
			out[i] = ch1[i] - ch2[i]
		case model.MathDiff21:
			out[i] = ch2[i] - ch1[i]
		}
	}
	return out
}

func peakToPeak(v []float64) float64 {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return hi - lo
}

// spectrumAndFrequency implements spec §4.6 items 3, 5 and 6: rebuild
// the window table if the window function or length changed, apply it,
// DFT, convert to dB, then derive the fundamental frequency from the
// autocorrelation of the power spectrum.
func (a *Analyzer) spectrumAndFrequency(v []float64, intervalS float64) (model.SpectrumSeries, float64) {
	n := nextPowerOfTwo(len(v))
	if a.windowTable == nil || a.windowFn != a.cfg.Window || a.windowLen != n {
		a.windowTable = windowCoefficients(a.cfg.Window, n)
		a.windowFn = a.cfg.Window
		a.windowLen = n
	}

	windowed := make([]float64, n)
	for i, x := range v {
		windowed[i] = x * a.windowTable[i]
	}

	spectrum := dftMagnitudes(windowed)

	half := n / 2
	mags := make([]float64, half)
	copy(mags, spectrum[:half])

	sampleIntervalHz := 1.0
	if intervalS > 0 {
		sampleIntervalHz = 1 / (intervalS * float64(n))
	}

	if a.cfg.SpectrumDB {
		for i, m := range mags {
			db := 20*math.Log10(m) + 60 - a.cfg.RefDb - 20*math.Log10(float64(n)/2)
			floor := a.cfg.LimitDb - a.cfg.RefDb
			if db < floor {
				db = floor
			}
			mags[i] = db
		}
	}

	freq := fundamentalFrequency(spectrum, n, intervalS)

	return model.SpectrumSeries{Samples: mags, IntervalHz: sampleIntervalHz}, freq
}

// fundamentalFrequency implements spec §4.6 item 5: power spectrum,
// inverse DFT to the biased autocorrelation, search bins [1, N/2) for
// the maximum that strictly exceeds 2x the smallest correlation value
// seen so far in the scan (starting from corr[0]), so the lags on the
// initial fall from lag 0 never qualify as the peak.
func fundamentalFrequency(magnitudes []float64, n int, intervalS float64) float64 {
	power := make([]complex128, n)
	for i, m := range magnitudes {
		power[i] = complex(m*m, 0)
	}
	corr := inverseDFT(power)

	minCorr := real(corr[0])
	peakBin := -1
	peakVal := math.Inf(-1)
	for k := 1; k < n/2; k++ {
		v := real(corr[k])
		if v > 2*minCorr && v > peakVal {
			peakVal = v
			peakBin = k
		} else if v < minCorr {
			minCorr = v
		}
	}
	if peakBin < 0 || intervalS <= 0 {
		return 0
	}
	return 1 / (intervalS * float64(peakBin))
}

// dftMagnitudes is a direct O(N^2) real DFT (spec doesn't require a
// specific algorithm, just a power-of-two length; no FFT library is
// wired into this repo's dependency set, see DESIGN.md). Returns |X[k]|
// for k in [0, N).
func dftMagnitudes(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum complex128
		for t, xt := range x {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			sum += complex(xt, 0) * cmplx.Exp(complex(0, angle))
		}
		out[k] = cmplx.Abs(sum)
	}
	return out
}

// inverseDFT is the matching direct inverse transform used for the
// autocorrelation step.
func inverseDFT(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	for t := 0; t < n; t++ {
		var sum complex128
		for k, xk := range x {
			angle := 2 * math.Pi * float64(k) * float64(t) / float64(n)
			sum += xk * cmplx.Exp(complex(0, angle))
		}
		out[t] = sum / complex(float64(n), 0)
	}
	return out
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
