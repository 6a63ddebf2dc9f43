package analyzer

import (
	"context"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"scope-service/internal/eventbus"
	"scope-service/internal/model"
)

func TestVoltagePassReplacesInStandardMode(t *testing.T) {
	a := New(model.DefaultAnalyzerSettings(), 2, eventbus.New(zap.NewNop()), zap.NewNop())

	first := a.process(model.SamplesAvailable{
		Channels:   [][]float64{{1, 2, 3}, {4, 5, 6}},
		SampleRate: 1000,
		AppendMode: false,
	})
	if len(first.Channels[0].Voltage.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(first.Channels[0].Voltage.Samples))
	}

	second := a.process(model.SamplesAvailable{
		Channels:   [][]float64{{9, 9}, {9, 9}},
		SampleRate: 1000,
		AppendMode: false,
	})
	if len(second.Channels[0].Voltage.Samples) != 2 {
		t.Fatalf("expected replace to drop the old buffer, got %d samples", len(second.Channels[0].Voltage.Samples))
	}
}

func TestVoltagePassAppendsInRollMode(t *testing.T) {
	a := New(model.DefaultAnalyzerSettings(), 2, eventbus.New(zap.NewNop()), zap.NewNop())

	a.process(model.SamplesAvailable{
		Channels:   [][]float64{{1, 2}, {3, 4}},
		SampleRate: 1000,
		AppendMode: true,
	})
	second := a.process(model.SamplesAvailable{
		Channels:   [][]float64{{5, 6}, {7, 8}},
		SampleRate: 1000,
		AppendMode: true,
	})
	if len(second.Channels[0].Voltage.Samples) != 4 {
		t.Fatalf("expected concatenated 4 samples, got %d", len(second.Channels[0].Voltage.Samples))
	}
}

func TestVoltagePassDiscardsOnSamplerateChangeWhileAppending(t *testing.T) {
	a := New(model.DefaultAnalyzerSettings(), 2, eventbus.New(zap.NewNop()), zap.NewNop())

	a.process(model.SamplesAvailable{
		Channels:   [][]float64{{1, 2}, {3, 4}},
		SampleRate: 1000,
		AppendMode: true,
	})
	second := a.process(model.SamplesAvailable{
		Channels:   [][]float64{{5, 6}, {7, 8}},
		SampleRate: 2000,
		AppendMode: true,
	})
	if len(second.Channels[0].Voltage.Samples) != 2 {
		t.Fatalf("expected the prior buffer discarded on samplerate change, got %d samples", len(second.Channels[0].Voltage.Samples))
	}
}

func TestMathChannelSumAndDifference(t *testing.T) {
	cfg := model.DefaultAnalyzerSettings()
	cfg.Math = model.MathSum
	a := New(cfg, 2, eventbus.New(zap.NewNop()), zap.NewNop())

	out := a.process(model.SamplesAvailable{
		Channels:   [][]float64{{1, 2, 3}, {10, 20, 30}},
		SampleRate: 1000,
	})
	if len(out.Channels) != 3 {
		t.Fatalf("expected a math channel appended, got %d channels", len(out.Channels))
	}
	want := []float64{11, 22, 33}
	for i, w := range want {
		if out.Channels[2].Voltage.Samples[i] != w {
			t.Fatalf("math channel[%d] = %v, want %v", i, out.Channels[2].Voltage.Samples[i], w)
		}
	}
}

func TestMathChannelDiff21(t *testing.T) {
	cfg := model.DefaultAnalyzerSettings()
	cfg.Math = model.MathDiff21
	a := New(cfg, 2, eventbus.New(zap.NewNop()), zap.NewNop())

	out := a.process(model.SamplesAvailable{
		Channels:   [][]float64{{1, 2}, {10, 20}},
		SampleRate: 1000,
	})
	if out.Channels[2].Voltage.Samples[0] != 9 || out.Channels[2].Voltage.Samples[1] != 18 {
		t.Fatalf("unexpected diff21 output: %v", out.Channels[2].Voltage.Samples)
	}
}

func TestPeakToPeakAmplitude(t *testing.T) {
	a := New(model.DefaultAnalyzerSettings(), 2, eventbus.New(zap.NewNop()), zap.NewNop())
	out := a.process(model.SamplesAvailable{
		Channels:   [][]float64{{-2, 5, 1, -3}, {0, 0}},
		SampleRate: 1000,
	})
	if out.Channels[0].AmplitudeV != 8 {
		t.Fatalf("peak-to-peak = %v, want 8", out.Channels[0].AmplitudeV)
	}
}

func TestSubmitDropsWhenAnalyzerBusy(t *testing.T) {
	a := New(model.DefaultAnalyzerSettings(), 2, eventbus.New(zap.NewNop()), zap.NewNop())
	a.Submit(model.SamplesAvailable{SampleRate: 1000})
	a.Submit(model.SamplesAvailable{SampleRate: 2000}) // incoming channel already full, should drop
	if len(a.incoming) != 1 {
		t.Fatalf("expected exactly one queued packet, got %d", len(a.incoming))
	}
}

// TestFundamentalFrequencyS7 reproduces spec's worked autocorrelation
// scenario: a Hamming window, a pure sine at bin 8 of N=1024 samples,
// 1 MHz samplerate.
func TestFundamentalFrequencyS7(t *testing.T) {
	cfg := model.DefaultAnalyzerSettings()
	cfg.Window = model.WindowHamming
	a := New(cfg, 2, eventbus.New(zap.NewNop()), zap.NewNop())

	const n = 1024
	const bin = 8
	const sampleRate = 1e6
	sine := make([]float64, n)
	for i := range sine {
		sine[i] = math.Sin(2 * math.Pi * float64(bin) * float64(i) / float64(n))
	}

	out := a.process(model.SamplesAvailable{
		Channels:   [][]float64{sine, make([]float64, n)},
		SampleRate: sampleRate,
	})

	wantFreq := 7812.5
	if math.Abs(out.Channels[0].FrequencyHz-wantFreq) > 50 {
		t.Fatalf("frequency_hz = %v, want ~%v", out.Channels[0].FrequencyHz, wantFreq)
	}

	wantPP := 2.0
	if math.Abs(out.Channels[0].AmplitudeV-wantPP)/wantPP > 0.01 {
		t.Fatalf("peak-to-peak = %v, want ~%v within 1%%", out.Channels[0].AmplitudeV, wantPP)
	}
}

func TestRunPublishesAnalyzedEvent(t *testing.T) {
	bus := eventbus.New(zap.NewNop())
	a := New(model.DefaultAnalyzerSettings(), 2, bus, zap.NewNop())

	received := make(chan model.AnalyzedEvent, 1)
	bus.OnAnalyzed(func(e model.AnalyzedEvent) { received <- e })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)
	defer a.Stop()

	a.Submit(model.SamplesAvailable{Channels: [][]float64{{1, 2}, {3, 4}}, SampleRate: 1000})

	select {
	case e := <-received:
		if e.Data == nil {
			t.Fatal("expected non-nil analyzed data")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for analyzed event")
	}
}
