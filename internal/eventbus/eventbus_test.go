package eventbus

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"scope-service/internal/model"
)

func TestPublishSamplesAvailableFansOutToAllSubscribers(t *testing.T) {
	b := New(zap.NewNop())
	var got1, got2 model.SamplesAvailable
	b.OnSamplesAvailable(func(e model.SamplesAvailable) { got1 = e })
	b.OnSamplesAvailable(func(e model.SamplesAvailable) { got2 = e })

	b.PublishSamplesAvailable(model.SamplesAvailable{SampleRate: 1e6})

	if got1.SampleRate != 1e6 || got2.SampleRate != 1e6 {
		t.Fatalf("expected both subscribers to see the event, got %v / %v", got1, got2)
	}
}

func TestPublishWithNoSubscribersDoesNotPanic(t *testing.T) {
	b := New(zap.NewNop())
	b.PublishConnected()
	b.PublishDisconnected(nil)
	b.PublishAnalyzed(model.AnalyzedEvent{})
}

func TestPublishDisconnectedCarriesReason(t *testing.T) {
	b := New(zap.NewNop())
	var got error
	called := false
	b.OnDisconnected(func(reason error) {
		called = true
		got = reason
	})

	reason := errors.New("usb: no device")
	b.PublishDisconnected(reason)

	if !called {
		t.Fatal("expected disconnected subscriber to be invoked")
	}
	if got != reason {
		t.Fatalf("expected reason to propagate unchanged, got %v", got)
	}
}

func TestOnStatusMessageReceivesPayload(t *testing.T) {
	b := New(zap.NewNop())
	var got model.StatusMessage
	b.OnStatusMessage(func(e model.StatusMessage) { got = e })

	b.PublishStatusMessage(model.StatusMessage{Code: 7, Message: "armed", TimeoutMs: 2000})

	if got.Code != 7 || got.Message != "armed" || got.TimeoutMs != 2000 {
		t.Fatalf("unexpected status message payload: %+v", got)
	}
}

func TestRecordLengthAndSamplerateChangedSubscribersAreIndependent(t *testing.T) {
	b := New(zap.NewNop())
	var rl model.RecordLengthChanged
	var sr model.SamplerateLimitsChanged
	b.OnRecordLengthChanged(func(e model.RecordLengthChanged) { rl = e })
	b.OnSamplerateChanged(func(e model.SamplerateLimitsChanged) { sr = e })

	b.PublishRecordLengthChanged(model.RecordLengthChanged{Lengths: []uint{10240, 32768}, SelectedID: 1})
	b.PublishSamplerateChanged(model.SamplerateLimitsChanged{MinHz: 100, MaxHz: 50e6})

	if len(rl.Lengths) != 2 || rl.SelectedID != 1 {
		t.Fatalf("unexpected record length payload: %+v", rl)
	}
	if sr.MaxHz != 50e6 {
		t.Fatalf("unexpected samplerate payload: %+v", sr)
	}
}
