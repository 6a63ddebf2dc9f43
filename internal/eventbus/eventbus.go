// Package eventbus implements the EventBus (spec §6, component 10):
// typed callback registrations for the handful of events the
// acquisition engine and analyzer emit.
//
// Grounded in pattern (not literally) on
// device-service/internal/handler/event_bus.go's subscriber-list
// shape — a mutex-guarded slice of callbacks per event — but every
// event is delivered synchronously to every callback (none is
// dropped), and typed methods replace that file's generic
// string-keyed Event/Subscribe,
// since the DSO's event set is small, fixed, and already typed in
// internal/model/events.go.
package eventbus

import (
	"sync"

	"go.uber.org/zap"

	"scope-service/internal/model"
)

// EventBus fans out the fixed set of device events to registered
// callbacks. A callback panicking or blocking is the caller's
// problem: callbacks run synchronously on the publishing goroutine
// (the engine's poll loop), matching spec §6's "emitted events are
// handled before the next poll interval starts".
type EventBus struct {
	mu sync.RWMutex

	samplesAvailable    []func(model.SamplesAvailable)
	statusMessage       []func(model.StatusMessage)
	samplerateChanged   []func(model.SamplerateLimitsChanged)
	recordLengthChanged []func(model.RecordLengthChanged)
	connected           []func()
	disconnected        []func(reason error)
	analyzed            []func(model.AnalyzedEvent)

	logger *zap.Logger
}

func New(logger *zap.Logger) *EventBus {
	return &EventBus{logger: logger}
}

func (b *EventBus) OnSamplesAvailable(fn func(model.SamplesAvailable)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samplesAvailable = append(b.samplesAvailable, fn)
}

func (b *EventBus) OnStatusMessage(fn func(model.StatusMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusMessage = append(b.statusMessage, fn)
}

func (b *EventBus) OnSamplerateChanged(fn func(model.SamplerateLimitsChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samplerateChanged = append(b.samplerateChanged, fn)
}

func (b *EventBus) OnRecordLengthChanged(fn func(model.RecordLengthChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recordLengthChanged = append(b.recordLengthChanged, fn)
}

func (b *EventBus) OnConnected(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = append(b.connected, fn)
}

func (b *EventBus) OnDisconnected(fn func(reason error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, fn)
}

func (b *EventBus) OnAnalyzed(fn func(model.AnalyzedEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.analyzed = append(b.analyzed, fn)
}

func (b *EventBus) PublishSamplesAvailable(e model.SamplesAvailable) {
	b.mu.RLock()
	subs := b.samplesAvailable
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

func (b *EventBus) PublishStatusMessage(e model.StatusMessage) {
	b.mu.RLock()
	subs := b.statusMessage
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

func (b *EventBus) PublishSamplerateChanged(e model.SamplerateLimitsChanged) {
	b.mu.RLock()
	subs := b.samplerateChanged
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

func (b *EventBus) PublishRecordLengthChanged(e model.RecordLengthChanged) {
	b.mu.RLock()
	subs := b.recordLengthChanged
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

func (b *EventBus) PublishConnected() {
	b.mu.RLock()
	subs := b.connected
	b.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// PublishDisconnected notifies subscribers that the device dropped off
// the bus. reason is nil for a clean, user-requested disconnect.
func (b *EventBus) PublishDisconnected(reason error) {
	b.mu.RLock()
	subs := b.disconnected
	b.mu.RUnlock()
	if reason != nil && b.logger != nil {
		b.logger.Warn("device disconnected", zap.Error(reason))
	}
	for _, fn := range subs {
		fn(reason)
	}
}

func (b *EventBus) PublishAnalyzed(e model.AnalyzedEvent) {
	b.mu.RLock()
	subs := b.analyzed
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}
