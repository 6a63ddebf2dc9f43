// Package engine implements the AcquisitionEngine (spec §4.4, component
// 7): the two-mode Roll/Standard state machine that pipelines bulk
// commands, control writes, capture-state polling and sample reads
// against a transport that exposes no ordered transactions.
//
// Grounded in pattern on device-service/internal/discovery/usb/scanner.go's
// goroutine-plus-context loop shape (a dedicated goroutine, a stop
// channel closed once rather than a raw back-pointer — spec §9's
// "Arc/equivalent or a thread handle with a stop channel closed on
// drop" note), generalized from a one-shot scan loop to a continuous
// poll loop.
package engine

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"scope-service/internal/catalog"
	"scope-service/internal/decoder"
	"scope-service/internal/eventbus"
	"scope-service/internal/model"
	"scope-service/internal/queue"
	"scope-service/internal/resolver"
	"scope-service/internal/transport"
)

// rollState is the Roll-mode cycle (spec §4.4): START -> ENABLE_TRIGGER
// -> FORCE_TRIGGER -> READ -> START.
type rollState int

const (
	rollStart rollState = iota
	rollEnableTrigger
	rollForceTrigger
	rollRead
)

// Engine drives one connected device's capture loop on a dedicated
// goroutine. Parameter setters (via Resolver) run on caller goroutines
// and only mutate Settings/CommandQueues under queues' own locking;
// Engine owns the transport exclusively once Run starts (spec §5).
type Engine struct {
	transport transport.Transport
	queues    *queue.CommandQueues
	resolver  *resolver.Resolver
	spec      *model.DeviceSpecification
	bus       *eventbus.EventBus
	logger    *zap.Logger

	sampling        bool
	rState          rollState
	samplingStarted bool
	cycleCounter    int
	startCycle      int
	pollMs          float64

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds an Engine for a connected model. queues must already have
// every bulk opcode the catalog names registered (SetFilter,
// ForceTrigger, CaptureStart, EnableTrigger, GetData, GetCaptureState,
// plus whichever samplerate/trigger/gain messages the resolver drives)
// — that registration happens once at connect time, outside this
// package (spec §3 "connect populates spec, initializes all command
// buffers").
func New(t transport.Transport, q *queue.CommandQueues, r *resolver.Resolver, spec *model.DeviceSpecification, bus *eventbus.EventBus, logger *zap.Logger) *Engine {
	return &Engine{
		transport: t,
		queues:    q,
		resolver:  r,
		spec:      spec,
		bus:       bus,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// StartSampling arms the engine: Roll mode begins its START->...->READ
// cycle, Standard mode begins its WAITING->SAMPLING->READY polling.
// Safe to call from any goroutine; it only flips a flag the
// acquisition goroutine reads.
func (e *Engine) StartSampling() {
	e.sampling = true
}

// Run is the outer loop (spec §4.4): flush pending commands, compute
// the poll interval, step the appropriate state machine, sleep. It
// returns when ctx is cancelled or a fatal transport error occurs; on a
// fatal (ErrNoDevice) error Run itself publishes the disconnected event
// with that error before returning it, matching spec §4.7's failure
// semantics.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.doneCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.stopCh:
			return nil
		default:
		}

		result, err := e.queues.Flush(ctx, e.transport)
		if result.Fatal {
			e.bus.PublishDisconnected(err)
			return err
		}

		e.pollMs = e.computePollMs()

		var stepErr error
		if e.resolver.Settings.IsRollMode() {
			stepErr = e.rollStep(ctx)
		} else {
			stepErr = e.stdStep(ctx)
		}
		if stepErr != nil {
			if errors.Is(stepErr, transport.ErrNoDevice) {
				e.bus.PublishDisconnected(stepErr)
				return stepErr
			}
			e.logger.Warn("acquisition step failed, continuing", zap.Error(stepErr))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-e.stopCh:
			return nil
		case <-time.After(time.Duration(e.pollMs * float64(time.Millisecond))):
		}
	}
}

// Stop signals Run to exit on its next iteration and blocks until it
// has; idempotent (spec §5 "disconnect() is idempotent").
func (e *Engine) Stop() {
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
	<-e.doneCh
}

// computePollMs implements spec §4.4's T_ms formula. The source
// expression `max(min(10, T), 1000)` always evaluates to 1000; spec §9
// flags this as almost certainly meant to be a clamp and directs a
// reimplementation to use the clamp while marking the deviation (see
// DESIGN.md).
func (e *Engine) computePollMs() float64 {
	settings := e.resolver.Settings
	currentHz := settings.Samplerate.CurrentHz
	if currentHz <= 0 {
		return 1000
	}

	var t float64
	if settings.IsRollMode() {
		packetSize := float64(e.transport.MaxPacketSize())
		divisor := float64(e.spec.Channels)
		if settings.Samplerate.FastRate {
			divisor = 1
		}
		t = packetSize / divisor / currentHz * 250
	} else {
		recordLength := float64(settings.EffectiveRecordLength())
		t = recordLength / currentHz * 250
	}

	return clampF(t, 10, 1000)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// issue fetches op's registered message and writes it with the
// mandatory BeginCommand prefix (spec §4.2).
func (e *Engine) issue(ctx context.Context, op catalog.BulkOpcode) error {
	msg, ok := e.queues.BulkMessage(op)
	if !ok {
		return nil // op not applicable for this generation; nothing to issue
	}
	return e.queues.WriteBulk(ctx, e.transport, msg)
}

// rollStep advances the Roll-mode cycle by exactly one transition
// (spec §4.4). START does not advance while e.sampling is false; every
// other state advances once its command write or sample read succeeds,
// and stays put (returning the error) when that call fails.
func (e *Engine) rollStep(ctx context.Context) error {
	switch e.rState {
	case rollStart:
		if !e.sampling {
			return nil
		}
		e.rState = rollEnableTrigger
		return nil

	case rollEnableTrigger:
		if err := e.issue(ctx, catalog.BulkEnableTrigger); err != nil {
			return err
		}
		e.rState = rollForceTrigger
		return nil

	case rollForceTrigger:
		if err := e.issue(ctx, catalog.BulkForceTrigger); err != nil {
			return err
		}
		e.rState = rollRead
		return nil

	case rollRead:
		if err := e.readSamples(ctx, false); err != nil {
			return err
		}
		if e.resolver.Settings.Trigger.Mode == model.TriggerSingle {
			e.sampling = false
		}
		e.rState = rollStart
		return nil
	}
	return nil
}

// stdStep implements the Standard-mode state machine, driven by the
// device's reported capture state (spec §4.4).
func (e *Engine) stdStep(ctx context.Context) error {
	if err := e.issue(ctx, catalog.BulkGetCaptureState); err != nil {
		return err
	}

	raw := make([]byte, 3)
	n, err := e.transport.BulkRead(ctx, raw)
	if err != nil {
		return err
	}
	resp := catalog.NewCaptureStateResponse(raw[:n])
	state := resp.State()
	e.resolver.Settings.Trigger.PointSamples = uint32(catalog.DecodeGrayTriggerPoint(resp.TriggerPointRaw()))

	switch state {
	case catalog.CaptureReady, catalog.CaptureReady2250, catalog.CaptureReady5200:
		if err := e.readSamples(ctx, true); err != nil {
			return err
		}
		if e.resolver.Settings.Trigger.Mode == model.TriggerSingle {
			e.sampling = false
		}
		if !e.sampling {
			return nil
		}
		return e.waitingStep(ctx)

	case catalog.CaptureWaiting:
		return e.waitingStep(ctx)

	case catalog.CaptureSampling:
		return nil

	default:
		e.logger.Warn("unknown capture state", zap.Int("state", int(state)))
		return nil
	}
}

// waitingStep implements the WAITING branch of the Standard state
// machine (spec §4.4): cycle-count gated EnableTrigger, then
// ForceTrigger in auto mode, then CaptureStart once enough cycles have
// elapsed to be confident the device is armed.
func (e *Engine) waitingStep(ctx context.Context) error {
	if e.samplingStarted {
		e.cycleCounter++
	}

	if e.cycleCounter == e.startCycle {
		if err := e.issue(ctx, catalog.BulkEnableTrigger); err != nil {
			return err
		}
	}

	if e.resolver.Settings.Trigger.Mode == model.TriggerAuto && e.cycleCounter >= 8+e.startCycle {
		if err := e.issue(ctx, catalog.BulkForceTrigger); err != nil {
			return err
		}
	}

	threshold := math.Max(20, 4000/e.pollMs)
	if float64(e.cycleCounter) < threshold {
		return nil
	}

	if err := e.issue(ctx, catalog.BulkCaptureStart); err != nil {
		return err
	}
	e.samplingStarted = true
	e.cycleCounter = 0
	e.startCycle = int(e.resolver.Settings.Trigger.PositionSeconds*1000/e.pollMs) + 1
	return nil
}

// readSamples issues GetData, reads the raw buffer, decodes it and
// publishes samplesAvailable (spec §4.5, §4.6). Roll mode appends to
// the analyzer's running buffer; Standard mode replaces it — the
// standardMode parameter selects which.
func (e *Engine) readSamples(ctx context.Context, standardMode bool) error {
	if err := e.issue(ctx, catalog.BulkGetData); err != nil {
		return err
	}

	settings := e.resolver.Settings
	totalSampleCount := e.expectedSampleCount()
	rawLen := totalSampleCount
	if e.spec.SampleSizeBits > 8 {
		rawLen = totalSampleCount * 2
	}

	buf := make([]byte, rawLen)
	n, err := e.transport.BulkRead(ctx, buf)
	if err != nil {
		return err
	}
	// A short read (roll-mode packet smaller than expected) is treated
	// as normal, not an error (spec §4.7): the decoder must work from
	// what actually arrived, not the pre-read expectation, or it walks
	// off the end of the truncated buffer.
	buf = buf[:n]
	if n != rawLen {
		if e.spec.SampleSizeBits > 8 {
			totalSampleCount = n / 2
		} else {
			totalSampleCount = n
		}
	}

	mask := uint8(0)
	for ch := 0; ch < e.spec.Channels; ch++ {
		if settings.Voltage[ch].Used {
			mask |= 1 << uint(ch)
		}
	}

	packet := model.RawPacket{
		Bytes:            buf,
		TotalSampleCount: totalSampleCount,
		ChannelMask:      mask,
		FastRate:         settings.Samplerate.FastRate,
		TriggerPoint:     settings.Trigger.PointSamples,
		SampleSizeBits:   e.spec.SampleSizeBits,
	}
	channels := decoder.Decode(packet, e.spec, settings)

	e.bus.PublishSamplesAvailable(model.SamplesAvailable{
		Channels:   channels,
		SampleRate: settings.Samplerate.CurrentHz,
		AppendMode: !standardMode,
		At:         time.Time{},
	})
	return nil
}

// expectedSampleCount is the total low-byte sample count GetData
// should return: the effective record length in Standard mode, or one
// max-size packet's worth in Roll mode (spec §4.5, §6: "max-packet
// sizes ... determine roll-mode chunking").
func (e *Engine) expectedSampleCount() int {
	settings := e.resolver.Settings
	if settings.IsRollMode() {
		return e.transport.MaxPacketSize()
	}
	return int(settings.EffectiveRecordLength())
}
