package transport

import (
	"context"
	"sync"
)

// Fake is an in-memory Transport used by internal/engine,
// internal/queue and internal/device tests (spec §4's "hard part" is testable without
// real hardware). It records every bulk/control write and serves
// scripted bulk reads and control reads.
type Fake struct {
	mutex sync.Mutex

	maxPacket int

	BulkWrites    [][]byte
	ControlWrites []FakeControlWrite

	// BulkReadQueue: successive BulkRead calls pop from the front; once
	// empty, BulkRead returns (0, nil) — an empty roll-mode packet,
	// which spec §4.7 says is normal, not an error.
	BulkReadQueue [][]byte

	// ControlReadResponses keyed by request code, used for the
	// calibration GetValue read.
	ControlReadResponses map[uint8][]byte

	disconnect func()
	closed     bool
	failNext   error
}

type FakeControlWrite struct {
	Request     uint8
	Value, Index uint16
	Data        []byte
}

func NewFake() *Fake {
	return &Fake{
		maxPacket:            64,
		ControlReadResponses: make(map[uint8][]byte),
	}
}

func (f *Fake) SetMaxPacketSize(n int) { f.maxPacket = n }

// FailNextWith makes the next transport call return err instead of
// succeeding, then clears itself — used to test CommandQueues' retry
// and fatal-on-NO_DEVICE paths.
func (f *Fake) FailNextWith(err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.failNext = err
}

func (f *Fake) takeFailure() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *Fake) BulkWrite(ctx context.Context, data []byte) error {
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.closed {
		return ErrNoDevice
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.BulkWrites = append(f.BulkWrites, cp)
	return nil
}

func (f *Fake) BulkRead(ctx context.Context, buf []byte) (int, error) {
	if err := f.takeFailure(); err != nil {
		return 0, err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.closed {
		return 0, ErrNoDevice
	}
	if len(f.BulkReadQueue) == 0 {
		return 0, nil
	}
	next := f.BulkReadQueue[0]
	f.BulkReadQueue = f.BulkReadQueue[1:]
	n := copy(buf, next)
	return n, nil
}

func (f *Fake) ControlWrite(ctx context.Context, request uint8, value, index uint16, data []byte) error {
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.closed {
		return ErrNoDevice
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.ControlWrites = append(f.ControlWrites, FakeControlWrite{Request: request, Value: value, Index: index, Data: cp})
	return nil
}

func (f *Fake) ControlRead(ctx context.Context, request uint8, value, index uint16, length int) ([]byte, error) {
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.closed {
		return nil, ErrNoDevice
	}
	resp, ok := f.ControlReadResponses[request]
	if !ok {
		return make([]byte, length), nil
	}
	return resp, nil
}

func (f *Fake) MaxPacketSize() int { return f.maxPacket }

func (f *Fake) SetDisconnectCallback(fn func()) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.disconnect = fn
}

func (f *Fake) Close() error {
	f.mutex.Lock()
	cb := f.disconnect
	already := f.closed
	f.closed = true
	f.mutex.Unlock()
	if !already && cb != nil {
		cb()
	}
	return nil
}

// PushSamples enqueues a raw bulk-read packet the engine will receive
// on its next GetData.
func (f *Fake) PushSamples(data []byte) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.BulkReadQueue = append(f.BulkReadQueue, data)
}
