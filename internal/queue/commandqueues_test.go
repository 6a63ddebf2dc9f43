package queue

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"scope-service/internal/catalog"
	"scope-service/internal/transport"
)

var errTimeout = errors.New("usb: timeout")

type fakeMsg struct{ data []byte }

func (m *fakeMsg) Bytes() []byte { return m.data }

func newTestQueues() *CommandQueues {
	return New(&fakeMsg{data: []byte{0xAA}}, zap.NewNop())
}

func TestSetBulkRejectsUnregisteredOpcode(t *testing.T) {
	q := newTestQueues()
	err := q.SetBulk(catalog.BulkSetGain, func(BufferMessage) {})
	if err == nil {
		t.Fatal("expected error for unregistered bulk opcode")
	}
}

func TestFlushIssuesBeginCommandPrefixThenBulkWrite(t *testing.T) {
	q := newTestQueues()
	msg := &fakeMsg{data: []byte{0x01, 0x02}}
	q.RegisterBulk(catalog.BulkSetGain, msg)

	if err := q.SetBulk(catalog.BulkSetGain, func(m BufferMessage) {
		m.(*fakeMsg).data[0] = 0x07
	}); err != nil {
		t.Fatalf("SetBulk: %v", err)
	}

	tr := transport.NewFake()
	result, err := q.Flush(context.Background(), tr)
	if err != nil || result.Fatal {
		t.Fatalf("Flush: result=%v err=%v", result, err)
	}

	if len(tr.ControlWrites) != 1 || len(tr.BulkWrites) != 1 {
		t.Fatalf("expected one control write and one bulk write, got %d/%d", len(tr.ControlWrites), len(tr.BulkWrites))
	}
	if tr.ControlWrites[0].Request != uint8(catalog.ControlBeginCommand) {
		t.Fatalf("expected BeginCommand prefix, got request %d", tr.ControlWrites[0].Request)
	}
	if tr.BulkWrites[0][0] != 0x07 {
		t.Fatalf("expected mutated bulk payload, got %x", tr.BulkWrites[0])
	}
}

func TestFlushClearsReadOnlyPendingOnSuccess(t *testing.T) {
	q := newTestQueues()
	msg := &fakeMsg{data: []byte{0x00}}
	q.RegisterBulk(catalog.BulkSetFilter, msg)
	_ = q.SetBulk(catalog.BulkSetFilter, func(BufferMessage) {})

	tr := transport.NewFake()
	if _, err := q.Flush(context.Background(), tr); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := q.Flush(context.Background(), tr); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if len(tr.BulkWrites) != 1 {
		t.Fatalf("expected exactly one bulk write across two flushes once pending cleared, got %d", len(tr.BulkWrites))
	}
}

func TestFlushRetriesOnRecoverableError(t *testing.T) {
	q := newTestQueues()
	msg := &fakeMsg{data: []byte{0x00}}
	q.RegisterBulk(catalog.BulkSetFilter, msg)
	_ = q.SetBulk(catalog.BulkSetFilter, func(BufferMessage) {})

	tr := transport.NewFake()
	tr.FailNextWith(errTimeout)
	result, err := q.Flush(context.Background(), tr)
	if result.Fatal {
		t.Fatal("recoverable error should not be fatal")
	}
	if err != nil {
		t.Fatalf("Flush should swallow a recoverable error, got %v", err)
	}

	result, err = q.Flush(context.Background(), tr)
	if err != nil || result.Fatal {
		t.Fatalf("retry flush should succeed: result=%v err=%v", result, err)
	}
	if len(tr.BulkWrites) != 1 {
		t.Fatalf("expected the retried write to land exactly once, got %d", len(tr.BulkWrites))
	}
}

func TestFlushIsFatalOnNoDevice(t *testing.T) {
	q := newTestQueues()
	msg := &fakeMsg{data: []byte{0x00}}
	q.RegisterBulk(catalog.BulkSetFilter, msg)
	_ = q.SetBulk(catalog.BulkSetFilter, func(BufferMessage) {})

	tr := transport.NewFake()
	tr.FailNextWith(transport.ErrNoDevice)
	result, err := q.Flush(context.Background(), tr)
	if !result.Fatal {
		t.Fatal("expected Fatal on ErrNoDevice")
	}
	if err != transport.ErrNoDevice {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
}
