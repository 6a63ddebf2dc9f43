// Package queue implements CommandQueues (spec §4.2, component 3):
// two arrays of pending outgoing messages — bulk and control — with
// idempotent re-marking and a single flush pass.
package queue

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"scope-service/internal/catalog"
	"scope-service/internal/transport"
)

// BufferMessage is satisfied by every typed message in the catalog
// package (they all embed *buffer.TransferBuffer, which exposes
// Bytes()).
type BufferMessage interface {
	Bytes() []byte
}

type bulkEntry struct {
	message BufferMessage
	pending bool
}

// ControlKind names a queued control message. BeginCommand is not one
// of these: it is issued inline as the mandatory prefix to every bulk
// write (spec §4.2), never queued on its own.
type ControlKind int

const (
	ControlKindSetOffset ControlKind = iota
	ControlKindSetRelays
)

type controlEntry struct {
	message BufferMessage
	code    catalog.ControlRequest
	pending bool
}

// FlushResult reports whether the flush encountered a fatal transport
// error (spec §4.2, §4.7).
type FlushResult struct {
	Fatal bool
}

// CommandQueues holds one slot per bulk opcode (0x00-0x0F) and one per
// control kind; slots not populated for the connected generation stay
// nil and are skipped by Flush.
type CommandQueues struct {
	bulk    [catalog.NumBulkOpcodes]bulkEntry
	control map[ControlKind]*controlEntry

	beginCommand BufferMessage

	logger *zap.Logger
}

func New(beginCommand BufferMessage, logger *zap.Logger) *CommandQueues {
	return &CommandQueues{
		control:      make(map[ControlKind]*controlEntry),
		beginCommand: beginCommand,
		logger:       logger,
	}
}

// RegisterBulk installs the (already generation-appropriate) message
// buffer backing a bulk opcode. Called once at connect time for every
// opcode the connected model's ProtocolCatalog maps an operation onto.
func (q *CommandQueues) RegisterBulk(op catalog.BulkOpcode, msg BufferMessage) {
	q.bulk[op].message = msg
}

// RegisterControl installs the message buffer backing a control kind.
func (q *CommandQueues) RegisterControl(kind ControlKind, code catalog.ControlRequest, msg BufferMessage) {
	q.control[kind] = &controlEntry{message: msg, code: code}
}

// SetBulk applies mutator to the registered buffer for op and marks it
// pending. Re-marking is idempotent: calling SetBulk again before a
// flush simply re-applies the mutator to the same buffer.
func (q *CommandQueues) SetBulk(op catalog.BulkOpcode, mutator func(msg BufferMessage)) error {
	entry := &q.bulk[op]
	if entry.message == nil {
		return fmt.Errorf("bulk opcode %s not applicable for connected model", op)
	}
	mutator(entry.message)
	entry.pending = true
	return nil
}

// SetControl applies mutator to the registered buffer for kind and
// marks it pending.
func (q *CommandQueues) SetControl(kind ControlKind, mutator func(msg BufferMessage)) error {
	entry, ok := q.control[kind]
	if !ok {
		return fmt.Errorf("control kind %d not registered for connected model", kind)
	}
	mutator(entry.message)
	entry.pending = true
	return nil
}

// BulkMessage returns the registered buffer for op, if any — used by
// callers (e.g. the resolver) that need to read back a just-set field
// without waiting for a flush.
func (q *CommandQueues) BulkMessage(op catalog.BulkOpcode) (BufferMessage, bool) {
	entry := &q.bulk[op]
	return entry.message, entry.message != nil
}

// WriteBulk issues a single bulk message immediately, BeginCommand
// prefix included, bypassing the pending-flag array. The acquisition
// engine uses this for its per-cycle state-machine transitions
// (ForceTrigger, CaptureStart, EnableTrigger, GetData,
// GetCaptureState) — commands with no settable fields that are fired
// unconditionally rather than deferred to the next flush pass.
func (q *CommandQueues) WriteBulk(ctx context.Context, t transport.Transport, msg BufferMessage) error {
	if err := t.ControlWrite(ctx, uint8(catalog.ControlBeginCommand), 0, 0, q.beginCommand.Bytes()); err != nil {
		return err
	}
	return t.BulkWrite(ctx, msg.Bytes())
}

// Flush iterates both arrays and issues a write for every pending
// entry (spec §4.2, §5): all pending bulk messages before any control
// message, each bulk write preceded by its BeginCommand prefix as one
// atomic two-message transaction from the device's perspective. On
// ErrNoDevice it returns Fatal immediately; on any other transport
// error it logs and leaves the entry pending for retry next pass.
func (q *CommandQueues) Flush(ctx context.Context, t transport.Transport) (FlushResult, error) {
	for op := catalog.BulkOpcode(0); int(op) < catalog.NumBulkOpcodes; op++ {
		entry := &q.bulk[op]
		if entry.message == nil || !entry.pending {
			continue
		}

		if err := t.ControlWrite(ctx, uint8(catalog.ControlBeginCommand), 0, 0, q.beginCommand.Bytes()); err != nil {
			if errors.Is(err, transport.ErrNoDevice) {
				return FlushResult{Fatal: true}, err
			}
			q.logger.Warn("BeginCommand prefix failed, will retry", zap.String("opcode", op.String()), zap.Error(err))
			continue
		}

		if err := t.BulkWrite(ctx, entry.message.Bytes()); err != nil {
			if errors.Is(err, transport.ErrNoDevice) {
				return FlushResult{Fatal: true}, err
			}
			q.logger.Warn("bulk write failed, will retry", zap.String("opcode", op.String()), zap.Error(err))
			continue
		}

		entry.pending = false
	}

	for kind, entry := range q.control {
		if !entry.pending {
			continue
		}
		if err := t.ControlWrite(ctx, uint8(entry.code), 0, 0, entry.message.Bytes()); err != nil {
			if errors.Is(err, transport.ErrNoDevice) {
				return FlushResult{Fatal: true}, err
			}
			q.logger.Warn("control write failed, will retry", zap.Int("kind", int(kind)), zap.Error(err))
			continue
		}
		entry.pending = false
	}

	return FlushResult{}, nil
}
