// Package transport defines the USB transport contract spec.md treats
// as an external collaborator (spec §1, §2 component 4, §6): a
// byte-oriented bulk/control endpoint with a disconnect callback. This
// module only consumes the contract; internal/transport/usb.go is one
// concrete implementation (backed by github.com/google/gousb) a real
// deployment wires in, and fake.go is an in-memory implementation used
// by internal/engine, internal/queue and internal/device tests.
package transport

import (
	"context"
	"errors"
	"time"
)

// Default per-call timeouts (spec §5): nominal bulk/control calls use
// 500ms, the roll-mode multi-packet read path uses a tighter 10ms so a
// short read doesn't stall the poll loop.
const (
	DefaultTimeout      = 500 * time.Millisecond
	MultiPacketReadTimeout = 10 * time.Millisecond
)

// ErrNoDevice is the terminal transport error (spec §4.7, §7): the
// device has gone away. Every other transport error is recoverable —
// the caller logs it and leaves the corresponding queued command
// pending for retry on the next loop iteration.
var ErrNoDevice = errors.New("transport: no device")

// ControlDirection selects read vs write for a control transfer.
type ControlDirection int

const (
	ControlOut ControlDirection = iota
	ControlIn
)

// Transport is the contract the AcquisitionEngine and CommandQueues
// drive. Implementations must be safe for the acquisition goroutine to
// call repeatedly in a loop; they are not required to be safe for
// concurrent use by more than one goroutine (spec §5: the transport is
// exclusively owned by the acquisition thread once connected).
type Transport interface {
	// BulkWrite writes data to the bulk OUT endpoint.
	BulkWrite(ctx context.Context, data []byte) error
	// BulkRead reads up to len(buf) bytes from the bulk IN endpoint,
	// returning the number of bytes actually read. A short read is not
	// an error (spec §4.7: "roll-mode packet arriving smaller than
	// expected: treat as normal").
	BulkRead(ctx context.Context, buf []byte) (int, error)
	// ControlWrite issues a control transfer carrying data (used for
	// BeginCommand, SetOffset, SetRelays).
	ControlWrite(ctx context.Context, request uint8, value, index uint16, data []byte) error
	// ControlRead issues a control transfer that reads data back (used
	// for the calibration GetValue/OFFSET_LIMITS read).
	ControlRead(ctx context.Context, request uint8, value, index uint16, length int) ([]byte, error)
	// MaxPacketSize reports the bulk IN endpoint's max packet size (64
	// full-speed, 512 high-speed) — used to size roll-mode chunking.
	MaxPacketSize() int
	// SetDisconnectCallback registers a callback invoked when the
	// transport detects the device has gone away, so blocked calls can
	// be unblocked promptly (spec §5 cancellation).
	SetDisconnectCallback(fn func())
	// Close releases the transport's OS resources. Idempotent.
	Close() error
}
